package configcmder

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/linkpost/pkg/app"
)

func run(stdin string, args ...string) (string, error) {
	root := &cobra.Command{Use: "linkpost", SilenceUsage: true, SilenceErrors: true}
	app.AddPersistentFlags(root)
	root.AddCommand(NewConfigCmd())

	out := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(&bytes.Buffer{})
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(append([]string{"config"}, args...))

	err := root.Execute()
	return out.String(), err
}

var _ = Describe("Config Command", func() {
	var envFile string

	BeforeEach(func() {
		envFile = filepath.Join(GinkgoT().TempDir(), ".env")
	})

	Describe("set", func() {
		It("stores a piped value in place", func() {
			Expect(os.WriteFile(envFile, []byte("CLIENT_ID=abc\nCLIENT_SECRET=old\nFOLDER_PATH=/media\n"), 0o600)).To(Succeed())

			out, err := run("new-secret\n", "set", "CLIENT_SECRET", "--env-file", envFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("Stored CLIENT_SECRET"))

			data, err := os.ReadFile(envFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("CLIENT_ID=abc\nCLIENT_SECRET=new-secret\nFOLDER_PATH=/media\n"))
		})

		It("creates the file when it does not exist", func() {
			_, err := run("BSA-key\n", "set", "BRAVE_API_KEY", "--env-file", envFile)
			Expect(err).NotTo(HaveOccurred())

			data, err := os.ReadFile(envFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(string(data)).To(Equal("BRAVE_API_KEY=BSA-key\n"))
		})

		It("rejects empty input", func() {
			_, err := run("   \n", "set", "CLIENT_ID", "--env-file", envFile)
			Expect(err).To(MatchError("value cannot be empty"))
		})

		It("rejects invalid keys", func() {
			_, err := run("v\n", "set", "not a key", "--env-file", envFile)
			Expect(err).To(MatchError(ContainSubstring("invalid credential key")))
		})
	})

	Describe("list", func() {
		It("masks secrets and shows plain settings", func() {
			Expect(os.WriteFile(envFile, []byte("CLIENT_ID=client-123\nACCESS_TOKEN=AQVabcdefghijkl\nFOLDER_PATH=/media\n"), 0o600)).To(Succeed())

			out, err := run("", "list", "--env-file", envFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("CLIENT_ID=client-123"))
			Expect(out).To(ContainSubstring("FOLDER_PATH=/media"))
			Expect(out).To(ContainSubstring("ACCESS_TOKEN=AQVa********"))
			Expect(out).NotTo(ContainSubstring("AQVabcdefghijkl"))
		})

		It("reports an empty file", func() {
			out, err := run("", "list", "--env-file", envFile)
			Expect(err).NotTo(HaveOccurred())
			Expect(out).To(ContainSubstring("No keys stored"))
		})
	})
})

var _ = Describe("maskValue", func() {
	It("fully masks short values", func() {
		Expect(maskValue("abc")).To(Equal("***"))
	})

	It("keeps a four character prefix of long values", func() {
		Expect(maskValue("sk-proj-1234567890")).To(Equal("sk-p********"))
	})
})
