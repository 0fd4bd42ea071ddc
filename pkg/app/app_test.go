package app

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"
)

func commandWithFlags(args ...string) *cobra.Command {
	root := &cobra.Command{Use: "linkpost"}
	AddPersistentFlags(root)
	child := &cobra.Command{Use: "child", RunE: func(*cobra.Command, []string) error { return nil }}
	root.AddCommand(child)
	root.SetArgs(append([]string{"child"}, args...))
	Expect(root.Execute()).To(Succeed())
	return child
}

var _ = Describe("Load", func() {
	var dir string

	BeforeEach(func() {
		dir = GinkgoT().TempDir()
	})

	It("reads config values from the credential file", func() {
		envFile := filepath.Join(dir, "creds.env")
		Expect(os.WriteFile(envFile, []byte("FOLDER_PATH="+dir+"\nDB_PATH="+filepath.Join(dir, "x.db")+"\n"), 0o600)).To(Succeed())

		rt, err := Load(commandWithFlags("--env-file", envFile))
		Expect(err).NotTo(HaveOccurred())
		defer rt.Close()

		Expect(rt.Credentials.GetTarget()).To(Equal(envFile))
		Expect(rt.Config.FolderPath).To(Equal(dir))
		Expect(rt.Config.DBPath).To(Equal(filepath.Join(dir, "x.db")))
		Expect(rt.Logger).NotTo(BeNil())
	})

	It("applies the settings file", func() {
		settings := filepath.Join(dir, "linkpost.toml")
		Expect(os.WriteFile(settings, []byte("image_model = \"custom-model\"\n"), 0o600)).To(Succeed())

		rt, err := Load(commandWithFlags("--env-file", filepath.Join(dir, "missing.env"), "--config", settings))
		Expect(err).NotTo(HaveOccurred())
		Expect(rt.Config.ImageModel).To(Equal("custom-model"))
	})

	It("fails on a malformed credential file", func() {
		envFile := filepath.Join(dir, "bad.env")
		Expect(os.WriteFile(envFile, []byte("this is not dotenv\n"), 0o600)).To(Succeed())

		_, err := Load(commandWithFlags("--env-file", envFile))
		Expect(err).To(HaveOccurred())
	})
})
