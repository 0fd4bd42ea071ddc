package querycmder

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/linkpost/pkg/app"
)

var _ = Describe("Query Command", func() {
	var envFile string

	BeforeEach(func() {
		dir := GinkgoT().TempDir()
		envFile = filepath.Join(dir, ".env")
		Expect(os.WriteFile(envFile, []byte("DB_PATH="+filepath.Join(dir, "data.db")+"\n"), 0o600)).To(Succeed())
	})

	run := func(args ...string) (string, error) {
		root := &cobra.Command{Use: "linkpost", SilenceUsage: true, SilenceErrors: true}
		app.AddPersistentFlags(root)
		root.AddCommand(NewQueryCmd())

		out := &bytes.Buffer{}
		root.SetOut(out)
		root.SetErr(&bytes.Buffer{})
		root.SetArgs(append([]string{"query", "--env-file", envFile}, args...))
		err := root.Execute()
		return out.String(), err
	}

	It("commits writes and renders selected rows as a table", func() {
		out, err := run("CREATE TABLE drafts (id INTEGER PRIMARY KEY, body TEXT)")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("OK, 0 row(s) affected"))

		_, err = run("INSERT INTO drafts (body) VALUES ('first draft')")
		Expect(err).NotTo(HaveOccurred())

		out, err = run("SELECT id, body FROM drafts")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring("first draft"))
		Expect(out).To(ContainSubstring("1 row(s)"))
	})

	It("prints the structured outcome with --json", func() {
		out, err := run("--json", "SELECT 1 AS one")
		Expect(err).NotTo(HaveOccurred())

		var outcome map[string]any
		Expect(json.Unmarshal([]byte(out), &outcome)).To(Succeed())
		Expect(outcome).To(HaveKeyWithValue("success", true))
		Expect(outcome["rows"]).To(Equal([]any{map[string]any{"one": float64(1)}}))
	})

	It("reports bad sql as an unsuccessful outcome with --json", func() {
		out, err := run("--json", "not sql")
		Expect(err).NotTo(HaveOccurred())
		Expect(out).To(ContainSubstring(`"success": false`))
	})

	It("returns the engine error without --json", func() {
		_, err := run("not sql")
		Expect(err).To(MatchError(ContainSubstring("syntax error")))
	})
})
