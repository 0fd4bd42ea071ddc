// Package querycmder provides the query command that runs a statement
// against the local database the same way the execute_db_query tool does.
package querycmder

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/linkpost/pkg/app"
	"github.com/papercomputeco/linkpost/pkg/sqlexec"
)

const queryLongDesc string = `Run a SQL statement against the database at DB_PATH.

Statements starting with SELECT print their rows as a table; anything else
is committed and the number of affected rows is printed. Each statement runs
in its own transaction.

Examples:
  linkpost query "SELECT name FROM sqlite_master"
  linkpost query "CREATE TABLE drafts (id INTEGER PRIMARY KEY, body TEXT)"
  linkpost query --json "SELECT * FROM drafts"`

const queryShortDesc string = "Run a SQL statement against the local database"

func NewQueryCmd() *cobra.Command {
	var jsonFlag bool

	cmd := &cobra.Command{
		Use:   "query SQL",
		Short: queryShortDesc,
		Long:  queryLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, args[0], jsonFlag)
		},
	}

	cmd.Flags().BoolVar(&jsonFlag, "json", false, "Print the structured outcome as JSON")

	return cmd
}

func runQuery(cmd *cobra.Command, statement string, asJSON bool) error {
	rt, err := app.Load(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	exec, err := sqlexec.Open(rt.Config.DBPath, rt.Logger)
	if err != nil {
		return err
	}
	defer exec.Close()

	result, err := exec.Execute(cmd.Context(), statement)
	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(sqlexec.ToOutcome(result, err))
	}

	if err != nil {
		return err
	}

	if !result.IsQuery {
		fmt.Fprintf(out, "OK, %d row(s) affected\n", result.RowsAffected)
		return nil
	}

	renderRows(out, result)
	return nil
}

func renderRows(out io.Writer, result *sqlexec.Result) {
	if len(result.Rows) == 0 {
		fmt.Fprintln(out, text.FgYellow.Sprint("No rows"))
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(out)
	t.SetStyle(table.StyleRounded)

	header := make(table.Row, 0, len(result.Columns))
	for _, col := range result.Columns {
		header = append(header, col)
	}
	t.AppendHeader(header)

	for _, row := range result.Rows {
		r := make(table.Row, 0, len(result.Columns))
		for _, col := range result.Columns {
			v := row[col]
			if v == nil {
				v = "NULL"
			}
			r = append(r, v)
		}
		t.AppendRow(r)
	}

	t.Render()
	fmt.Fprintf(out, "%d row(s)\n", len(result.Rows))
}
