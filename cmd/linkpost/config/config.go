// Package configcmder provides the config command for editing the credential
// file without opening it in an editor.
package configcmder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/papercomputeco/linkpost/pkg/credentials"
)

const configLongDesc string = `Read and write keys in the credential file.

Values are read from a hidden prompt, or from stdin when it is piped, so
secrets never appear in shell history. The key is rewritten in place; every
other line of the file is preserved.

Examples:
  linkpost config set CLIENT_SECRET            Prompt for the client secret
  echo $KEY | linkpost config set BRAVE_API_KEY
  linkpost config list                         Show stored keys, secrets masked`

const configShortDesc string = "Manage the credential file"

func NewConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: configShortDesc,
		Long:  configLongDesc,
	}

	cmd.AddCommand(newSetCmd())
	cmd.AddCommand(newListCmd())

	return cmd
}

func newSetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set KEY",
		Short: "Store a value for KEY",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := managerFor(cmd)
			if err != nil {
				return err
			}

			key := strings.TrimSpace(args[0])
			value, err := readValue(cmd, key)
			if err != nil {
				return err
			}

			value = strings.TrimSpace(value)
			if value == "" {
				return errors.New("value cannot be empty")
			}

			if err := mgr.Set(key, value); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Stored %s in %s\n", key, mgr.GetTarget())
			return nil
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored keys",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mgr, err := managerFor(cmd)
			if err != nil {
				return err
			}

			values, err := mgr.Values()
			if err != nil {
				return err
			}
			keys, err := mgr.ListKeys()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintf(out, "No keys stored in %s.\n", mgr.GetTarget())
				fmt.Fprintln(out, "\nUse 'linkpost config set KEY' to add one.")
				return nil
			}

			fmt.Fprintf(out, "Keys in %s:\n", mgr.GetTarget())
			for _, k := range keys {
				fmt.Fprintf(out, "  %s=%s\n", k, displayValue(k, values[k]))
			}
			return nil
		},
	}
}

func managerFor(cmd *cobra.Command) (*credentials.Manager, error) {
	envFile, _ := cmd.Flags().GetString("env-file")
	mgr, err := credentials.NewManager(envFile)
	if err != nil {
		return nil, fmt.Errorf("loading credentials: %w", err)
	}
	return mgr, nil
}

func isSecret(key string) bool {
	upper := strings.ToUpper(key)
	return strings.Contains(upper, "SECRET") ||
		strings.Contains(upper, "TOKEN") ||
		strings.HasSuffix(upper, "_KEY") ||
		strings.Contains(upper, "PASSWORD")
}

func displayValue(key, value string) string {
	if !isSecret(key) {
		return value
	}
	return maskValue(value)
}

// maskValue keeps a short prefix so different keys stay distinguishable.
func maskValue(value string) string {
	if len(value) <= 8 {
		return strings.Repeat("*", len(value))
	}
	return value[:4] + strings.Repeat("*", 8)
}

// readValue reads the first line of piped input, or prompts with hidden
// input when stdin is a terminal.
func readValue(cmd *cobra.Command, key string) (string, error) {
	in := cmd.InOrStdin()

	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprintf(cmd.ErrOrStderr(), "Enter value for %s: ", key)
		valueBytes, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", fmt.Errorf("reading value: %w", err)
		}
		return string(valueBytes), nil
	}

	return readLine(in)
}

func readLine(in io.Reader) (string, error) {
	scanner := bufio.NewScanner(in)
	if scanner.Scan() {
		return scanner.Text(), nil
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("reading stdin: %w", err)
	}
	return "", errors.New("no input received on stdin")
}
