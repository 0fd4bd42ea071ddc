// Package authcmder provides the auth command that runs the LinkedIn OAuth
// setup and stores the resulting access token and author URN.
package authcmder

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/pkg/browser"
	"github.com/spf13/cobra"

	"github.com/papercomputeco/linkpost/pkg/apierr"
	"github.com/papercomputeco/linkpost/pkg/app"
	"github.com/papercomputeco/linkpost/pkg/oauth"
)

const authLongDesc string = `Authorize linkpost to post on your behalf.

Reads CLIENT_ID, CLIENT_SECRET and REDIRECT_URI from the credential file,
opens the LinkedIn consent page in your browser and waits for the redirect
on the host and port of REDIRECT_URI. The authorization code is exchanged
for an access token, the member URN is looked up, and ACCESS_TOKEN and
AUTHOR_URN are written back to the credential file. Every other line of
the file is left untouched.

The token is not refreshed. Run this command again when LinkedIn starts
rejecting it.

Examples:
  linkpost auth                        Authorize using ./.env
  linkpost auth --env-file ~/li.env    Authorize using another file
  linkpost auth --no-browser           Print the URL instead of opening it`

const authShortDesc string = "Authorize linkpost with LinkedIn"

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
)

// openBrowserFn is replaced in tests.
var openBrowserFn = browser.OpenURL

func NewAuthCmd() *cobra.Command {
	var noBrowserFlag bool

	cmd := &cobra.Command{
		Use:   "auth",
		Short: authShortDesc,
		Long:  authLongDesc,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runAuth(cmd, noBrowserFlag)
		},
	}

	cmd.Flags().BoolVar(&noBrowserFlag, "no-browser", false, "Print the authorization URL without opening a browser")

	return cmd
}

func runAuth(cmd *cobra.Command, noBrowser bool) error {
	rt, err := app.Load(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	rec, err := rt.Credentials.LoadPartial()
	if err != nil {
		return err
	}

	var missing []string
	if rec.ClientID == "" {
		missing = append(missing, "CLIENT_ID")
	}
	if rec.ClientSecret == "" {
		missing = append(missing, "CLIENT_SECRET")
	}
	if len(missing) > 0 {
		return apierr.Preconditionf("missing %s in %s (set with 'linkpost config set')",
			strings.Join(missing, ", "), rt.Credentials.GetTarget())
	}

	exchanger, err := oauth.NewExchanger(oauth.Config{
		ClientID:     rec.ClientID,
		ClientSecret: rec.ClientSecret,
		RedirectURI:  rec.RedirectURI,
		AuthorizeURL: rt.Config.LinkedInAuthURL,
		TokenURL:     rt.Config.LinkedInTokenURL,
		UserInfoURL:  rt.Config.LinkedInUserInfoURL,
	}, &http.Client{Timeout: rt.Config.HTTPTimeout})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond, spinner.WithWriter(cmd.ErrOrStderr()))

	flow := &oauth.Flow{
		Exchanger: exchanger,
		Store:     rt.Credentials,
		Timeout:   rt.Config.OAuthTimeout,
		Out:       out,
		Logger:    rt.Logger,
		Progress:  spinnerProgress(s),
	}
	if !noBrowser {
		flow.OpenBrowser = openBrowserFn
	}

	result, err := flow.Run(cmd.Context())
	s.Stop()
	if err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), errorStyle.Render("Authorization failed"))
		var rejected *oauth.ExchangeRejectedError
		if errors.As(err, &rejected) {
			return fmt.Errorf("linkedin rejected the request: %w", err)
		}
		return err
	}

	fmt.Fprintln(out, successStyle.Render("Authorization complete"))
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Author:     "), result.AuthorURN)
	fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Saved to:   "), rt.Credentials.GetTarget())
	if !result.ExpiresAt.IsZero() {
		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Expires:    "), result.ExpiresAt.Local().Format(time.RFC1123))
	}

	return nil
}

// spinnerProgress reports each stage on s. Suffix is read by the spinner's
// render loop, so writes hold its lock.
func spinnerProgress(s *spinner.Spinner) func(oauth.Stage) {
	return func(stage oauth.Stage) {
		s.Lock()
		s.Suffix = stageSuffix(stage)
		s.Unlock()
		if !s.Active() {
			s.Start()
		}
	}
}

func stageSuffix(stage oauth.Stage) string {
	name := stage.String()
	return " " + strings.ToUpper(name[:1]) + name[1:] + "..."
}
