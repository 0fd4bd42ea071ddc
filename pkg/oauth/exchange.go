// Package oauth implements the one-time LinkedIn authorization-code setup: a
// single-shot local callback listener, the code-for-token exchange, and the
// userinfo lookup that derives the member URN.
package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/oauth2"
)

const (
	DefaultAuthorizeURL = "https://www.linkedin.com/oauth/v2/authorization"
	//nolint:gosec // OAuth endpoint URL, not a credential.
	DefaultTokenURL     = "https://www.linkedin.com/oauth/v2/accessToken"
	DefaultUserInfoURL  = "https://api.linkedin.com/v2/userinfo"
	DefaultRedirectURI  = "http://localhost:8000/callback"
	DefaultURNNamespace = "li"

	defaultTimeout = 2 * time.Minute
)

// DefaultScopes must match the scopes granted to the LinkedIn app.
var DefaultScopes = []string{"openid", "profile", "w_member_social"}

// Config configures the exchanger.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	Scopes       []string

	AuthorizeURL string
	TokenURL     string
	UserInfoURL  string
	URNNamespace string
}

// ExchangeRejectedError is a non-success response from the token or userinfo
// endpoint. It carries the vendor body and is never retried.
type ExchangeRejectedError struct {
	Step       string
	StatusCode int
	Body       string
}

func (e *ExchangeRejectedError) Error() string {
	return fmt.Sprintf("oauth %s rejected (%d): %s", e.Step, e.StatusCode, e.Body)
}

// Exchanger turns an authorization code into a bearer token and a member URN.
type Exchanger struct {
	cfg        Config
	oauth      *oauth2.Config
	httpClient *http.Client
}

// NewExchanger validates cfg and fills in LinkedIn defaults.
func NewExchanger(cfg Config, httpClient *http.Client) (*Exchanger, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, errors.New("client id and client secret are required")
	}
	if cfg.RedirectURI == "" {
		cfg.RedirectURI = DefaultRedirectURI
	}
	if len(cfg.Scopes) == 0 {
		cfg.Scopes = DefaultScopes
	}
	if cfg.AuthorizeURL == "" {
		cfg.AuthorizeURL = DefaultAuthorizeURL
	}
	if cfg.TokenURL == "" {
		cfg.TokenURL = DefaultTokenURL
	}
	if cfg.UserInfoURL == "" {
		cfg.UserInfoURL = DefaultUserInfoURL
	}
	if cfg.URNNamespace == "" {
		cfg.URNNamespace = DefaultURNNamespace
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}

	return &Exchanger{
		cfg: cfg,
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.Scopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizeURL,
				TokenURL: cfg.TokenURL,
				// LinkedIn expects client credentials in the form body.
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		httpClient: httpClient,
	}, nil
}

// RedirectURI returns the redirect URI the exchange is bound to.
func (e *Exchanger) RedirectURI() string {
	return e.cfg.RedirectURI
}

// AuthCodeURL builds the browser authorization URL.
func (e *Exchanger) AuthCodeURL(state string) string {
	return e.oauth.AuthCodeURL(state)
}

// Exchange posts the code to the token endpoint with
// grant_type=authorization_code. Codes are single use; a replayed code is
// rejected by the vendor and surfaces as an ExchangeRejectedError.
func (e *Exchanger) Exchange(ctx context.Context, code string) (*oauth2.Token, error) {
	if strings.TrimSpace(code) == "" {
		return nil, ErrMissingCode
	}

	ctx = context.WithValue(ctx, oauth2.HTTPClient, e.httpClient)
	tok, err := e.oauth.Exchange(ctx, code)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.Response != nil {
			return nil, &ExchangeRejectedError{
				Step:       "token exchange",
				StatusCode: retrieveErr.Response.StatusCode,
				Body:       strings.TrimSpace(string(retrieveErr.Body)),
			}
		}
		return nil, fmt.Errorf("requesting oauth token: %w", err)
	}

	return tok, nil
}

type userInfoResponse struct {
	Sub string `json:"sub"`
}

// ResolveIdentity fetches the OIDC userinfo subject for accessToken and
// formats it as urn:<namespace>:person:<sub>.
func (e *Exchanger) ResolveIdentity(ctx context.Context, accessToken string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.cfg.UserInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("creating userinfo request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting userinfo: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading userinfo response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", &ExchangeRejectedError{
			Step:       "userinfo",
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	var parsed userInfoResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("parsing userinfo response: %w", err)
	}
	if parsed.Sub == "" {
		return "", errors.New("userinfo response missing sub")
	}

	return fmt.Sprintf("urn:%s:person:%s", e.cfg.URNNamespace, parsed.Sub), nil
}
