package oauth

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
)

// Stage identifies a step of the setup flow for progress reporting.
type Stage int

const (
	StageWaiting Stage = iota
	StageExchanging
	StageResolving
	StageSaving
)

func (s Stage) String() string {
	switch s {
	case StageWaiting:
		return "waiting for browser authorization"
	case StageExchanging:
		return "exchanging code for access token"
	case StageResolving:
		return "resolving member identity"
	case StageSaving:
		return "saving credentials"
	default:
		return "unknown"
	}
}

// CredentialWriter persists the OAuth-derived credential fields.
type CredentialWriter interface {
	Update(accessToken, authorURN string) error
}

// Result is the outcome of a successful setup run.
type Result struct {
	AccessToken string
	AuthorURN   string
	// ExpiresAt is informational only; expiry is not tracked afterwards.
	ExpiresAt time.Time
}

// Flow runs the setup procedure once: bind, open browser, wait for the
// redirect, exchange, resolve identity, persist. There is no retry; any
// failure ends the run.
type Flow struct {
	Exchanger   *Exchanger
	Store       CredentialWriter
	OpenBrowser func(url string) error
	Timeout     time.Duration
	Out         io.Writer
	Logger      *zap.Logger
	Progress    func(Stage)
}

// Run executes the flow.
func (f *Flow) Run(ctx context.Context) (*Result, error) {
	if f.Exchanger == nil {
		return nil, errors.New("exchanger is required")
	}
	if f.Store == nil {
		return nil, errors.New("credential store is required")
	}
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	out := f.Out
	if out == nil {
		out = io.Discard
	}
	progress := f.Progress
	if progress == nil {
		progress = func(Stage) {}
	}

	state, err := randomURLSafeString(32)
	if err != nil {
		return nil, fmt.Errorf("generating oauth state: %w", err)
	}

	listener, err := NewListener(f.Exchanger.RedirectURI(), state, f.Timeout)
	if err != nil {
		return nil, err
	}
	if err := listener.Listen(ctx); err != nil {
		return nil, err
	}
	defer func() { _ = listener.Close() }()

	authURL := f.Exchanger.AuthCodeURL(state)
	fmt.Fprintln(out, "Open this URL in your browser to authorize LinkedIn:")
	fmt.Fprintln(out, authURL)
	fmt.Fprintln(out)

	if f.OpenBrowser != nil {
		if err := f.OpenBrowser(authURL); err != nil {
			return nil, fmt.Errorf("opening browser: %w", err)
		}
	}

	logger.Debug("waiting for oauth callback", zap.String("addr", listener.Addr()))
	progress(StageWaiting)
	code, err := listener.Wait(ctx)
	if err != nil {
		return nil, err
	}

	progress(StageExchanging)
	token, err := f.Exchanger.Exchange(ctx, code)
	if err != nil {
		return nil, err
	}

	progress(StageResolving)
	urn, err := f.Exchanger.ResolveIdentity(ctx, token.AccessToken)
	if err != nil {
		return nil, err
	}

	progress(StageSaving)
	if err := f.Store.Update(token.AccessToken, urn); err != nil {
		return nil, fmt.Errorf("saving credentials: %w", err)
	}

	logger.Info("oauth setup complete", zap.String("author_urn", urn))

	return &Result{
		AccessToken: token.AccessToken,
		AuthorURN:   urn,
		ExpiresAt:   token.Expiry,
	}, nil
}

func randomURLSafeString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
