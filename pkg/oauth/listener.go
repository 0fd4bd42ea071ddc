package oauth

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// ErrMissingCode is returned when the redirect arrives without a code.
var ErrMissingCode = errors.New("oauth callback did not include an authorization code")

const callbackSuccessBody = "<h2>Authorization complete. You can close this window.</h2>"

type callbackResult struct {
	code string
	err  error
}

// Listener captures exactly one authorization redirect on the host, port and
// path of the redirect URI.
type Listener struct {
	addr     string
	path     string
	state    string
	timeout  time.Duration
	listener net.Listener
}

// NewListener prepares a listener for redirectURI. When state is non-empty
// the callback must echo it back. A non-positive timeout uses the default.
func NewListener(redirectURI, state string, timeout time.Duration) (*Listener, error) {
	u, err := url.Parse(redirectURI)
	if err != nil {
		return nil, fmt.Errorf("invalid redirect uri: %w", err)
	}
	if u.Scheme != "http" {
		return nil, fmt.Errorf("redirect uri must use http for a local listener, got %q", u.Scheme)
	}

	host := u.Host
	if u.Port() == "" {
		host = net.JoinHostPort(u.Hostname(), "80")
	}

	path := u.Path
	if path == "" {
		path = "/"
	}

	if timeout <= 0 {
		timeout = defaultTimeout
	}

	return &Listener{
		addr:    host,
		path:    path,
		state:   state,
		timeout: timeout,
	}, nil
}

// Listen binds the local address. Failing to bind is a fatal setup error.
func (l *Listener) Listen(ctx context.Context) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", l.addr)
	if err != nil {
		return fmt.Errorf("starting oauth callback listener on %s: %w", l.addr, err)
	}
	l.listener = ln
	return nil
}

// Addr returns the bound address, or the configured one before Listen.
func (l *Listener) Addr() string {
	if l.listener != nil {
		return l.listener.Addr().String()
	}
	return l.addr
}

// Close releases the socket if Wait was never called.
func (l *Listener) Close() error {
	if l.listener == nil {
		return nil
	}
	return l.listener.Close()
}

// Wait serves until one request reaches the callback path, then stops. A
// request with a code gets 200 and the code is returned; anything else gets
// 400 with an empty body and an error. Requests to other paths are ignored.
func (l *Listener) Wait(ctx context.Context) (string, error) {
	if l.listener == nil {
		if err := l.Listen(ctx); err != nil {
			return "", err
		}
	}

	resultCh := make(chan callbackResult, 1)
	serveErrCh := make(chan error, 1)
	var callbackOnce sync.Once

	mux := http.NewServeMux()
	mux.HandleFunc(l.path, func(w http.ResponseWriter, r *http.Request) {
		handled := false
		callbackOnce.Do(func() {
			handled = true

			result := l.parseCallback(r)
			if result.err != nil {
				w.WriteHeader(http.StatusBadRequest)
			} else {
				w.Header().Set("Content-Type", "text/html; charset=utf-8")
				w.WriteHeader(http.StatusOK)
				_, _ = w.Write([]byte(callbackSuccessBody))
			}

			resultCh <- result
		})

		if !handled {
			w.WriteHeader(http.StatusGone)
		}
	})

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	// Serve may not have started by the time Wait returns, so the socket is
	// owned by this call and closed here as well as by Shutdown.
	ln := l.listener
	l.listener = nil

	go func() {
		if serveErr := server.Serve(ln); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			serveErrCh <- serveErr
		}
	}()

	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
		_ = ln.Close()
	}()

	timeout := time.NewTimer(l.timeout)
	defer timeout.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case serveErr := <-serveErrCh:
		return "", fmt.Errorf("oauth callback server failed: %w", serveErr)
	case <-timeout.C:
		return "", errors.New("timed out waiting for oauth callback")
	case result := <-resultCh:
		return result.code, result.err
	}
}

func (l *Listener) parseCallback(r *http.Request) callbackResult {
	q := r.URL.Query()

	if errCode := strings.TrimSpace(q.Get("error")); errCode != "" {
		if desc := strings.TrimSpace(q.Get("error_description")); desc != "" {
			return callbackResult{err: fmt.Errorf("oauth callback error: %s (%s)", errCode, desc)}
		}
		return callbackResult{err: errors.New("oauth callback error: " + errCode)}
	}

	code := strings.TrimSpace(q.Get("code"))
	if code == "" {
		return callbackResult{err: ErrMissingCode}
	}

	if l.state != "" && q.Get("state") != l.state {
		return callbackResult{err: errors.New("oauth state mismatch")}
	}

	return callbackResult{code: code}
}
