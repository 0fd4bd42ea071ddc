package credentials

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

// Live holds the credential record used by a running server. Without Watch it
// is read-only after construction. Watch swaps in the token and author URN
// written by a concurrent `linkpost auth` run.
type Live struct {
	mu  sync.RWMutex
	rec Record
}

// Ensure interface compatibility.
var _ oauth2.TokenSource = (*Live)(nil)

// NewLive wraps an already validated record.
func NewLive(rec Record) *Live {
	return &Live{rec: rec}
}

// Snapshot returns a copy of the current record.
func (l *Live) Snapshot() Record {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.rec
}

// AuthorURN returns the current author URN.
func (l *Live) AuthorURN() string {
	return l.Snapshot().AuthorURN
}

// Token implements oauth2.TokenSource with the stored bearer token. Expiry is
// not tracked; the token is valid until the vendor rejects it.
func (l *Live) Token() (*oauth2.Token, error) {
	rec := l.Snapshot()
	if rec.AccessToken == "" {
		return nil, errors.New("no access token configured")
	}
	return &oauth2.Token{AccessToken: rec.AccessToken, TokenType: "Bearer"}, nil
}

func (l *Live) replace(rec Record) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	changed := l.rec != rec
	l.rec = rec
	return changed
}

// Reload re-reads the file through mgr. An invalid file leaves the current
// record untouched.
func (l *Live) Reload(mgr *Manager) (bool, error) {
	rec, err := mgr.Load()
	if err != nil {
		return false, err
	}
	return l.replace(*rec), nil
}

// Watch blocks until ctx is done, reloading on every write to the file
// managed by mgr. The parent directory is watched so editors that replace
// the file by rename are handled.
func (l *Live) Watch(ctx context.Context, mgr *Manager, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating credentials watcher: %w", err)
	}
	defer watcher.Close()

	target := mgr.GetTarget()
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watching %s: %w", filepath.Dir(target), err)
	}

	logger.Info("watching credentials", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}

			changed, err := l.Reload(mgr)
			if err != nil {
				logger.Warn("ignoring credentials change", zap.Error(err))
				continue
			}
			if changed {
				logger.Info("credentials reloaded", zap.String("author_urn", l.AuthorURN()))
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			logger.Error("credentials watcher error", zap.Error(err))
		}
	}
}
