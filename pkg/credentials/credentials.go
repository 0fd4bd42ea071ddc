// Package credentials reads and rewrites the KEY=VALUE credential file that
// holds the LinkedIn client configuration, the OAuth-derived access token and
// author URN, and the other vendor API keys.
package credentials

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/subosito/gotenv"

	"github.com/papercomputeco/linkpost/pkg/apierr"
)

// DefaultFile is used when no credential file path is given.
const DefaultFile = ".env"

var keyPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Manager manages reading and writing one credential file.
type Manager struct {
	targetPath string
}

// NewManager creates a Manager for path. An empty path resolves to .env in
// the working directory; a leading ~ is expanded.
func NewManager(path string) (*Manager, error) {
	if strings.TrimSpace(path) == "" {
		path = DefaultFile
	}

	expanded, err := ExpandHome(path)
	if err != nil {
		return nil, err
	}

	abs, err := filepath.Abs(expanded)
	if err != nil {
		return nil, fmt.Errorf("resolving credentials path: %w", err)
	}

	return &Manager{targetPath: abs}, nil
}

// Values parses every KEY=VALUE pair in the file.
// Returns an empty map if the file does not exist.
func (m *Manager) Values() (map[string]string, error) {
	data, err := os.ReadFile(m.targetPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("reading credentials: %w", err)
	}

	env, err := gotenv.StrictParse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing credentials: %w", err)
	}

	return env, nil
}

// Load reads the credential record and fails if any required key is absent.
// The check happens once here; callers do not re-validate per request.
func (m *Manager) Load() (*Record, error) {
	rec, err := m.LoadPartial()
	if err != nil {
		return nil, err
	}

	if missing := rec.Missing(); len(missing) > 0 {
		return nil, apierr.Preconditionf("missing credentials in %s: %s (run 'linkpost auth' to obtain a token)",
			m.targetPath, strings.Join(missing, ", "))
	}

	return rec, nil
}

// LoadPartial reads the credential record without enforcing required keys.
// The OAuth setup flow uses it before a token exists.
func (m *Manager) LoadPartial() (*Record, error) {
	values, err := m.Values()
	if err != nil {
		return nil, err
	}

	rec := recordFromValues(values)
	return &rec, nil
}

// Update rewrites ACCESS_TOKEN and AUTHOR_URN in place. All other lines are
// kept verbatim and in order; absent keys are appended. Applying the same
// values twice yields byte-identical content.
func (m *Manager) Update(accessToken, authorURN string) error {
	if accessToken == "" {
		return errors.New("access token cannot be empty")
	}
	if authorURN == "" {
		return errors.New("author urn cannot be empty")
	}

	return m.rewrite([][2]string{
		{KeyAccessToken, accessToken},
		{KeyAuthorURN, authorURN},
	})
}

// Set rewrites a single key in place with the same rules as Update.
func (m *Manager) Set(key, value string) error {
	if !keyPattern.MatchString(key) {
		return fmt.Errorf("invalid credential key %q", key)
	}
	if strings.ContainsAny(value, "\r\n") {
		return errors.New("credential value cannot contain newlines")
	}

	return m.rewrite([][2]string{{key, value}})
}

// ListKeys returns the keys present in the file, sorted.
func (m *Manager) ListKeys() ([]string, error) {
	values, err := m.Values()
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	return keys, nil
}

// GetTarget returns the resolved path to the credentials file.
func (m *Manager) GetTarget() string {
	return m.targetPath
}

func (m *Manager) rewrite(pairs [][2]string) error {
	data, err := os.ReadFile(m.targetPath)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading credentials: %w", err)
	}

	out := rewriteLines(string(data), pairs)

	if err := os.WriteFile(m.targetPath, []byte(out), 0o600); err != nil {
		return fmt.Errorf("writing credentials: %w", err)
	}

	return nil
}

// assignmentLine matches the key of a line in any form gotenv parses:
// optional indent and "export", then "KEY=", "KEY = " or "KEY: ".
var assignmentLine = regexp.MustCompile(`^(\s*(?:export\s+)?)([\w.]+)(?:\s*=|:\s)`)

// rewriteLines replaces every assignment line for the given pairs and
// appends pairs that were not seen. The indent, any "export" prefix and the
// line ending of a replaced line are preserved.
func rewriteLines(content string, pairs [][2]string) string {
	seen := make([]bool, len(pairs))

	var b strings.Builder
	for _, line := range strings.SplitAfter(content, "\n") {
		if line == "" {
			continue
		}

		body := strings.TrimRight(line, "\r\n")
		ending := line[len(body):]

		replaced := false
		if m := assignmentLine.FindStringSubmatch(body); m != nil {
			for i, p := range pairs {
				if m[2] == p[0] {
					b.WriteString(m[1] + p[0] + "=" + p[1] + ending)
					seen[i] = true
					replaced = true
					break
				}
			}
		}
		if !replaced {
			b.WriteString(line)
		}
	}

	out := b.String()
	for i, p := range pairs {
		if seen[i] {
			continue
		}
		if out != "" && !strings.HasSuffix(out, "\n") {
			out += "\n"
		}
		out += p[0] + "=" + p[1] + "\n"
	}

	return out
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home dir: %w", err)
	}

	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}
