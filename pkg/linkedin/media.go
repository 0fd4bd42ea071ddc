package linkedin

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/papercomputeco/linkpost/pkg/apierr"
	"github.com/papercomputeco/linkpost/pkg/credentials"
)

const fallbackContentType = "application/octet-stream"

// mediaKind selects the asset recipe and the post media category.
type mediaKind int

const (
	mediaImage mediaKind = iota
	mediaVideo
)

func (k mediaKind) recipe() string {
	if k == mediaVideo {
		return "urn:li:digitalmediaRecipe:feedshare-video"
	}
	return "urn:li:digitalmediaRecipe:feedshare-image"
}

func (k mediaKind) category() string {
	if k == mediaVideo {
		return "VIDEO"
	}
	return "IMAGE"
}

// resolveMedia maps a caller path to an existing regular file. Relative paths
// are joined with the media folder.
func (c *Client) resolveMedia(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", apierr.Preconditionf("media path is required")
	}

	resolved, err := credentials.ExpandHome(trimmed)
	if err != nil {
		return "", apierr.Preconditionf("file not found: %s", trimmed)
	}
	if !filepath.IsAbs(resolved) && c.folderPath != "" {
		resolved = filepath.Join(c.folderPath, resolved)
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return "", apierr.Preconditionf("file not found: %s", resolved)
	}
	return resolved, nil
}

// contentTypeFor guesses from the extension first, then from the bytes.
func contentTypeFor(path string, data []byte) string {
	if byExt := mime.TypeByExtension(strings.ToLower(filepath.Ext(path))); byExt != "" {
		return byExt
	}
	if len(data) > 0 {
		if detected := mimetype.Detect(data); detected != nil && detected.String() != "" {
			return detected.String()
		}
	}
	return fallbackContentType
}
