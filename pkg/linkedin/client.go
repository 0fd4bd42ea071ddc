// Package linkedin publishes text, image and video posts through the
// LinkedIn REST API (ugcPosts and assets).
package linkedin

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"

	"github.com/papercomputeco/linkpost/pkg/apierr"
	"github.com/papercomputeco/linkpost/pkg/publisher"
)

const (
	DefaultAPIBase = "https://api.linkedin.com/v2"

	feedURLPrefix   = "https://www.linkedin.com/feed/update/"
	restliProtocol  = "2.0.0"
	restliIDHeader  = "X-RestLi-Id"
	serviceName     = "linkedin"
	defaultTimeout  = 30 * time.Second
	maxResponseBody = 1 << 20
)

// Options configures a Client.
type Options struct {
	// APIBase defaults to DefaultAPIBase.
	APIBase string

	// FolderPath is the directory relative media paths are resolved against.
	FolderPath string

	Timeout time.Duration

	// Transport is the base round tripper under the bearer-token transport.
	Transport http.RoundTripper

	Logger    *zap.Logger
	Publisher publisher.Publisher
}

// Client talks to LinkedIn on behalf of one member.
type Client struct {
	apiBase    string
	folderPath string
	httpClient *http.Client
	logger     *zap.Logger
	publisher  publisher.Publisher
}

// NewClient creates a Client that authenticates every request, uploads
// included, with a bearer token from tokens.
func NewClient(tokens oauth2.TokenSource, opts Options) *Client {
	apiBase := strings.TrimRight(opts.APIBase, "/")
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	pub := opts.Publisher
	if pub == nil {
		pub = publisher.NewNopPublisher()
	}

	return &Client{
		apiBase:    apiBase,
		folderPath: opts.FolderPath,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &oauth2.Transport{
				Source: tokens,
				Base:   opts.Transport,
			},
		},
		logger:    logger,
		publisher: pub,
	}
}

// PostURL returns the public feed URL for a post identifier.
func PostURL(postURN string) string {
	return feedURLPrefix + postURN
}

// doJSON sends payload to path on the API and decodes a 2xx response into
// out when out is non-nil.
func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) (*http.Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encoding %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.apiBase+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Restli-Protocol-Version", restliProtocol)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending %s request: %w", path, err)
	}
	defer resp.Body.Close()

	if err := apierr.CheckResponse(serviceName, resp); err != nil {
		return nil, err
	}

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBody))
	if err != nil {
		return nil, fmt.Errorf("reading %s response: %w", path, err)
	}
	if out != nil && len(bytes.TrimSpace(raw)) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return nil, fmt.Errorf("decoding %s response: %w", path, err)
		}
	}

	return resp, nil
}
