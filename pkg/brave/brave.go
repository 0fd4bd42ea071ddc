// Package brave queries the Brave web search API and reduces the response to
// title and description pairs.
package brave

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-querystring/query"
	"go.uber.org/zap"

	"github.com/papercomputeco/linkpost/pkg/apierr"
)

const (
	DefaultSearchURL = "https://api.search.brave.com/res/v1/web/search"
	DefaultCount     = 5
	DefaultLang      = "en"

	serviceName = "brave"
)

// Result is one reduced search hit.
type Result struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type searchParams struct {
	Query      string `url:"q"`
	Count      int    `url:"count"`
	SearchLang string `url:"search_lang"`
}

type searchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Client is a Brave search client bound to one API key.
type Client struct {
	apiKey     string
	searchURL  string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a Client. An empty searchURL uses DefaultSearchURL.
func NewClient(apiKey, searchURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		apiKey:     apiKey,
		searchURL:  searchURL,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Search runs a web search. Non-positive count and empty lang use the
// defaults.
func (c *Client) Search(ctx context.Context, q string, count int, lang string) ([]Result, error) {
	if strings.TrimSpace(q) == "" {
		return nil, apierr.Preconditionf("query is required")
	}
	if c.apiKey == "" {
		return nil, apierr.Preconditionf("BRAVE_API_KEY is not configured")
	}
	if count <= 0 {
		count = DefaultCount
	}
	if lang == "" {
		lang = DefaultLang
	}

	values, err := query.Values(searchParams{Query: q, Count: count, SearchLang: lang})
	if err != nil {
		return nil, fmt.Errorf("encoding search parameters: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.searchURL+"?"+values.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending search request: %w", err)
	}
	defer resp.Body.Close()

	if err := apierr.CheckResponse(serviceName, resp); err != nil {
		return nil, err
	}

	var parsed searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	results := make([]Result, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		title := strings.TrimSpace(r.Title)
		desc := strings.TrimSpace(r.Description)
		if title == "" && desc == "" {
			continue
		}
		results = append(results, Result{Title: title, Description: desc})
	}

	c.logger.Debug("web search complete",
		zap.Int("returned", len(parsed.Web.Results)),
		zap.Int("kept", len(results)),
	)
	return results, nil
}
