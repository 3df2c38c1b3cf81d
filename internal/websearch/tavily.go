// Package websearch answers free-form questions against live web content
// through the Tavily search API.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.tavily.com"

// TavilyConfig configures the Tavily search client.
type TavilyConfig struct {
	APIKey     string
	BaseURL    string
	MaxResults int
	Timeout    time.Duration
}

// Tavily runs web searches through Tavily's search endpoint.
type Tavily struct {
	apiKey     string
	baseURL    string
	maxResults int
	client     *http.Client
}

// NewTavily creates a new Tavily search client. Zero-valued config fields
// get defaults.
func NewTavily(cfg TavilyConfig) (*Tavily, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("tavily API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.MaxResults == 0 {
		cfg.MaxResults = 5
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Tavily{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		maxResults: cfg.MaxResults,
		client:     &http.Client{Timeout: cfg.Timeout},
	}, nil
}

type searchRequest struct {
	APIKey        string `json:"api_key"`
	Query         string `json:"query"`
	SearchDepth   string `json:"search_depth,omitempty"`
	IncludeAnswer bool   `json:"include_answer"`
	MaxResults    int    `json:"max_results"`
}

type searchResponse struct {
	Answer  string `json:"answer"`
	Results []struct {
		Title   string `json:"title"`
		URL     string `json:"url"`
		Content string `json:"content"`
	} `json:"results"`
}

// Search runs the query and returns a readable summary. The direct answer
// is preferred when the API provides one, otherwise the top result
// snippets are joined.
func (t *Tavily) Search(ctx context.Context, query string) (string, error) {
	body, err := json.Marshal(searchRequest{
		APIKey:        t.apiKey,
		Query:         query,
		SearchDepth:   "basic",
		IncludeAnswer: true,
		MaxResults:    t.maxResults,
	})
	if err != nil {
		return "", fmt.Errorf("failed to build search request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := t.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("search request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read search response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("search API error: status %d: %s", resp.StatusCode, respBody)
	}

	var parsed searchResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse search response: %w", err)
	}

	if parsed.Answer != "" {
		return parsed.Answer, nil
	}
	if len(parsed.Results) == 0 {
		return "", fmt.Errorf("search returned no results for %q", query)
	}

	var out strings.Builder
	for i, r := range parsed.Results {
		if i > 0 {
			out.WriteString("\n\n")
		}
		fmt.Fprintf(&out, "%s (%s)\n%s", r.Title, r.URL, r.Content)
	}
	return out.String(), nil
}
