// Package websearch provides a Tavily search API client.
package websearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ragbot/ragbot/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL    = "https://api.tavily.com"
	DefaultMaxResults = 5
	DefaultTimeout    = 30 * time.Second
)

// Config holds configuration for the Tavily client.
type Config struct {
	// APIKey is the Tavily API key (required).
	APIKey string

	// BaseURL is the API base URL (default: https://api.tavily.com).
	BaseURL string

	// Timeout is the request timeout (default: 30s).
	Timeout time.Duration
}

// Client performs web searches against the Tavily API.
type Client struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// searchRequest is the Tavily /search request format.
type searchRequest struct {
	APIKey            string `json:"api_key"`
	Query             string `json:"query"`
	SearchDepth       string `json:"search_depth"`
	MaxResults        int    `json:"max_results"`
	IncludeAnswer     bool   `json:"include_answer"`
	IncludeRawContent bool   `json:"include_raw_content"`
}

// searchResponse is the Tavily /search response format.
type searchResponse struct {
	Results []struct {
		Title   string  `json:"title"`
		URL     string  `json:"url"`
		Content string  `json:"content"`
		Score   float32 `json:"score"`
	} `json:"results"`
}

// NewClient creates a new Tavily client.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("websearch: API key is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	return &Client{
		client: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
	}, nil
}

// Search runs a basic-depth web search and returns at most maxResults results.
func (c *Client) Search(ctx context.Context, query string, maxResults int) ([]domain.WebResult, error) {
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}

	reqBody := searchRequest{
		APIKey:      c.apiKey,
		Query:       query,
		SearchDepth: "basic",
		MaxResults:  maxResults,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(
		ctx,
		http.MethodPost,
		c.baseURL+"/search",
		bytes.NewReader(jsonBody),
	)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("web search failed (status %d): %s", resp.StatusCode, string(body))
	}

	var searchResp searchResponse
	if err := json.Unmarshal(body, &searchResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	results := make([]domain.WebResult, 0, len(searchResp.Results))
	for _, r := range searchResp.Results {
		results = append(results, domain.WebResult{
			Title:   r.Title,
			Content: r.Content,
			URL:     r.URL,
			Score:   r.Score,
		})
	}
	return results, nil
}
