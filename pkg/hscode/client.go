// Package hscode provides the public Go client for the classification API.
package hscode

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Client is the public API client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// ClientConfig holds client configuration.
type ClientConfig struct {
	BaseURL    string        // Default: http://localhost:8080
	APIKey     string        // Optional; omitted when the server runs open
	Timeout    time.Duration // Default: 30s, ignored when HTTPClient is set
	HTTPClient *http.Client  // Optional custom transport
}

// NewClient creates a new classification API client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8080"
	}
	if _, err := url.Parse(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf("invalid base URL %q: %w", cfg.BaseURL, err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		httpClient: httpClient,
	}, nil
}

// Status classifies the outcome of one search.
type Status string

const (
	StatusHighConfidence          Status = "high_confidence"
	StatusMediumConfidence        Status = "medium_confidence"
	StatusLowConfidence           Status = "low_confidence"
	StatusNotFoundWithSuggestions Status = "not_found_with_suggestions"
	StatusNotFound                Status = "not_found"
	StatusSystemError             Status = "system_error"
)

// Found reports whether the status carries a best match.
func (s Status) Found() bool {
	switch s {
	case StatusHighConfidence, StatusMediumConfidence, StatusLowConfidence:
		return true
	}
	return false
}

// SearchRequest represents one classification query.
type SearchRequest struct {
	Query    string `json:"query"`
	Language string `json:"language,omitempty"`
	Limit    int    `json:"limit,omitempty"`
}

// Match is one ranked classification candidate.
type Match struct {
	Code        string  `json:"code"`
	Description string  `json:"description"`
	Confidence  float64 `json:"confidence"`
	Source      string  `json:"source"`
}

// Diagnostics describes how the answer was produced.
type Diagnostics struct {
	TraceID          string   `json:"trace_id,omitempty"`
	Source           string   `json:"source,omitempty"`
	ExpandedQueries  []string `json:"expanded_queries,omitempty"`
	TotalCandidates  int      `json:"total_candidates"`
	ProcessingTimeMS int64    `json:"processing_time_ms"`
	FromCache        bool     `json:"from_cache"`
	Warnings         []string `json:"warnings,omitempty"`
}

// SearchResponse represents a classification answer.
type SearchResponse struct {
	Status      Status      `json:"status"`
	Message     string      `json:"message,omitempty"`
	BestMatch   *Match      `json:"best_match,omitempty"`
	Similar     []Match     `json:"similar,omitempty"`
	Confidence  float64     `json:"confidence"`
	Diagnostics Diagnostics `json:"diagnostics"`
}

// Code is one catalog entry.
type Code struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Language    string `json:"language,omitempty"`
}

// CodeChildren lists the codes nested under a prefix.
type CodeChildren struct {
	Code     string `json:"code"`
	Children []Code `json:"children"`
	Total    int    `json:"total"`
}

// IndexStats describes the built search indexes.
type IndexStats struct {
	Entries    int    `json:"entries"`
	Vocabulary int    `json:"vocabulary"`
	Vectors    int    `json:"vectors"`
	Degraded   int    `json:"degraded"`
	Dimension  int    `json:"dimension"`
	BuildMS    int64  `json:"build_ms"`
	BuiltAt    string `json:"built_at"`
}

// CacheStats counts result-cache traffic.
type CacheStats struct {
	Hits    int64 `json:"hits"`
	Misses  int64 `json:"misses"`
	Stored  int64 `json:"stored"`
	Dropped int64 `json:"dropped"`
}

// Stats reports index and cache state.
type Stats struct {
	Index IndexStats `json:"index"`
	Cache CacheStats `json:"cache"`
}

// Health represents a health check response.
type Health struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// APIError is a non-2xx response decoded from the service error envelope.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("api error (status %d): %s: %s", e.StatusCode, e.Message, e.Detail)
	}
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Search classifies a product description.
func (c *Client) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	var resp SearchResponse
	if err := c.post(ctx, "/api/v1/search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// LookupCode fetches one catalog entry by its exact code.
func (c *Client) LookupCode(ctx context.Context, code string) (*Code, error) {
	var resp Code
	if err := c.get(ctx, "/api/v1/codes/"+url.PathEscape(code), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CodeChildren lists catalog entries nested under a code prefix. A limit of
// zero uses the server default.
func (c *Client) CodeChildren(ctx context.Context, code string, limit int) (*CodeChildren, error) {
	path := "/api/v1/codes/" + url.PathEscape(code) + "/children"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var resp CodeChildren
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Stats fetches index and cache statistics.
func (c *Client) Stats(ctx context.Context) (*Stats, error) {
	var resp Stats
	if err := c.get(ctx, "/api/v1/stats", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Health checks the service health.
func (c *Client) Health(ctx context.Context) (*Health, error) {
	var resp Health
	if err := c.get(ctx, "/health", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Ready reports whether the search indexes are built. A server that answers
// but is still building reports false without an error.
func (c *Client) Ready(ctx context.Context) (bool, error) {
	var resp struct {
		Status string `json:"status"`
	}
	err := c.get(ctx, "/ready", &resp)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusServiceUnavailable {
			return false, nil
		}
		return false, err
	}
	return resp.Status == "ready", nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.do(ctx, http.MethodGet, path, nil, out)
}

func (c *Client) post(ctx context.Context, path string, in, out interface{}) error {
	jsonBody, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	return c.do(ctx, http.MethodPost, path, jsonBody, out)
}

func (c *Client) do(ctx context.Context, method, path string, jsonBody []byte, out interface{}) error {
	var reqBody io.Reader
	if jsonBody != nil {
		reqBody = bytes.NewReader(jsonBody)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if jsonBody != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.apiKey != "" {
		req.Header.Set("X-API-Key", c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
		var envelope struct {
			Error  string `json:"error"`
			Detail string `json:"detail"`
		}
		if jsonErr := json.Unmarshal(body, &envelope); jsonErr == nil && envelope.Error != "" {
			apiErr.Message = envelope.Error
			apiErr.Detail = envelope.Detail
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	return nil
}
