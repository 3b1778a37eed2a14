package provider

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

// HTTPResearcher implements the Researcher interface against a hosted
// search API speaking a minimal JSON contract:
// POST {base}/search {query, max_results, include_domains, exclude_domains}
// -> {results: [{title, url, publisher, published_date, content}]}
type HTTPResearcher struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	config     Config
}

type searchAPIRequest struct {
	Query          string   `json:"query"`
	MaxResults     int      `json:"max_results,omitempty"`
	IncludeDomains []string `json:"include_domains,omitempty"`
	ExcludeDomains []string `json:"exclude_domains,omitempty"`
}

type searchAPIResponse struct {
	Results []SearchResult `json:"results"`
}

type searchAPIError struct {
	Error string `json:"error"`
}

// NewHTTPResearcher creates a new HTTP research provider
func NewHTTPResearcher(config Config) (*HTTPResearcher, error) {
	if config.SearchURL == "" {
		return nil, fmt.Errorf("research endpoint URL is required")
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	return &HTTPResearcher{
		baseURL:    strings.TrimSuffix(config.SearchURL, "/"),
		apiKey:     config.SearchAPIKey,
		httpClient: &http.Client{Timeout: timeout},
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *HTTPResearcher) Name() string {
	return "http"
}

// Search runs one research query. An empty result list is returned as
// is: absence of findings is a valid response, never an error.
func (p *HTTPResearcher) Search(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	var out []SearchResult
	err := withRetry(ctx, p.Name(), "search", p.config.Retries, func(ctx context.Context) error {
		results, err := p.searchOnce(ctx, req)
		if err != nil {
			return err
		}
		out = results
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (p *HTTPResearcher) searchOnce(ctx context.Context, req SearchRequest) ([]SearchResult, error) {
	body, err := json.Marshal(searchAPIRequest{
		Query:          req.Query,
		MaxResults:     req.Limit,
		IncludeDomains: req.IncludeDomains,
		ExcludeDomains: req.ExcludeDomains,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if p.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+p.apiKey)
	}

	resp, err := p.httpClient.Do(httpReq)
	if err != nil {
		return nil, Transient(fmt.Errorf("search request: %w", err))
	}
	defer func() { _ = resp.Body.Close() }()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return nil, Transient(fmt.Errorf("read response: %w", err))
	}

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, Transient(fmt.Errorf("search API status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		var apiErr searchAPIError
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return nil, fmt.Errorf("search API: %s", apiErr.Error)
		}
		return nil, fmt.Errorf("search API status %d", resp.StatusCode)
	}

	var parsed searchAPIResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return nil, Transient(fmt.Errorf("decode response: %w", err))
	}

	return parsed.Results, nil
}
