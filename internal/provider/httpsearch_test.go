package provider

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mpetrov/draftgate/internal/model"
)

func TestHTTPResearcher_Search(t *testing.T) {
	var gotReq searchAPIRequest
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" || r.Method != http.MethodPost {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(searchAPIResponse{Results: []SearchResult{
			{Title: "Revenue Report", URL: "https://example.com/revenue", Content: "Revenue data."},
		}})
	}))
	defer server.Close()

	p, err := NewHTTPResearcher(Config{SearchURL: server.URL, SearchAPIKey: "key-123", Retries: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := p.Search(context.Background(), SearchRequest{
		Query:          "acme revenue",
		Limit:          5,
		IncludeDomains: []string{"example.com"},
	})
	if err != nil {
		t.Fatalf("search: %v", err)
	}

	if len(results) != 1 || results[0].Title != "Revenue Report" {
		t.Errorf("results: %+v", results)
	}
	if gotReq.Query != "acme revenue" || gotReq.MaxResults != 5 || len(gotReq.IncludeDomains) != 1 {
		t.Errorf("request body: %+v", gotReq)
	}
	if gotAuth != "Bearer key-123" {
		t.Errorf("auth header: %q", gotAuth)
	}
}

func TestHTTPResearcher_EmptyResultsAreValid(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(searchAPIResponse{Results: []SearchResult{}})
	}))
	defer server.Close()

	p, err := NewHTTPResearcher(Config{SearchURL: server.URL, Retries: 1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := p.Search(context.Background(), SearchRequest{Query: "obscure topic"})
	if err != nil {
		t.Fatalf("empty results must not error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestHTTPResearcher_RetriesServerErrors(t *testing.T) {
	origSleep := sleepFunc
	defer func() { sleepFunc = origSleep }()
	sleepFunc = func(ctx context.Context, d time.Duration) error { return ctx.Err() }

	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_ = json.NewEncoder(w).Encode(searchAPIResponse{Results: []SearchResult{{Title: "Late", URL: "https://example.com"}}})
	}))
	defer server.Close()

	p, err := NewHTTPResearcher(Config{SearchURL: server.URL, Retries: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	results, err := p.Search(context.Background(), SearchRequest{Query: "q"})
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("expected recovery on attempt 3, got %d results", len(results))
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
}

func TestHTTPResearcher_ExhaustionIsProviderError(t *testing.T) {
	origSleep := sleepFunc
	defer func() { sleepFunc = origSleep }()
	sleepFunc = func(ctx context.Context, d time.Duration) error { return ctx.Err() }

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	p, err := NewHTTPResearcher(Config{SearchURL: server.URL, Retries: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = p.Search(context.Background(), SearchRequest{Query: "q"})
	var pe *model.ProviderError
	if !errors.As(err, &pe) {
		t.Fatalf("expected ProviderError, got %T: %v", err, err)
	}
	if pe.Op != "search" || pe.Attempts != 2 {
		t.Errorf("ProviderError fields: %+v", pe)
	}
}

func TestHTTPResearcher_BadRequestFailsFast(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
		_ = json.NewEncoder(w).Encode(searchAPIError{Error: "query too long"})
	}))
	defer server.Close()

	p, err := NewHTTPResearcher(Config{SearchURL: server.URL, Retries: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = p.Search(context.Background(), SearchRequest{Query: "q"})
	if err == nil {
		t.Fatal("expected error")
	}
	if model.IsProviderError(err) {
		t.Errorf("malformed requests must not be retried into a ProviderError: %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("expected 1 call for a permanent failure, got %d", calls)
	}
}

func TestNewHTTPResearcher_RequiresURL(t *testing.T) {
	if _, err := NewHTTPResearcher(Config{}); err == nil {
		t.Fatal("expected error without endpoint URL")
	}
}
