package research

import (
	"context"
	"testing"
	"time"

	"github.com/mpetrov/draftgate/internal/cache"
	"github.com/mpetrov/draftgate/internal/model"
	"github.com/mpetrov/draftgate/internal/provider"
)

func researchConfig() model.ResearchConfig {
	cfg := model.DefaultConfig().Research
	cfg.EnrichTop = 0
	return cfg
}

func TestGather_DeduplicatesAcrossQueries(t *testing.T) {
	researcher := &provider.Static{Results: map[string][]provider.SearchResult{
		"revenue": {
			{Title: "Report", URL: "https://example.com/report?ref=a", Content: "Revenue data."},
		},
		"growth": {
			{Title: "Report", URL: "https://example.com/report?ref=b", Content: "Growth data."},
			{Title: "Study", URL: "https://example.com/study", Content: "Market study."},
		},
	}}
	agg := NewAggregator(researcher, nil, researchConfig())

	record, err := agg.Gather(context.Background(), model.SectionDef{
		Name:             "traction",
		GuidingQuestions: []string{"What is the revenue?", "What is the growth rate?"},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Both queries return the same page under different query strings;
	// one entry survives.
	if len(record.Sources) != 2 {
		t.Fatalf("expected 2 deduplicated sources, got %d", len(record.Sources))
	}
	if record.Sources[0].Key != "s1" || record.Sources[1].Key != "s2" {
		t.Errorf("source keys must be sequential, got %s, %s", record.Sources[0].Key, record.Sources[1].Key)
	}
	if record.Empty {
		t.Error("record with sources must not be marked empty")
	}
}

func TestGather_EmptyResultsAreExplicit(t *testing.T) {
	researcher := &provider.Static{} // No configured results: every query is empty
	agg := NewAggregator(researcher, nil, researchConfig())

	record, err := agg.Gather(context.Background(), model.SectionDef{
		Name:             "market",
		GuidingQuestions: []string{"How large is the addressable market?"},
	})
	if err != nil {
		t.Fatalf("empty results are valid, got error: %v", err)
	}

	if !record.Empty {
		t.Error("record with no sources must set Empty")
	}
	if len(record.Sources) != 0 {
		t.Errorf("empty record must carry no sources, got %d", len(record.Sources))
	}
	if record.Section != "market" {
		t.Errorf("record section: got %q", record.Section)
	}
}

func TestGather_CacheAvoidsRepeatSearches(t *testing.T) {
	researcher := &provider.Static{Results: map[string][]provider.SearchResult{
		"revenue": {
			{Title: "Report", URL: "https://example.com/report", Content: "Revenue data."},
		},
	}}
	queryCache := cache.NewMemoryCache(time.Hour, time.Hour)
	agg := NewAggregator(researcher, queryCache, researchConfig())

	section := model.SectionDef{
		Name:             "traction",
		GuidingQuestions: []string{"What is the revenue?"},
	}

	if _, err := agg.Gather(context.Background(), section); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	record, err := agg.Gather(context.Background(), section)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if researcher.SearchCalls() != 1 {
		t.Errorf("expected 1 collaborator call with a warm cache, got %d", researcher.SearchCalls())
	}
	if len(record.Sources) != 1 || record.Sources[0].Title != "Report" {
		t.Errorf("cached gather lost sources: %+v", record.Sources)
	}
}

func TestQueryKey_CoversFilters(t *testing.T) {
	base := cache.QueryKey("revenue", 5, nil, nil)

	if cache.QueryKey("revenue", 5, nil, nil) != base {
		t.Error("identical inputs must produce identical keys")
	}
	if cache.QueryKey("revenue", 10, nil, nil) == base {
		t.Error("result limit must be part of the key")
	}
	if cache.QueryKey("revenue", 5, []string{"example.com"}, nil) == base {
		t.Error("include domains must be part of the key")
	}
	if cache.QueryKey("revenue", 5, nil, []string{"example.com"}) == base {
		t.Error("exclude domains must be part of the key")
	}
}
