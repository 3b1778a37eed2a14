package research

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/mpetrov/draftgate/internal/cache"
	"github.com/mpetrov/draftgate/internal/cite"
	"github.com/mpetrov/draftgate/internal/model"
	"github.com/mpetrov/draftgate/internal/provider"
)

// Aggregator turns a section's guiding questions into a research
// record: one query per question, results deduplicated by canonical
// URL, optionally enriched with page text. It has no side effects
// beyond the returned record.
type Aggregator struct {
	researcher provider.Researcher
	cache      cache.Cache
	fetcher    *Fetcher // nil when enrichment is disabled
	config     model.ResearchConfig
}

// NewAggregator creates an aggregator. queryCache may be nil to disable
// caching.
func NewAggregator(researcher provider.Researcher, queryCache cache.Cache, cfg model.ResearchConfig) *Aggregator {
	var fetcher *Fetcher
	if cfg.EnrichTop > 0 {
		fetcher = NewFetcher(cfg.UserAgent, cfg.RequestsPerSec, cfg.MaxSnippetBytes)
	}

	return &Aggregator{
		researcher: researcher,
		cache:      queryCache,
		fetcher:    fetcher,
		config:     cfg,
	}
}

// Gather produces the section's research record. When every query comes
// back empty the record is returned with Empty set: absence of data is
// an explicit state, never a fabricated placeholder.
func (a *Aggregator) Gather(ctx context.Context, section model.SectionDef) (*model.ResearchRecord, error) {
	record := &model.ResearchRecord{
		Section:   section.Name,
		Queries:   section.GuidingQuestions,
		FetchedAt: time.Now().UTC(),
	}

	seen := make(map[string]bool) // canonical URL -> already included
	for _, question := range section.GuidingQuestions {
		results, err := a.search(ctx, question)
		if err != nil {
			return nil, err
		}

		for _, r := range results {
			canonical := cite.CanonicalURL(r.URL)
			if canonical == "" || seen[canonical] {
				continue
			}
			seen[canonical] = true

			record.Sources = append(record.Sources, model.SourceEntry{
				Key:           fmt.Sprintf("s%d", len(record.Sources)+1),
				Title:         r.Title,
				URL:           r.URL,
				Publisher:     r.Publisher,
				PublishedDate: r.PublishedDate,
				Content:       r.Content,
			})
		}
	}

	if len(record.Sources) == 0 {
		record.Empty = true
		return record, nil
	}

	if a.fetcher != nil {
		a.enrich(ctx, record)
	}

	return record, nil
}

// search runs one query through the cache and the research collaborator.
func (a *Aggregator) search(ctx context.Context, query string) ([]provider.SearchResult, error) {
	key := cache.QueryKey(query, a.config.ResultLimit, a.config.IncludeDomains, a.config.ExcludeDomains)

	if a.cache != nil {
		if data, found := a.cache.Get(key); found {
			var cached []provider.SearchResult
			if err := json.Unmarshal(data, &cached); err == nil {
				return cached, nil
			}
			// Corrupt entry: fall through to a fresh query
			_ = a.cache.Delete(key)
		}
	}

	results, err := a.researcher.Search(ctx, provider.SearchRequest{
		Query:          query,
		Limit:          a.config.ResultLimit,
		IncludeDomains: a.config.IncludeDomains,
		ExcludeDomains: a.config.ExcludeDomains,
	})
	if err != nil {
		return nil, err
	}

	if a.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			ttl := time.Duration(a.config.CacheTTLMinutes) * time.Minute
			_ = a.cache.Set(key, data, ttl)
		}
	}

	return results, nil
}

// enrich folds fetched page text into the top sources' content. Fetch
// failures leave the snippet as is; enrichment is best effort.
func (a *Aggregator) enrich(ctx context.Context, record *model.ResearchRecord) {
	limit := a.config.EnrichTop
	if limit > len(record.Sources) {
		limit = len(record.Sources)
	}

	for i := 0; i < limit; i++ {
		text, err := a.fetcher.PageText(ctx, record.Sources[i].URL)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: enrich %s: %v\n", record.Sources[i].URL, err)
			continue
		}
		if text != "" {
			record.Sources[i].Content = record.Sources[i].Content + "\n" + text
		}
	}
}
