package model

import (
	"strings"
	"time"
)

// SourceEntry is one raw source discovered by the research collaborator.
// Key is the stable per-section handle ("s1", "s2", ...) the generator
// uses to cite the source before normalization assigns document ids.
type SourceEntry struct {
	Key           string `json:"key"`
	Title         string `json:"title"`
	URL           string `json:"url"`
	Publisher     string `json:"publisher,omitempty"`
	PublishedDate string `json:"published_date,omitempty"`
	Content       string `json:"content,omitempty"` // Snippet, possibly enriched with page text
}

// ResearchRecord holds a section's research corpus. It is immutable once
// produced and may be read concurrently without synchronization. An
// empty result set is a valid, explicit state: Empty is set rather than
// fabricating placeholder findings.
type ResearchRecord struct {
	Section   string        `json:"section"`
	Queries   []string      `json:"queries"`
	Sources   []SourceEntry `json:"sources"`
	Empty     bool          `json:"empty"`
	FetchedAt time.Time     `json:"fetched_at"`
}

// Corpus serializes the record's findings into the flat text the
// verifier searches key terms against.
func (r *ResearchRecord) Corpus() string {
	if r == nil || r.Empty {
		return ""
	}
	var b strings.Builder
	for _, s := range r.Sources {
		b.WriteString(s.Title)
		b.WriteString("\n")
		b.WriteString(s.Content)
		b.WriteString("\n")
	}
	return b.String()
}

// Source resolves a source key to its entry.
func (r *ResearchRecord) Source(key string) (SourceEntry, bool) {
	if r == nil {
		return SourceEntry{}, false
	}
	for _, s := range r.Sources {
		if s.Key == key {
			return s, true
		}
	}
	return SourceEntry{}, false
}
