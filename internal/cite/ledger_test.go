package cite

import (
	"context"
	"sync"
	"testing"

	"github.com/mpetrov/draftgate/internal/model"
)

func src(key, url string) model.SourceEntry {
	return model.SourceEntry{Key: key, Title: "Title " + key, URL: url}
}

func TestLedger_IdsStartAtOneAndAreGapless(t *testing.T) {
	ledger := NewLedger()

	ids, err := ledger.Assign(context.Background(), []model.SourceEntry{
		src("s1", "https://example.com/a"),
		src("s2", "https://example.com/b"),
		src("s3", "https://example.com/c"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ids["s1"] != 1 || ids["s2"] != 2 || ids["s3"] != 3 {
		t.Errorf("expected ids 1,2,3 in slice order, got %v", ids)
	}

	citations := ledger.Citations()
	for i, c := range citations {
		if c.ID != i+1 {
			t.Errorf("citation %d has id %d, sequence must be gapless", i, c.ID)
		}
	}
}

func TestLedger_DeduplicatesByCanonicalURL(t *testing.T) {
	ledger := NewLedger()

	first, err := ledger.Assign(context.Background(), []model.SourceEntry{
		src("s1", "https://Example.com/report?utm_source=x"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Same page, different query string and casing, seen by another
	// section under a different key.
	second, err := ledger.Assign(context.Background(), []model.SourceEntry{
		src("s1", "https://example.com/report#summary"),
		src("s2", "https://example.com/other"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if second["s1"] != first["s1"] {
		t.Errorf("duplicate URL minted a new id: %d vs %d", second["s1"], first["s1"])
	}
	if second["s2"] != 2 {
		t.Errorf("expected next id 2 for new URL, got %d", second["s2"])
	}
	if len(ledger.Citations()) != 2 {
		t.Errorf("expected 2 citations after dedupe, got %d", len(ledger.Citations()))
	}
}

func TestLedger_CancelledAssignDoesNotAdvanceCounter(t *testing.T) {
	ledger := NewLedger()

	if _, err := ledger.Assign(context.Background(), []model.SourceEntry{src("s1", "https://example.com/a")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := ledger.Assign(cancelled, []model.SourceEntry{src("s1", "https://example.com/b")}); err == nil {
		t.Fatal("expected error from cancelled context")
	}

	ids, err := ledger.Assign(context.Background(), []model.SourceEntry{src("s1", "https://example.com/c")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids["s1"] != 2 {
		t.Errorf("cancelled assign leaked an id: next id was %d, want 2", ids["s1"])
	}
}

func TestLedger_ConcurrentAssignsStayConsistent(t *testing.T) {
	ledger := NewLedger()
	urls := []string{
		"https://example.com/a",
		"https://example.com/b",
		"https://example.com/c",
		"https://example.com/d",
	}

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for _, u := range urls {
				if _, err := ledger.Assign(context.Background(), []model.SourceEntry{src("s1", u)}); err != nil {
					t.Errorf("unexpected error: %v", err)
					return
				}
			}
		}()
	}
	wg.Wait()

	citations := ledger.Citations()
	if len(citations) != len(urls) {
		t.Fatalf("expected %d citations, got %d", len(urls), len(citations))
	}
	for i, c := range citations {
		if c.ID != i+1 {
			t.Errorf("citation %d has id %d, sequence must stay gapless under concurrency", i, c.ID)
		}
	}
}

func TestLedger_Restore(t *testing.T) {
	ledger := NewLedger()
	if err := ledger.Restore([]model.Citation{
		{ID: 1, Title: "A", URL: "https://example.com/a"},
		{ID: 2, Title: "B", URL: "https://example.com/b"},
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !ledger.Has(2) || ledger.Has(3) {
		t.Error("restored ledger has wrong id range")
	}

	// A restored URL must not mint a second id; a new URL continues the
	// sequence.
	ids, err := ledger.Assign(context.Background(), []model.SourceEntry{
		src("s1", "https://example.com/a"),
		src("s2", "https://example.com/c"),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ids["s1"] != 1 {
		t.Errorf("restored URL re-minted: got id %d, want 1", ids["s1"])
	}
	if ids["s2"] != 3 {
		t.Errorf("expected sequence to continue at 3, got %d", ids["s2"])
	}
}

func TestLedger_RestoreRejectsGaps(t *testing.T) {
	ledger := NewLedger()
	err := ledger.Restore([]model.Citation{
		{ID: 1, Title: "A", URL: "https://example.com/a"},
		{ID: 3, Title: "C", URL: "https://example.com/c"},
	})
	if err == nil {
		t.Fatal("expected error for gapped citation ids")
	}
	if !model.IsSchemaError(err) {
		t.Errorf("expected SchemaError, got %T: %v", err, err)
	}
}

func TestCanonicalURL(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"https://Example.com/Report?utm=1#top", "https://example.com/Report"},
		{"https://example.com/path/", "https://example.com/path"},
		{"HTTP://EXAMPLE.COM", "http://example.com"},
	}
	for _, tt := range tests {
		if got := CanonicalURL(tt.in); got != tt.want {
			t.Errorf("CanonicalURL(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
