package cite

import (
	"context"
	"net/url"
	"strings"
	"sync"

	"github.com/mpetrov/draftgate/internal/model"
)

// Ledger owns the document-wide citation list and id counter. It is the
// single serialization point for citation ids: sections normalize their
// text in parallel, but id assignment for sources not yet in the ledger
// happens under one short critical section, keeping ids strictly
// increasing, gapless, and ordered by first appearance.
type Ledger struct {
	mu        sync.Mutex
	nextID    int
	citations []model.Citation
	byURL     map[string]int // canonical URL -> id
}

// NewLedger creates an empty ledger. Ids start at 1.
func NewLedger() *Ledger {
	return &Ledger{
		nextID: 1,
		byURL:  make(map[string]int),
	}
}

// Assign resolves the given sources to citation ids, minting new ids in
// slice order for sources the ledger has not seen. The context is
// checked before the counter advances: a cancelled section never
// commits, so cancellation cannot corrupt the shared sequence.
func (l *Ledger) Assign(ctx context.Context, sources []model.SourceEntry) (map[string]int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Re-check under the lock; the cancel may have raced the acquire.
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ids := make(map[string]int, len(sources))
	for _, src := range sources {
		canonical := CanonicalURL(src.URL)
		if id, ok := l.byURL[canonical]; ok {
			ids[src.Key] = id
			continue
		}

		id := l.nextID
		l.nextID++
		l.byURL[canonical] = id
		l.citations = append(l.citations, model.Citation{
			ID:            id,
			Title:         src.Title,
			URL:           src.URL,
			Publisher:     src.Publisher,
			PublishedDate: src.PublishedDate,
		})
		ids[src.Key] = id
	}
	return ids, nil
}

// Citations returns a copy of the citation list in id order.
func (l *Ledger) Citations() []model.Citation {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.Citation, len(l.citations))
	copy(out, l.citations)
	return out
}

// Has reports whether id exists in the ledger.
func (l *Ledger) Has(id int) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return id >= 1 && id < l.nextID
}

// Restore reloads a ledger from checkpointed citations, for resumed
// runs. The citation list must be the gapless sequence a completed
// checkpoint wrote.
func (l *Ledger) Restore(citations []model.Citation) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.citations = make([]model.Citation, 0, len(citations))
	l.byURL = make(map[string]int, len(citations))
	l.nextID = 1

	for _, c := range citations {
		if c.ID != l.nextID {
			return &model.SchemaError{Stage: "citations", Detail: "checkpointed citation ids are not a gapless sequence"}
		}
		l.citations = append(l.citations, c)
		l.byURL[CanonicalURL(c.URL)] = c.ID
		l.nextID++
	}
	return nil
}

// CanonicalURL reduces a URL to scheme/host/path for deduplication:
// lowercased scheme and host, query and fragment stripped, trailing
// slash removed.
func CanonicalURL(raw string) string {
	parsed, err := url.Parse(strings.TrimSpace(raw))
	if err != nil || parsed.Host == "" {
		return strings.ToLower(strings.TrimSpace(raw))
	}

	scheme := strings.ToLower(parsed.Scheme)
	host := strings.ToLower(parsed.Host)
	path := strings.TrimSuffix(parsed.Path, "/")

	return scheme + "://" + host + path
}
