package cite

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/mpetrov/draftgate/internal/model"
)

// srcMarkerRe matches the source-key markers the generator emits
// ([src:s1]) before normalization assigns document-wide ids.
var srcMarkerRe = regexp.MustCompile(`\[src:([A-Za-z0-9_-]+)\]`)

// Normalizer converts a section's source-key markers into numbered
// citation markers against the shared ledger. Marker scanning and text
// rewriting run lock-free; only id assignment serializes.
type Normalizer struct {
	ledger *Ledger
}

// NewNormalizer creates a normalizer over the shared ledger.
func NewNormalizer(ledger *Ledger) *Normalizer {
	return &Normalizer{ledger: ledger}
}

// NormalizedSection is the result of normalizing one draft.
type NormalizedSection struct {
	Text        string // Draft text with [^N] markers
	CitationIDs []int  // Ids referenced, in first-appearance order
}

// Normalize rewrites every [src:KEY] marker in text to its [^N] form,
// assigning new ids in order of first appearance. A marker whose key
// does not resolve to any source in the record is a SchemaError and
// aborts the section.
func (n *Normalizer) Normalize(ctx context.Context, text string, record *model.ResearchRecord) (*NormalizedSection, error) {
	matches := srcMarkerRe.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return &NormalizedSection{Text: text}, nil
	}

	// Resolve keys to sources in first-appearance order.
	var ordered []model.SourceEntry
	seen := make(map[string]bool)
	for _, m := range matches {
		key := m[1]
		if seen[key] {
			continue
		}
		seen[key] = true

		src, ok := record.Source(key)
		if !ok {
			return nil, &model.SchemaError{
				Stage:  "citation",
				Detail: fmt.Sprintf("marker [src:%s] does not resolve to any research source", key),
			}
		}
		ordered = append(ordered, src)
	}

	ids, err := n.ledger.Assign(ctx, ordered)
	if err != nil {
		return nil, err
	}

	out := srcMarkerRe.ReplaceAllStringFunc(text, func(marker string) string {
		key := srcMarkerRe.FindStringSubmatch(marker)[1]
		return fmt.Sprintf("[^%d]", ids[key])
	})

	used := make([]int, 0, len(ordered))
	for _, src := range ordered {
		used = append(used, ids[src.Key])
	}

	return &NormalizedSection{Text: out, CitationIDs: used}, nil
}

// RenderCitationList renders the trailing citation list consumed by
// export tooling. Every inline marker resolves to exactly one entry;
// unused entries are permitted.
func RenderCitationList(citations []model.Citation) string {
	if len(citations) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("## Sources\n\n")
	for _, c := range citations {
		b.WriteString(fmt.Sprintf("[^%d]: %s — %s", c.ID, c.Title, c.URL))
		if c.Publisher != "" {
			b.WriteString(fmt.Sprintf(" (%s", c.Publisher))
			if c.PublishedDate != "" {
				b.WriteString(", " + c.PublishedDate)
			}
			b.WriteString(")")
		} else if c.PublishedDate != "" {
			b.WriteString(fmt.Sprintf(" (%s)", c.PublishedDate))
		}
		b.WriteString("\n")
	}
	return b.String()
}
