package pipeline

import (
	"fmt"
	"io"
	"strings"

	"github.com/mpetrov/draftgate/internal/cite"
	"github.com/mpetrov/draftgate/internal/model"
)

// assemble concatenates section drafts in outline order and appends the
// trailing citation list. Exhausted sections are included with their
// last attempt's content and a review banner; every inline marker in
// the output resolves to exactly one list entry.
func (p *Pipeline) assemble(outline *model.Outline) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	var b strings.Builder
	b.WriteString("# " + outline.Title + "\n\n")

	for _, def := range outline.Sections {
		title := def.Title
		if title == "" {
			title = def.Name
		}
		b.WriteString("## " + title + "\n\n")

		draft, ok := p.drafts[def.Name]
		sec := p.state.Sections[def.Name]

		switch {
		case !ok || draft == nil:
			b.WriteString("_Section could not be generated")
			if sec != nil && sec.Error != "" {
				b.WriteString(": " + sec.Error)
			}
			b.WriteString("._\n\n")
		case draft.Status == model.StatusExhausted:
			b.WriteString("> NEEDS REVIEW: verification did not pass after " +
				fmt.Sprintf("%d", draft.Attempt) + " attempts.\n\n")
			b.WriteString(draft.Content + "\n\n")
		default:
			b.WriteString(draft.Content + "\n\n")
		}
	}

	if list := cite.RenderCitationList(p.state.Citations); list != "" {
		b.WriteString(list)
	}

	return b.String()
}

// RenderSummary prints the run-level summary table: which sections
// passed, which need manual attention, and where the document landed.
func (s *Summary) RenderSummary(w io.Writer) {
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "  Run %s\n", s.RunID)
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "\n")
	fmt.Fprintf(w, "  %-24s %-14s %-8s %s\n", "SECTION", "STATUS", "SCORE", "ATTEMPTS")

	for _, sec := range s.Sections {
		fmt.Fprintf(w, "  %-24s %-14s %-8.2f %d\n", sec.Name, sec.Status, sec.Score, sec.Attempts)
	}

	fmt.Fprintf(w, "\n")
	if len(s.NeedsAttention) > 0 {
		fmt.Fprintf(w, "  Sections needing manual attention: %s\n", strings.Join(s.NeedsAttention, ", "))
	} else {
		fmt.Fprintf(w, "  All sections passed verification.\n")
	}
	if s.DocumentPath != "" {
		fmt.Fprintf(w, "  Document: %s\n", s.DocumentPath)
	}
	fmt.Fprintf(w, "\n")
}
