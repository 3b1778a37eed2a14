package revise

import (
	"context"
	"fmt"
	"strings"

	"github.com/mpetrov/draftgate/internal/cite"
	"github.com/mpetrov/draftgate/internal/extract"
	"github.com/mpetrov/draftgate/internal/model"
	"github.com/mpetrov/draftgate/internal/provider"
	"github.com/mpetrov/draftgate/internal/verify"
)

// AuditFunc receives one audit entry per pipeline event.
type AuditFunc func(entry model.AuditEntry)

// StatusFunc advances a section's top-level status. The orchestrator
// supplies it, keeping a single writer for the status field even under
// concurrent section processing.
type StatusFunc func(section string, status model.SectionStatus, attempt int)

// Controller drives one section through the draft/verify/revise loop:
// drafting -> verifying -> passed | needs_revision, with needs_revision
// looping back to drafting under a bounded attempt count. Exhausting
// attempts is a terminal state distinct from a pipeline error: the
// section needs manual review, the run continues.
type Controller struct {
	gen         provider.Generator
	normalizer  *cite.Normalizer
	extractor   *extract.Extractor
	verifier    *verify.Verifier
	citations   verify.CitationIndex
	maxAttempts int
	maxTokens   int
	audit       AuditFunc
	setStatus   StatusFunc
}

// NewController wires a revision controller.
func NewController(gen provider.Generator, normalizer *cite.Normalizer, extractor *extract.Extractor, verifier *verify.Verifier, citations verify.CitationIndex, maxAttempts, maxTokens int, audit AuditFunc, setStatus StatusFunc) *Controller {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Controller{
		gen:         gen,
		normalizer:  normalizer,
		extractor:   extractor,
		verifier:    verifier,
		citations:   citations,
		maxAttempts: maxAttempts,
		maxTokens:   maxTokens,
		audit:       audit,
		setStatus:   setStatus,
	}
}

// ProcessSection runs the bounded revision loop for one section. It
// returns a draft in a terminal status (passed or exhausted), or an
// error: ProviderError after retry exhaustion, SchemaError on malformed
// citation data, or the context's error on cancellation. A verification
// failure is not an error; it drives the next attempt.
func (c *Controller) ProcessSection(ctx context.Context, section model.SectionDef, record *model.ResearchRecord) (*model.Draft, error) {
	draft := &model.Draft{Section: section.Name, Status: model.StatusPending}
	correction := ""

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		draft.Attempt = attempt
		c.setStatus(section.Name, model.StatusDrafting, attempt)

		resp, err := c.gen.Generate(ctx, provider.GenerateRequest{
			Instructions: buildInstructions(section, correction),
			Context:      sourcesContext(record),
			Constraints:  buildConstraints(section),
			MaxTokens:    c.maxTokens,
		})
		if err != nil {
			return nil, err
		}

		normalized, err := c.normalizer.Normalize(ctx, resp.Text, record)
		if err != nil {
			return nil, err
		}
		draft.Content = normalized.Text
		draft.CitationIDs = normalized.CitationIDs

		c.setStatus(section.Name, model.StatusVerifying, attempt)

		claims := c.extractor.Extract(draft.Content)
		report, err := c.verifier.Verify(claims, c.citations, record)
		if err != nil {
			return nil, err
		}
		draft.Report = report

		c.audit(model.AuditEntry{
			Section: section.Name,
			Stage:   "verify",
			Attempt: attempt,
			Score:   report.Score,
			Flagged: report.FlaggedCount,
			Message: fmt.Sprintf("score %.2f, %d/%d verified, %d flagged", report.Score, report.Verified, report.Total, report.FlaggedCount),
		})

		if !report.NeedsRevision {
			draft.Status = model.StatusPassed
			c.setStatus(section.Name, model.StatusPassed, attempt)
			return draft, nil
		}

		correction = CorrectionContext(report)
		if attempt < c.maxAttempts {
			c.setStatus(section.Name, model.StatusNeedsRevision, attempt)
		}
	}

	draft.Status = model.StatusExhausted
	c.setStatus(section.Name, model.StatusExhausted, draft.Attempt)
	c.audit(model.AuditEntry{
		Section: section.Name,
		Stage:   "exhausted",
		Attempt: draft.Attempt,
		Message: fmt.Sprintf("revision budget of %d attempts consumed; manual review required", c.maxAttempts),
	})
	return draft, nil
}

// CorrectionContext builds the targeted rewrite guidance from a failed
// verification report: the specific failing claims and their reasons,
// not a generic "try again".
func CorrectionContext(report *model.VerificationReport) string {
	failing := report.Failing()
	if len(failing) == 0 {
		return ""
	}

	var b strings.Builder
	b.WriteString("The previous draft failed sourcing verification. Revise it, addressing each statement below:\n")
	for _, claim := range failing {
		switch claim.Action {
		case model.ActionRemove:
			b.WriteString(fmt.Sprintf("- REMOVE or cite a source: %q (%s)\n", claim.Text, claim.Reason))
		case model.ActionRequestSource:
			b.WriteString(fmt.Sprintf("- ADD a [src:KEY] citation: %q (%s)\n", claim.Text, claim.Reason))
		default:
			b.WriteString(fmt.Sprintf("- REWORK: %q (%s)\n", claim.Text, claim.Reason))
		}
	}
	b.WriteString("Keep every statement that already carries a citation marker.")
	return b.String()
}

func buildInstructions(section model.SectionDef, correction string) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("Write the %q section of an investment memo.\n", section.Title))
	b.WriteString("Address the following questions:\n")
	for _, q := range section.GuidingQuestions {
		b.WriteString("- ")
		b.WriteString(q)
		b.WriteString("\n")
	}
	if correction != "" {
		b.WriteString("\n")
		b.WriteString(correction)
	}
	return b.String()
}

func buildConstraints(section model.SectionDef) []string {
	var constraints []string
	if section.MinWords > 0 || section.MaxWords > 0 {
		constraints = append(constraints, fmt.Sprintf("Length: %d-%d words", section.MinWords, section.MaxWords))
	}
	constraints = append(constraints, "Cite every factual figure with a [src:KEY] marker from the available sources")
	constraints = append(constraints, section.StyleNotes...)
	return constraints
}

// sourcesContext serializes the research record for the generator, with
// the source keys its citations must reference. An empty record is
// stated explicitly so the generator does not invent sources.
func sourcesContext(record *model.ResearchRecord) string {
	if record == nil || record.Empty {
		return "No research findings are available. Do not fabricate figures or sources; write qualitatively."
	}

	var b strings.Builder
	for _, s := range record.Sources {
		b.WriteString(fmt.Sprintf("[src:%s] %s — %s", s.Key, s.Title, s.URL))
		if s.PublishedDate != "" {
			b.WriteString(" (" + s.PublishedDate + ")")
		}
		b.WriteString("\n")
		if s.Content != "" {
			b.WriteString(s.Content)
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}
	return b.String()
}
