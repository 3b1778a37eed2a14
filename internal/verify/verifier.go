package verify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/mpetrov/draftgate/internal/model"
)

// Risk-tier thresholds for the evidence ratio: a high-risk claim needs
// research support above 0.5 to escape removal; a lower-risk claim needs
// more than 0.6 to escape review.
const (
	highRiskEvidenceFloor = 0.5
	lowRiskEvidenceFloor  = 0.6
)

// CitationIndex resolves inline citation ids against the document's
// citation list.
type CitationIndex interface {
	Has(id int) bool
}

// Verifier fills in confidence, severity, and action for every
// extracted claim and computes the section's aggregate score. It checks
// sourcing, not truth: a cited claim is trusted without a secondary
// evidence search against the research corpus.
type Verifier struct {
	threshold float64 // Acceptance threshold for the aggregate score
}

// NewVerifier creates a verifier with the given acceptance threshold.
func NewVerifier(threshold float64) *Verifier {
	if threshold <= 0 {
		threshold = 0.8
	}
	return &Verifier{threshold: threshold}
}

var (
	inlineMarkerRe = regexp.MustCompile(`\[\^\d+\]`)
	numericTokenRe = regexp.MustCompile(`[$€£¥]?\d[\d,.]*(?:\s?%|[kKmMbB]\b)?`)
	properPhraseRe = regexp.MustCompile(`\b[A-Z][A-Za-z0-9&'-]*(?:\s+[A-Z][A-Za-z0-9&'-]*)+`)
)

// Verify scores every claim against the citation index and the
// section's research corpus. The input slice is not mutated; the report
// carries the scored copies. Recomputing on identical input is
// deterministic.
func (v *Verifier) Verify(claims []model.Claim, citations CitationIndex, record *model.ResearchRecord) (*model.VerificationReport, error) {
	corpus := strings.ToLower(record.Corpus())

	report := &model.VerificationReport{
		Claims: make([]model.Claim, len(claims)),
		Total:  len(claims),
	}

	for i, claim := range claims {
		scored, err := v.scoreClaim(claim, citations, corpus)
		if err != nil {
			return nil, err
		}
		report.Claims[i] = scored

		if scored.Confidence == model.ConfidenceVerified {
			report.Verified++
		}
		if scored.Severity == model.SeverityCritical {
			report.CriticalCount++
		}
		if scored.Action != model.ActionAccept {
			report.FlaggedCount++
		}
	}

	if report.Total == 0 {
		report.Score = 1.0
	} else {
		report.Score = float64(report.Verified) / float64(report.Total)
	}

	// A single critical claim forces revision regardless of how high the
	// aggregate score is.
	report.NeedsRevision = report.CriticalCount > 0 || report.Score < v.threshold

	return report, nil
}

// scoreClaim applies the per-claim decision procedure.
func (v *Verifier) scoreClaim(claim model.Claim, citations CitationIndex, corpus string) (model.Claim, error) {
	// 1. A resolvable inline citation is trusted without an evidence
	// search.
	if claim.IsCited {
		if !citations.Has(claim.CitedID) {
			return claim, &model.SchemaError{
				Stage:  "verification",
				Detail: fmt.Sprintf("inline marker [^%d] does not exist in the citation list", claim.CitedID),
			}
		}
		claim.Confidence = model.ConfidenceVerified
		claim.Severity = model.SeverityLow
		claim.Action = model.ActionAccept
		claim.Reason = fmt.Sprintf("cited [^%d]", claim.CitedID)
		return claim, nil
	}

	// 2. Evidence ratio over the claim's key terms.
	terms := KeyTerms(claim.Text)
	ratio := evidenceRatio(terms, corpus)

	// 3-4. Risk tier and decision matrix.
	if claim.Type.HighRisk() {
		if ratio > highRiskEvidenceFloor {
			claim.Confidence = model.ConfidenceUnsourced
			claim.Severity = model.SeverityHigh
			claim.Action = model.ActionRequestSource
			claim.Reason = fmt.Sprintf("high-risk %s claim supported by research (evidence %.2f) but not attributed", claim.Type, ratio)
		} else {
			claim.Confidence = model.ConfidenceSuspicious
			claim.Severity = model.SeverityCritical
			claim.Action = model.ActionRemove
			claim.Reason = fmt.Sprintf("high-risk %s claim with no citation and no research support (evidence %.2f)", claim.Type, ratio)
		}
		return claim, nil
	}

	if ratio > lowRiskEvidenceFloor {
		claim.Confidence = model.ConfidenceUnsourced
		claim.Severity = model.SeverityMedium
		claim.Action = model.ActionRequestSource
		claim.Reason = fmt.Sprintf("%s claim supported by research (evidence %.2f) but not attributed", claim.Type, ratio)
	} else {
		claim.Confidence = model.ConfidenceSuspicious
		claim.Severity = model.SeverityHigh
		claim.Action = model.ActionFlagForReview
		claim.Reason = fmt.Sprintf("%s claim with weak research support (evidence %.2f)", claim.Type, ratio)
	}
	return claim, nil
}

// KeyTerms extracts the tokens the evidence ratio is computed over:
// numeric tokens (amounts, percentages) and capitalized multi-word
// phrases. Inline markers are stripped first so their digits do not
// count as evidence terms.
func KeyTerms(sentence string) []string {
	clean := inlineMarkerRe.ReplaceAllString(sentence, "")

	var terms []string
	seen := make(map[string]bool)

	add := func(term string) {
		term = strings.TrimRight(strings.TrimSpace(term), ".,;:")
		if term == "" || seen[term] {
			return
		}
		seen[term] = true
		terms = append(terms, term)
	}

	for _, tok := range numericTokenRe.FindAllString(clean, -1) {
		add(tok)
	}
	for _, phrase := range properPhraseRe.FindAllString(clean, -1) {
		add(phrase)
	}
	return terms
}

// evidenceRatio is the fraction of key terms found case-insensitively
// anywhere in the serialized research corpus, 0 when there are none.
func evidenceRatio(terms []string, corpus string) float64 {
	if len(terms) == 0 || corpus == "" {
		return 0
	}

	found := 0
	for _, term := range terms {
		if strings.Contains(corpus, strings.ToLower(term)) {
			found++
		}
	}
	return float64(found) / float64(len(terms))
}
