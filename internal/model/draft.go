package model

import "time"

// SectionStatus is the lifecycle state of a section's draft
type SectionStatus string

const (
	StatusPending       SectionStatus = "pending"
	StatusDrafting      SectionStatus = "drafting"
	StatusVerifying     SectionStatus = "verifying"
	StatusNeedsRevision SectionStatus = "needs_revision"
	StatusPassed        SectionStatus = "passed"
	StatusFailed        SectionStatus = "failed"    // Aborted on a schema error
	StatusExhausted     SectionStatus = "exhausted" // Revision attempts consumed; needs manual review
)

// Terminal reports whether a section has reached a terminal status.
func (s SectionStatus) Terminal() bool {
	return s == StatusPassed || s == StatusFailed || s == StatusExhausted
}

// Draft is a section's working text plus everything verification
// attached to it. Created by the generation step and mutated by every
// subsequent pipeline stage until it reaches a terminal status.
type Draft struct {
	Section     string              `json:"section"`
	Content     string              `json:"content"`
	CitationIDs []int               `json:"citation_ids,omitempty"` // Ids referenced by inline markers
	Report      *VerificationReport `json:"report,omitempty"`
	Status      SectionStatus       `json:"status"`
	Attempt     int                 `json:"attempt"`
}

// VerificationReport is the per-attempt output of the claim verifier.
type VerificationReport struct {
	Claims        []Claim `json:"claims"`
	Score         float64 `json:"score"` // verified / total, 1.0 when no claims
	Verified      int     `json:"verified"`
	Total         int     `json:"total"`
	CriticalCount int     `json:"critical_count"`
	FlaggedCount  int     `json:"flagged_count"` // Claims with any action other than accept
	NeedsRevision bool    `json:"needs_revision"`
}

// Failing returns the claims that did not verify, in extraction order.
func (r *VerificationReport) Failing() []Claim {
	var out []Claim
	for _, c := range r.Claims {
		if c.Action != ActionAccept {
			out = append(out, c)
		}
	}
	return out
}

// AuditEntry records one pipeline event for the run's audit trail.
type AuditEntry struct {
	Time    time.Time `json:"time"`
	Section string    `json:"section,omitempty"`
	Stage   string    `json:"stage"`
	Attempt int       `json:"attempt,omitempty"`
	Score   float64   `json:"score,omitempty"`
	Flagged int       `json:"flagged,omitempty"`
	Message string    `json:"message,omitempty"`
}
