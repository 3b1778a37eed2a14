package model

// Claim represents a sentence-level factual assertion extracted from
// generated section text. Claims are ephemeral: they are recomputed on
// every verification pass and never persisted beyond the report for a
// single revision attempt.
type Claim struct {
	Text        string      `json:"text"`                 // The sentence containing the claim
	Sentence    int         `json:"sentence"`             // Sentence index in section text (0-based)
	Type        ClaimType   `json:"type"`                 // Which pattern matched (first in canonical order wins)
	Specificity Specificity `json:"specificity"`          // Derived independently of type
	IsCited     bool        `json:"is_cited"`             // Whether the sentence carries an inline marker
	CitedID     int         `json:"cited_id,omitempty"`   // Citation id the marker references (0 if none)
	Confidence  Confidence  `json:"confidence,omitempty"` // Filled in by verification
	Severity    Severity    `json:"severity,omitempty"`   // Filled in by verification
	Action      Action      `json:"action,omitempty"`     // Filled in by verification
	Reason      string      `json:"reason,omitempty"`     // Short explanation for the decision
}

// ClaimType categorizes the nature of the claim
type ClaimType string

const (
	ClaimTypeMetric       ClaimType = "metric"        // Numeric quantity plus a unit of traction
	ClaimTypeFinancial    ClaimType = "financial"     // Currency amount
	ClaimTypeGrowth       ClaimType = "growth"        // Growth-rate phrasing
	ClaimTypePercentage   ClaimType = "percentage"    // Bare percentage
	ClaimTypeDate         ClaimType = "date"          // Calendar date
	ClaimTypeCustomerName ClaimType = "customer_name" // Named entity plus relationship ("customers include X")
	ClaimTypePricing      ClaimType = "pricing"       // Price-per-period phrasing
	ClaimTypeValuation    ClaimType = "valuation"     // Valuation phrasing
	ClaimTypeRunway       ClaimType = "runway"        // Runway-in-months phrasing
)

// HighRisk reports whether the claim type belongs to the high-risk tier,
// which requires stricter sourcing before acceptance.
func (t ClaimType) HighRisk() bool {
	switch t {
	case ClaimTypeMetric, ClaimTypeFinancial, ClaimTypePricing, ClaimTypeValuation, ClaimTypeGrowth:
		return true
	default:
		return false
	}
}

// Specificity grades how concrete the claim's sentence is
type Specificity string

const (
	SpecificityHigh   Specificity = "high"   // Contains a currency symbol or percentage
	SpecificityMedium Specificity = "medium" // Contains any digit
	SpecificityLow    Specificity = "low"    // No numeric content
)

// Confidence is the verification verdict for a claim
type Confidence string

const (
	ConfidenceVerified          Confidence = "verified"           // Carries a resolvable citation
	ConfidenceUnsourced         Confidence = "unsourced"          // Plausible per research but unattributed
	ConfidenceSuspicious        Confidence = "suspicious"         // No support found
	ConfidenceContradictsSource Confidence = "contradicts_source" // Conflicts with cited material
)

// Severity is the urgency tier of an unverified claim
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Action is the remediation the verifier requests for a claim
type Action string

const (
	ActionAccept        Action = "accept"
	ActionRequestSource Action = "request_source"
	ActionFlagForReview Action = "flag_for_review"
	ActionRemove        Action = "remove"
)
