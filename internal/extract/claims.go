package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/mpetrov/draftgate/internal/model"
)

// Extractor segments section text into sentences and classifies each
// against an ordered list of claim-type patterns. The first matching
// pattern in canonical order wins: a sentence carries at most one claim
// type even when several patterns match. The order below is behavior —
// reordering changes classification and requires test updates.
//
// Canonical order: metric, financial, growth, percentage, date,
// customer_name, pricing, valuation, runway. Growth precedes bare
// percentages so rate-of-change sentences ("grew 35% MoM") keep the
// stricter high-risk tier instead of degrading to percentage.
type Extractor struct {
	patterns []typePattern
}

type typePattern struct {
	claimType model.ClaimType
	re        *regexp.Regexp
}

var (
	markerRe   = regexp.MustCompile(`\[\^(\d+)\]`)
	digitRe    = regexp.MustCompile(`\d`)
	currencyRe = regexp.MustCompile(`[$€£¥]|%`)
)

// NewExtractor creates an extractor with the canonical pattern order.
func NewExtractor() *Extractor {
	return &Extractor{
		patterns: []typePattern{
			{model.ClaimTypeMetric, regexp.MustCompile(`(?i)\b\d[\d,.]*\s*(?:k|m|b|million|billion|thousand)?\+?\s*(?:users|customers|subscribers|downloads|installs|seats|merchants|clients|accounts|stores|locations|transactions|orders|dau|mau)\b`)},
			{model.ClaimTypeFinancial, regexp.MustCompile(`(?i)[$€£¥]\s?\d[\d,.]*\s*(?:k|m|b|mm|million|billion|thousand)?\b|\b\d[\d,.]*\s*(?:million|billion|thousand)?\s*(?:dollars|euros|pounds|usd|eur|gbp)\b`)},
			{model.ClaimTypeGrowth, regexp.MustCompile(`(?i)\b(?:grew|grow(?:s|n|th|ing)?|increas(?:e|ed|ing)|decreas(?:e|ed|ing)|declin(?:e|ed|ing)|rose|surged|jumped|doubled|tripled|expanded)\b|\b(?:mom|yoy|qoq)\b|month[- ]over[- ]month|year[- ]over[- ]year`)},
			{model.ClaimTypePercentage, regexp.MustCompile(`(?i)\d+(?:\.\d+)?\s?(?:%|percent)`)},
			{model.ClaimTypeDate, regexp.MustCompile(`(?i)\b(?:january|february|march|april|may|june|july|august|september|october|november|december)\s+\d{1,2}(?:st|nd|rd|th)?(?:,?\s*\d{4})?\b|\b(?:19|20)\d{2}\b|\bq[1-4]\s*(?:19|20)\d{2}\b`)},
			{model.ClaimTypeCustomerName, regexp.MustCompile(`(?i)\b(?:customers?|clients?|partners?|accounts?)\s+(?:include|included|includes|such as|like)\b|\bsigned\s+[A-Z][\w&]*`)},
			{model.ClaimTypePricing, regexp.MustCompile(`(?i)\b\d[\d,.]*\s*(?:per|/)\s*(?:month|year|seat|user|unit|annum|license)\b|\b(?:pric(?:e|ed|ing)|costs?|charg(?:e|es|ed|ing)|subscription)\b.*\b(?:per|/)\s*(?:month|year|seat|user|unit|annum|license)\b`)},
			{model.ClaimTypeValuation, regexp.MustCompile(`(?i)\bvaluation\b|\bvalued\s+at\b|\bpost-money\b|\bpre-money\b|\bmarket\s+cap\b`)},
			{model.ClaimTypeRunway, regexp.MustCompile(`(?i)\brunway\b|\bmonths?\s+of\s+(?:cash|capital)\b`)},
		},
	}
}

// Extract produces the ordered claim list for section text. Confidence,
// severity, and action are left for the verifier. The stage performs no
// I/O: identical input always yields an identical list in the same
// order.
func (e *Extractor) Extract(text string) []model.Claim {
	sentences := SplitSentences(text)

	var claims []model.Claim
	for i, sentence := range sentences {
		claimType, matched := e.classify(sentence)
		if !matched {
			continue
		}

		claim := model.Claim{
			Text:        sentence,
			Sentence:    i,
			Type:        claimType,
			Specificity: specificity(sentence),
		}
		if m := markerRe.FindStringSubmatch(sentence); m != nil {
			claim.IsCited = true
			claim.CitedID, _ = strconv.Atoi(m[1])
		}
		claims = append(claims, claim)
	}
	return claims
}

// classify returns the first matching claim type in canonical order.
func (e *Extractor) classify(sentence string) (model.ClaimType, bool) {
	for _, p := range e.patterns {
		if p.re.MatchString(sentence) {
			return p.claimType, true
		}
	}
	return "", false
}

// specificity is derived independently of claim type: high for currency
// or percentage content, medium for any digit, low otherwise.
func specificity(sentence string) model.Specificity {
	switch {
	case currencyRe.MatchString(sentence):
		return model.SpecificityHigh
	case digitRe.MatchString(sentence):
		return model.SpecificityMedium
	default:
		return model.SpecificityLow
	}
}

// SplitSentences splits text on terminal punctuation boundaries. A
// citation marker trailing the punctuation ("... 2024. [^3]") stays
// with the sentence it annotates. Decimal points and abbreviations do
// not split because a boundary requires whitespace after the
// terminator.
func SplitSentences(text string) []string {
	text = strings.ReplaceAll(text, "\n", " ")
	runes := []rune(text)

	var sentences []string
	var current strings.Builder

	flush := func() {
		if s := strings.TrimSpace(current.String()); s != "" {
			sentences = append(sentences, s)
		}
		current.Reset()
	}

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		current.WriteRune(r)

		if r != '.' && r != '!' && r != '?' {
			continue
		}

		// Skip whitespace after the terminator
		j := i + 1
		for j < len(runes) && (runes[j] == ' ' || runes[j] == '\t') {
			j++
		}

		if end := markerEnd(runes, j); end > j {
			// Trailing citation marker belongs to this sentence
			current.WriteRune(' ')
			current.WriteString(string(runes[j:end]))
			i = end - 1
			flush()
			continue
		}

		if j == i+1 && j < len(runes) {
			// No whitespace follows: decimal point or abbreviation
			continue
		}

		flush()
		i = j - 1
	}

	flush()
	return sentences
}

// markerEnd returns the index just past a [^N] marker starting at pos,
// or pos when there is none.
func markerEnd(runes []rune, pos int) int {
	if pos+2 >= len(runes) || runes[pos] != '[' || runes[pos+1] != '^' {
		return pos
	}
	i := pos + 2
	start := i
	for i < len(runes) && runes[i] >= '0' && runes[i] <= '9' {
		i++
	}
	if i == start || i >= len(runes) || runes[i] != ']' {
		return pos
	}
	return i + 1
}
