package ocr

import (
	"regexp"
	"strings"
)

var (
	reDate   = regexp.MustCompile(`\b(\d{4}[-/.]\d{1,2}[-/.]\d{1,2}|\d{1,2}[-/.]\d{1,2}[-/.]\d{2,4}|\d{1,2} (jan|feb|mar|apr|may|jun|jul|aug|sep|oct|nov|dec)[a-z]* \d{2,4})\b`)
	reCurr   = regexp.MustCompile(`\b(usd|eur|gbp|cad|aud|inr|jpy|myr|rm|sgd|idr)\b|[$£€¥₹]`)
	reAmount = regexp.MustCompile(`\b\d{1,3}(,\d{3})*(\.\d{2})\b|\b\d+\.\d{2}\b`)
)

func hasDatePattern(s string) bool     { return reDate.MatchString(s) }
func hasCurrencyPattern(s string) bool { return reCurr.MatchString(s) }
func hasAmountPattern(s string) bool   { return reAmount.MatchString(s) }

// HeuristicConfidence scores decoded text by the presence of receipt-like
// artifacts (dates, currency markers, amounts) and sheer length.
func HeuristicConfidence(txt string) float32 {
	txtL := strings.ToLower(txt)
	score := float32(0.2) // base
	if hasDatePattern(txtL) {
		score += 0.2
	}
	if hasCurrencyPattern(txtL) {
		score += 0.15
	}
	if hasAmountPattern(txtL) {
		score += 0.15
	}
	if len(txt) > 120 {
		score += 0.1
	} // enough content
	if strings.TrimSpace(txt) == "" {
		score = 0
	}
	if score > 1.0 {
		score = 1.0
	}
	return score
}

// BlendConfidence weights the engine's own confidence higher when present.
func BlendConfidence(engine, heuristic float32) float32 {
	conf := heuristic
	if engine > 0 {
		conf = 0.7*engine + 0.3*heuristic
	}
	if conf > 1.0 {
		conf = 1.0
	}
	return conf
}
