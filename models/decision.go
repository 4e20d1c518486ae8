package models

import "strings"

// Decision is the verdict tag produced for a transaction
type Decision string

const (
	DecisionSafe         Decision = "SAFE"
	DecisionViolation    Decision = "VIOLATION"
	DecisionSuspicious   Decision = "SUSPICIOUS"
	DecisionManualReview Decision = "MANUAL_REVIEW"
)

// ParseDecision matches a tag case-insensitively.
// The second return value is false for unrecognized tags.
func ParseDecision(raw string) (Decision, bool) {
	d := Decision(strings.ToUpper(strings.TrimSpace(raw)))
	switch d {
	case DecisionSafe, DecisionViolation, DecisionSuspicious:
		return d, true
	}
	return d, false
}
