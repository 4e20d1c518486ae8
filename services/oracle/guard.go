package oracle

import (
	"regexp"
	"strings"
)

// FieldFinding is instruction-like text found in a free-text transaction field
type FieldFinding struct {
	Field   string
	Kind    string
	Pattern string
}

var (
	overridePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)ignore\s+(previous|all|above|prior)\s+(instructions?|prompts?|policies|rules)`),
		regexp.MustCompile(`(?i)disregard\s+(all|previous|above|any)\s+(instructions?|rules|policies)`),
		regexp.MustCompile(`(?i)override\s+(all|previous|system)\s+(instructions?|rules|policies)`),
		regexp.MustCompile(`(?i)forget\s+(everything|all\s+previous)`),
	}

	verdictPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)(mark|classify|flag|treat)\s+(this|it|the\s+transaction)\s+as\s+(safe|approved|compliant)`),
		regexp.MustCompile(`(?i)"decision"\s*:`),
		regexp.MustCompile(`(?i)(you|your)\s+(are|role)\s+(now|is)`),
	}

	delimiterPattern = regexp.MustCompile(`(\[/?(SYSTEM|USER|ASSISTANT)\]|<\|(system|user|assistant|end)\|>|###\s*(SYSTEM|USER|ASSISTANT|INSTRUCTION))`)
)

// ScreenField reports instruction-like content in a single field value
func ScreenField(field, value string) []FieldFinding {
	var findings []FieldFinding
	for _, p := range overridePatterns {
		if m := p.FindString(value); m != "" {
			findings = append(findings, FieldFinding{Field: field, Kind: "instruction_override", Pattern: m})
		}
	}
	for _, p := range verdictPatterns {
		if m := p.FindString(value); m != "" {
			findings = append(findings, FieldFinding{Field: field, Kind: "verdict_steering", Pattern: m})
		}
	}
	if m := delimiterPattern.FindString(value); m != "" {
		findings = append(findings, FieldFinding{Field: field, Kind: "delimiter", Pattern: m})
	}
	return findings
}

// SanitizeField strips chat role delimiters and collapses whitespace
func SanitizeField(value string) string {
	value = delimiterPattern.ReplaceAllString(value, " ")
	return strings.Join(strings.Fields(value), " ")
}
