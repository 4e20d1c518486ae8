package oracle

import (
	"errors"
	"testing"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseVerdict(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		want       models.Decision
		reason     string
		recognized bool
	}{
		{
			name:       "plain object",
			raw:        `{"decision": "SAFE", "reason": "Coffee is allowed"}`,
			want:       models.DecisionSafe,
			reason:     "Coffee is allowed",
			recognized: true,
		},
		{
			name:       "json fence",
			raw:        "```json\n{\"decision\": \"VIOLATION\", \"reason\": \"Gambling is forbidden\"}\n```",
			want:       models.DecisionViolation,
			reason:     "Gambling is forbidden",
			recognized: true,
		},
		{
			name:       "bare fence with prose around it",
			raw:        "Here is my answer:\n```\n{\"decision\": \"suspicious\", \"reason\": \"Unusual amount\"}\n```\nThanks.",
			want:       models.DecisionSuspicious,
			reason:     "Unusual amount",
			recognized: true,
		},
		{
			name:       "prose without fence",
			raw:        `Verdict: {"decision": "Safe", "reason": " fine "} end`,
			want:       models.DecisionSafe,
			reason:     "fine",
			recognized: true,
		},
		{
			name:       "trailing prose with braces",
			raw:        `{"decision": "SAFE", "reason": "within limits"} Note: policy {Travel} applies.`,
			want:       models.DecisionSafe,
			reason:     "within limits",
			recognized: true,
		},
		{
			name:       "first of two objects wins",
			raw:        `{"decision": "VIOLATION", "reason": "over limit"}{"decision": "SAFE", "reason": "second"}`,
			want:       models.DecisionViolation,
			reason:     "over limit",
			recognized: true,
		},
		{
			name:       "unrecognized tag is returned upper-cased",
			raw:        `{"decision": "maybe", "reason": "unsure"}`,
			want:       models.Decision("MAYBE"),
			reason:     "unsure",
			recognized: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := ParseVerdict(tt.raw)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Decision)
			assert.Equal(t, tt.reason, v.Reason)
			assert.Equal(t, tt.recognized, v.Recognized())
		})
	}
}

func TestParseVerdict_Malformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"no object", "I think it is fine"},
		{"invalid json", `{"decision": SAFE}`},
		{"missing decision", `{"reason": "no tag"}`},
		{"empty decision", `{"decision": "  ", "reason": "x"}`},
		{"missing reason", `{"decision": "SAFE"}`},
		{"empty reason", `{"decision": "SAFE", "reason": ""}`},
		{"legacy boolean shape", `{"violation": true, "reason": "x"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseVerdict(tt.raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrMalformedVerdict))
		})
	}
}
