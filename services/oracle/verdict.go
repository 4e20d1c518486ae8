package oracle

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/amulyarudresh/CorpCard-Sentinel/models"
)

var (
	// ErrOracleUnavailable is returned when the oracle could not be invoked
	ErrOracleUnavailable = errors.New("oracle unavailable")

	// ErrMalformedVerdict is returned when the oracle reply has no usable verdict
	ErrMalformedVerdict = errors.New("malformed oracle verdict")
)

var fencePattern = regexp.MustCompile("(?s)```[A-Za-z]*\\s*(.*?)```")

// Verdict is a parsed oracle classification. Decision holds the upper-cased
// tag even when it is not one of the known values.
type Verdict struct {
	Decision models.Decision `json:"decision"`
	Reason   string          `json:"reason"`
}

// Recognized reports whether the tag is SAFE, VIOLATION or SUSPICIOUS
func (v Verdict) Recognized() bool {
	_, ok := models.ParseDecision(string(v.Decision))
	return ok
}

// ParseVerdict extracts the decision payload from a free-text oracle reply.
// It strips fenced code blocks and any prose around the first object; text
// after that object is ignored.
func ParseVerdict(raw string) (Verdict, error) {
	content := strings.TrimSpace(raw)
	if m := fencePattern.FindStringSubmatch(content); m != nil {
		content = strings.TrimSpace(m[1])
	}

	start := strings.Index(content, "{")
	if start < 0 {
		return Verdict{}, fmt.Errorf("%w: no JSON object in response", ErrMalformedVerdict)
	}

	var payload struct {
		Decision *string `json:"decision"`
		Reason   *string `json:"reason"`
	}
	if err := json.NewDecoder(strings.NewReader(content[start:])).Decode(&payload); err != nil {
		return Verdict{}, fmt.Errorf("%w: %v", ErrMalformedVerdict, err)
	}

	if payload.Decision == nil || strings.TrimSpace(*payload.Decision) == "" {
		return Verdict{}, fmt.Errorf("%w: missing decision", ErrMalformedVerdict)
	}
	if payload.Reason == nil || strings.TrimSpace(*payload.Reason) == "" {
		return Verdict{}, fmt.Errorf("%w: missing reason", ErrMalformedVerdict)
	}

	decision, _ := models.ParseDecision(*payload.Decision)
	return Verdict{
		Decision: decision,
		Reason:   strings.TrimSpace(*payload.Reason),
	}, nil
}
