package applicationdomain

import (
	"strings"
	"time"

	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var absoluteLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	"2006-01-02",
}

// OccurredParser turns the free-form "occurred" field into a UTC timestamp.
// Accepts RFC 3339, plain dates, and English phrases like "yesterday 3pm".
type OccurredParser struct {
	w *when.Parser
}

// NewOccurredParser creates a parser with the English and common rule sets.
func NewOccurredParser() *OccurredParser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return &OccurredParser{w: w}
}

// Parse resolves raw relative to now. Empty input means now.
func (p *OccurredParser) Parse(raw string, now time.Time) (time.Time, error) {
	input := strings.TrimSpace(raw)
	now = now.UTC()
	if input == "" {
		return now, nil
	}

	for _, layout := range absoluteLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return t.UTC(), nil
		}
	}

	r, err := p.w.Parse(strings.ToLower(input), now)
	if err != nil || r == nil {
		return time.Time{}, apperrors.Invalid("occurred", "could not understand %q", raw)
	}
	return r.Time.UTC(), nil
}
