package timedataset

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the canonical calendar date layout used for inputs and outputs
const DateLayout = "2006-01-02"

var ErrUnknownDateLayout = errors.New("date does not match any known layout")

// dateLayouts lists accepted input layouts. The compact layout is what GA4 exports emit.
var dateLayouts = []string{
	DateLayout,
	"20060102",
	time.RFC3339,
}

// ParseDate parses a calendar date in any of the accepted layouts and truncates it to
// midnight UTC of that calendar day.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
	}
	return time.Time{}, fmt.Errorf("unable to parse %q, %w", s, ErrUnknownDateLayout)
}

// FormatDate renders a time point as a canonical calendar date
func FormatDate(t time.Time) string {
	return t.UTC().Format(DateLayout)
}
