package models

import (
	"strings"
	"time"
)

// DateLayout is the canonical storage form of every date column.
const DateLayout = "2006-01-02"

// Placeholders written for unset dates by older exports and form submissions.
var nullDateMarkers = map[string]bool{
	"":     true,
	"none": true,
	"nan":  true,
	"nat":  true,
	"null": true,
}

// Day-first layouts follow the clinic's locale: "05/03/2024" is 5 March. Older
// spreadsheet tooling read such dates month-first, so legacy rows with ambiguous
// slash dates may order differently in the delivery schedule than they did there.
var dateLayouts = []string{
	DateLayout,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"2006/01/02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"02/01/06",
}

// ParseDate parses a stored or user-supplied date permissively.
// Unset placeholders and unparseable text report false; it never fails.
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if nullDateMarkers[strings.ToLower(s)] {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
		}
	}
	return time.Time{}, false
}

// ParseDatePtr is ParseDate over a nullable column.
func ParseDatePtr(s *string) (time.Time, bool) {
	if s == nil {
		return time.Time{}, false
	}
	return ParseDate(*s)
}

// IsNullDate reports whether s is empty or one of the unset placeholders.
func IsNullDate(s string) bool {
	return nullDateMarkers[strings.ToLower(strings.TrimSpace(s))]
}
