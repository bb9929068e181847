package invoice

import (
	"regexp"
	"strings"
	"time"

	perr "auditor/internal/platform/errors"
)

// dateLayouts are tried in order; first match wins.
// Covers the formats the OCR layer is known to emit
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
	"01-02-2006",
	"01.02.2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"2 January 2006",
	"2-Jan-2006",
	"2-January-2006",
	"Jan 2 2006",
	"January 2 2006",
	"01/02/06",
	"2006-01-02 15:04:05",
	"01/02/2006 15:04:05",
}

var (
	monthYearRe = regexp.MustCompile(`^(\d{1,2})[/\-.](\d{4})$`)
	yearMonthRe = regexp.MustCompile(`^(\d{4})[/\-.](\d{1,2})$`)
)

// ParseDate normalizes an extracted date string to a UTC calendar date.
// Returns a Parse-coded error when no known layout matches
func ParseDate(s string) (time.Time, error) {
	clean := strings.TrimSpace(s)
	if clean == "" {
		return time.Time{}, perr.Parsef("empty date string")
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, clean); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}

	// Partial dates like "06/2023" or "2023/06" resolve to the first of the month
	if m := monthYearRe.FindStringSubmatch(clean); m != nil {
		if t, err := time.Parse("1 2006", m[1]+" "+m[2]); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}
	if m := yearMonthRe.FindStringSubmatch(clean); m != nil {
		if t, err := time.Parse("2006 1", m[1]+" "+m[2]); err == nil {
			return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC), nil
		}
	}

	return time.Time{}, perr.Parsef("could not parse date string: %q", s)
}
