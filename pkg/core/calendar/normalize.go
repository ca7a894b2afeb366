package calendar

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	datePattern     = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	embeddedPattern = regexp.MustCompile(`\d{4}-\d{2}-\d{2}`)
)

// fallbackLayouts are tried, in order, for strings that carry no YYYY-MM-DD substring
var fallbackLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC850,
	time.ANSIC,
	time.UnixDate,
	"2006/01/02",
	"01/02/2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Monday, January 2, 2006",
}

// Normalizer canonicalizes date values into YYYY-MM-DD strings.
//
// Values that are exactly UTC midnight are read with UTC fields (dates coming
// from the database are timezone-agnostic and arrive as UTC midnight). Any other
// instant is read in the normalizer's local zone.
type Normalizer struct {
	local *time.Location
}

// NewNormalizer creates a normalizer that treats loc as the local zone.
// A nil loc means time.Local.
func NewNormalizer(loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.Local
	}
	return Normalizer{local: loc}
}

// Normalize canonicalizes v using time.Local as the local zone
func Normalize(v any) string {
	return NewNormalizer(nil).Normalize(v)
}

// Normalize converts a string, time.Time or *time.Time into a canonical date.
// Unrecognized input is returned as its string form rather than failing.
func (n Normalizer) Normalize(v any) string {
	switch val := v.(type) {
	case string:
		return n.normalizeString(val)
	case time.Time:
		return n.normalizeTime(val)
	case *time.Time:
		if val == nil {
			return ""
		}
		return n.normalizeTime(*val)
	case fmt.Stringer:
		return n.normalizeString(val.String())
	case nil:
		return ""
	default:
		return fmt.Sprint(v)
	}
}

// NormalizeKeys returns a copy of m with every key normalized.
// When two keys collapse onto the same date the later one in iteration order wins,
// so callers should not rely on mixed representations of one date in a single map.
func (n Normalizer) NormalizeKeys(m map[string]bool) map[string]bool {
	out := make(map[string]bool, len(m))
	for k, v := range m {
		out[n.Normalize(k)] = v
	}
	return out
}

func (n Normalizer) normalizeString(s string) string {
	trimmed := strings.TrimSpace(s)

	if datePattern.MatchString(trimmed) {
		return trimmed
	}

	if idx := strings.Index(trimmed, "T"); idx > 0 {
		if prefix := trimmed[:idx]; datePattern.MatchString(prefix) {
			return prefix
		}
	}

	if match := embeddedPattern.FindString(trimmed); match != "" {
		return match
	}

	for _, layout := range fallbackLayouts {
		if t, err := time.ParseInLocation(layout, trimmed, n.location()); err == nil {
			return n.normalizeTime(t)
		}
	}

	return s
}

func (n Normalizer) normalizeTime(t time.Time) string {
	u := t.UTC()
	if u.Hour() == 0 && u.Minute() == 0 && u.Second() == 0 && u.Nanosecond() == 0 {
		return u.Format(DateLayout)
	}
	return t.In(n.location()).Format(DateLayout)
}

// location returns the local zone, treating the zero Normalizer as time.Local
func (n Normalizer) location() *time.Location {
	if n.local == nil {
		return time.Local
	}
	return n.local
}

// IsCanonical reports whether s is already in YYYY-MM-DD form
func IsCanonical(s string) bool {
	return datePattern.MatchString(s)
}

// ParseDate parses a canonical date into UTC midnight
func ParseDate(date string) (time.Time, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", date, err)
	}
	return t, nil
}

// FormatForDisplay renders a date as "Monday, January 15, 2024"
func FormatForDisplay(v any) string {
	return formatAs(v, "Monday, January 2, 2006")
}

// FormatForGrid renders a date as "Jan 15"
func FormatForGrid(v any) string {
	return formatAs(v, "Jan 2")
}

// MonthName renders the month of a date as "January 2024"
func MonthName(v any) string {
	return formatAs(v, "January 2006")
}

func formatAs(v any, layout string) string {
	date := Normalize(v)
	t, err := ParseDate(date)
	if err != nil {
		return date
	}
	return t.Format(layout)
}
