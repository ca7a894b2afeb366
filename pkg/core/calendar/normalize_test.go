package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_EquivalentRepresentations(t *testing.T) {
	dates := []string{"2024-01-01", "2024-02-29", "2024-03-10", "2024-12-31"}
	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC-8", -8*60*60),
		time.FixedZone("UTC+13", 13*60*60),
	}

	for _, loc := range zones {
		n := NewNormalizer(loc)
		for _, d := range dates {
			asTimestamp := d + "T00:00:00.000Z"
			parsed, err := time.Parse(DateLayout, d)
			assert.NoError(t, err)

			assert.Equal(t, d, n.Normalize(d), "string in %s", loc)
			assert.Equal(t, d, n.Normalize(asTimestamp), "timestamp in %s", loc)
			assert.Equal(t, d, n.Normalize(parsed), "UTC midnight in %s", loc)
			assert.Equal(t, d, n.Normalize(&parsed), "pointer in %s", loc)
		}
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	n := NewNormalizer(time.FixedZone("UTC-5", -5*60*60))
	for _, d := range []string{"2024-03-01", "1999-12-31", "2030-06-15"} {
		once := n.Normalize(d)
		assert.Equal(t, d, once)
		assert.Equal(t, once, n.Normalize(once))
	}
}

func TestNormalize_Strings(t *testing.T) {
	n := NewNormalizer(time.UTC)

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"date only", "2024-03-01", "2024-03-01"},
		{"timestamp with offset", "2024-03-01T23:30:00+05:00", "2024-03-01"},
		{"timestamp without zone", "2024-03-01T10:00:00", "2024-03-01"},
		{"embedded date", "date: 2024-03-01 (Fri)", "2024-03-01"},
		{"first embedded date wins", "2024-03-01..2024-03-05", "2024-03-01"},
		{"surrounding whitespace", "  2024-03-01 ", "2024-03-01"},
		{"slash layout", "2024/03/01", "2024-03-01"},
		{"long form", "March 1, 2024", "2024-03-01"},
		{"unparseable passthrough", "not a date", "not a date"},
		{"empty passthrough", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, n.Normalize(tt.input))
		})
	}
}

func TestNormalize_NonMidnightUsesLocalZone(t *testing.T) {
	loc := time.FixedZone("UTC-8", -8*60*60)
	n := NewNormalizer(loc)

	// Local midnight on March 1st in UTC-8 is 08:00 UTC, not UTC midnight
	localMidnight := time.Date(2024, 3, 1, 0, 0, 0, 0, loc)
	assert.Equal(t, "2024-03-01", n.Normalize(localMidnight))

	// 02:00 UTC on March 2nd is still March 1st evening in UTC-8
	lateEvening := time.Date(2024, 3, 2, 2, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01", n.Normalize(lateEvening))
}

func TestNormalize_UTCMidnightIgnoresLocalZone(t *testing.T) {
	n := NewNormalizer(time.FixedZone("UTC-8", -8*60*60))

	// A database date arrives as UTC midnight; reading it in UTC-8 would shift it a day back
	fromDB := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "2024-03-01", n.Normalize(fromDB))
}

func TestNormalize_OtherTypes(t *testing.T) {
	n := NewNormalizer(time.UTC)

	var nilTime *time.Time
	assert.Equal(t, "", n.Normalize(nilTime))
	assert.Equal(t, "", n.Normalize(nil))
	assert.Equal(t, "42", n.Normalize(42))
}

func TestNormalizeKeys(t *testing.T) {
	n := NewNormalizer(time.UTC)
	got := n.NormalizeKeys(map[string]bool{
		"2024-03-01T00:00:00Z": true,
		"2024-03-02":           false,
	})
	assert.Equal(t, map[string]bool{"2024-03-01": true, "2024-03-02": false}, got)
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "Monday, January 15, 2024", FormatForDisplay("2024-01-15"))
	assert.Equal(t, "Jan 15", FormatForGrid("2024-01-15T00:00:00Z"))
	assert.Equal(t, "January 2024", MonthName(time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, "garbage", FormatForGrid("garbage"))
}
