package calendar

import (
	"sort"
	"time"
)

// DateLayout is the canonical calendar date representation (YYYY-MM-DD)
const DateLayout = "2006-01-02"

// DefaultWindowMonths is how many months past the current one the window reaches
const DefaultWindowMonths = 6

// ComputeWindow returns every calendar day from the first day of now's month
// through the last day of the month that is months after now's month, inclusive.
// The calendar fields are read from now in its own location.
func ComputeWindow(now time.Time, months int) []string {
	if months < 0 {
		months = 0
	}

	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the following month is the last day of the target month
	end := time.Date(now.Year(), now.Month()+time.Month(months)+1, 0, 0, 0, 0, 0, time.UTC)

	dates := make([]string, 0, int(end.Sub(start).Hours()/24)+1)
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		dates = append(dates, day.Format(DateLayout))
	}

	return dates
}

// Contains reports whether date falls inside the window
func Contains(window []string, date string) bool {
	if len(window) == 0 {
		return false
	}
	// Canonical strings sort chronologically
	return date >= window[0] && date <= window[len(window)-1]
}

// SortDates sorts canonical date strings chronologically and removes duplicates
func SortDates(dates []string) []string {
	sorted := make([]string, len(dates))
	copy(sorted, dates)
	sort.Strings(sorted)

	unique := sorted[:0]
	for i, d := range sorted {
		if i > 0 && d == sorted[i-1] {
			continue
		}
		unique = append(unique, d)
	}
	return unique
}

// Weekday returns the day of the week for a canonical date string
func Weekday(date string) (time.Weekday, error) {
	t, err := time.Parse(DateLayout, date)
	if err != nil {
		return 0, err
	}
	return t.Weekday(), nil
}
