package calendar

import "time"

// Padding marks a grid cell outside the requested dates
const Padding = ""

// WeekRow is one Sunday-first week of a month grid. Padding cells hold Padding.
type WeekRow [7]string

// Dates returns the non-padding cells of the row in order
func (w WeekRow) Dates() []string {
	dates := make([]string, 0, 7)
	for _, cell := range w {
		if cell != Padding {
			dates = append(dates, cell)
		}
	}
	return dates
}

// MonthGroup holds the dates of a single month keyed as YYYY-MM
type MonthGroup struct {
	Key   string
	Dates []string
}

// GroupByMonth buckets dates by YYYY-MM, keeping the order in which months first appear
func GroupByMonth(dates []string) []MonthGroup {
	var groups []MonthGroup
	index := make(map[string]int)

	for _, raw := range dates {
		date := Normalize(raw)
		if len(date) < 7 {
			continue
		}
		key := date[:7]

		i, ok := index[key]
		if !ok {
			i = len(groups)
			index[key] = i
			groups = append(groups, MonthGroup{Key: key})
		}
		groups[i].Dates = append(groups[i].Dates, date)
	}

	return groups
}

// GroupByWeeks lays dates out into Sunday-first week rows. The span runs from the
// Sunday on or before the earliest date to the Saturday on or after the latest one;
// days that are not in dates become Padding.
func GroupByWeeks(dates []string) []WeekRow {
	members := make(map[string]bool, len(dates))
	var first, last time.Time
	for _, raw := range dates {
		date := Normalize(raw)
		t, err := ParseDate(date)
		if err != nil {
			continue
		}
		members[date] = true
		if first.IsZero() || t.Before(first) {
			first = t
		}
		if last.IsZero() || t.After(last) {
			last = t
		}
	}

	if len(members) == 0 {
		return nil
	}

	start := first.AddDate(0, 0, -int(first.Weekday()))
	end := last.AddDate(0, 0, int(time.Saturday-last.Weekday()))

	var rows []WeekRow
	var row WeekRow
	cell := 0
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		date := day.Format(DateLayout)
		if members[date] {
			row[cell] = date
		}
		cell++
		if cell == 7 {
			rows = append(rows, row)
			row = WeekRow{}
			cell = 0
		}
	}
	// start and end are a Sunday and a Saturday, so cell is always 0 here
	if cell > 0 {
		rows = append(rows, row)
	}

	return rows
}
