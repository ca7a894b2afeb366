package calendar

import (
	"fmt"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// WeekendNightsRule selects Friday, Saturday and Sunday nights
const WeekendNightsRule = "FREQ=WEEKLY;BYDAY=FR,SA,SU"

// ScheduleFilter restricts a window to the days a recurrence rule selects.
// A zero ScheduleFilter lets every date through.
type ScheduleFilter struct {
	rule string
	opt  *rrule.ROption
}

// NewScheduleFilter parses an RRULE string. An empty rule matches every day.
func NewScheduleFilter(rule string) (ScheduleFilter, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return ScheduleFilter{}, nil
	}

	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return ScheduleFilter{}, fmt.Errorf("invalid schedule rule %q: %w", rule, err)
	}

	return ScheduleFilter{rule: rule, opt: opt}, nil
}

// Rule returns the source rule string
func (f ScheduleFilter) Rule() string {
	return f.rule
}

// Apply returns the dates of window (assumed chronological) selected by the rule
func (f ScheduleFilter) Apply(window []string) ([]string, error) {
	if f.opt == nil || len(window) == 0 {
		out := make([]string, len(window))
		copy(out, window)
		return out, nil
	}

	first, err := ParseDate(window[0])
	if err != nil {
		return nil, err
	}
	last, err := ParseDate(window[len(window)-1])
	if err != nil {
		return nil, err
	}

	// Anchor the rule at the window start so the recurrence covers the whole span
	opt := *f.opt
	opt.Dtstart = first
	opt.Until = time.Time{}
	opt.Count = 0
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("failed to build schedule rule: %w", err)
	}

	selected := make(map[string]bool)
	for _, occ := range r.Between(first, last.Add(24*time.Hour-time.Nanosecond), true) {
		selected[occ.UTC().Format(DateLayout)] = true
	}

	out := make([]string, 0, len(selected))
	for _, date := range window {
		if selected[date] {
			out = append(out, date)
		}
	}
	return out, nil
}
