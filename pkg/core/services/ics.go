package services

import (
	"fmt"
	"io"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/calendar"
)

const icsProductID = "-//bandcal//availability//EN"

// ExportICS writes the available dates of final within window as all-day events.
// Consecutive available dates are joined into a single multi-day event.
func ExportICS(w io.Writer, bandName string, final availability.FinalAvailability, window []string, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetXWRCalName(fmt.Sprintf("%s availability", bandName))

	for _, run := range availableRuns(final, window) {
		start, err := calendar.ParseDate(run[0])
		if err != nil {
			return fmt.Errorf("failed to parse date %s: %w", run[0], err)
		}
		end, err := calendar.ParseDate(run[1])
		if err != nil {
			return fmt.Errorf("failed to parse date %s: %w", run[1], err)
		}

		event := cal.AddEvent(fmt.Sprintf("%s-%s@bandcal", final.BandID, run[0]))
		event.SetDtStampTime(stamp.UTC())
		event.SetSummary(fmt.Sprintf("%s available", bandName))
		event.SetAllDayStartAt(start)
		// DTEND is exclusive for all-day events
		event.SetAllDayEndAt(end.AddDate(0, 0, 1))
		if final.Degraded() {
			event.SetDescription("Bandmate availability was not included")
		}
	}

	if err := cal.SerializeTo(w); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

// availableRuns returns [first, last] pairs of consecutive available window dates
func availableRuns(final availability.FinalAvailability, window []string) [][2]string {
	var (
		runs [][2]string
		prev time.Time
	)
	for _, date := range calendar.SortDates(window) {
		if !final.IsAvailable(date) {
			prev = time.Time{}
			continue
		}
		t, err := calendar.ParseDate(date)
		if err != nil {
			continue
		}
		if !prev.IsZero() && t.Equal(prev.AddDate(0, 0, 1)) {
			runs[len(runs)-1][1] = date
		} else {
			runs = append(runs, [2]string{date, date})
		}
		prev = t
	}
	return runs
}
