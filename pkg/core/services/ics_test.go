package services

import (
	"bytes"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jakechorley/bandcal/pkg/core/availability"
)

func TestAvailableRuns(t *testing.T) {
	final := availability.FinalAvailability{
		Dates: availability.Map{
			"2024-03-01": true,
			"2024-03-02": true,
			"2024-03-03": false,
			"2024-03-04": true,
		},
		Policy: availability.AssumeUnavailable,
	}
	window := []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05"}

	runs := availableRuns(final, window)

	assert.Equal(t, [][2]string{
		{"2024-03-01", "2024-03-02"},
		{"2024-03-04", "2024-03-04"},
	}, runs)
}

func TestExportICS(t *testing.T) {
	final := availability.FinalAvailability{
		BandID: "band-1",
		Dates:  availability.Map{"2024-03-01": true, "2024-03-02": true, "2024-03-04": true},
		Policy: availability.AssumeUnavailable,
	}
	window := []string{"2024-03-01", "2024-03-02", "2024-03-03", "2024-03-04"}

	var buf bytes.Buffer
	err := ExportICS(&buf, "The Mods", final, window, time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	cal, err := ical.ParseCalendar(&buf)
	require.NoError(t, err)

	events := cal.Events()
	require.Len(t, events, 2)
	assert.Equal(t, "20240301", events[0].GetProperty(ical.ComponentPropertyDtStart).Value)
	assert.Equal(t, "20240303", events[0].GetProperty(ical.ComponentPropertyDtEnd).Value)
	assert.Equal(t, "The Mods available", events[0].GetProperty(ical.ComponentPropertySummary).Value)
	assert.Equal(t, "20240304", events[1].GetProperty(ical.ComponentPropertyDtStart).Value)
}
