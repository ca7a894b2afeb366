package db

import (
	"fmt"

	"github.com/jakechorley/bandcal/pkg/core/calendar"
)

// DedupeBandCalendar collapses rows that refer to the same calendar date.
// Dates are normalized first, since the store does not guarantee a single
// representation. Rows with the same date and value are merged; rows with the
// same date and conflicting values are a data integrity violation.
func DedupeBandCalendar(n calendar.Normalizer, rows []BandCalendar) ([]BandCalendar, error) {
	byDate := make(map[string]int, len(rows))
	result := make([]BandCalendar, 0, len(rows))

	for _, row := range rows {
		row.Date = n.Normalize(row.Date)

		i, exists := byDate[row.Date]
		if !exists {
			byDate[row.Date] = len(result)
			result = append(result, row)
			continue
		}

		if result[i].IsAvailable != row.IsAvailable {
			return nil, fmt.Errorf(
				"data integrity violation: conflicting band_calendars rows for band_id=%s date=%s (ids %s, %s)",
				row.BandID, row.Date, result[i].ID, row.ID,
			)
		}
	}

	return result, nil
}

// DedupeBandmateAvailability is DedupeBandCalendar for bandmate rows
func DedupeBandmateAvailability(n calendar.Normalizer, rows []BandmateAvailability) ([]BandmateAvailability, error) {
	byDate := make(map[string]int, len(rows))
	result := make([]BandmateAvailability, 0, len(rows))

	for _, row := range rows {
		row.Date = n.Normalize(row.Date)

		i, exists := byDate[row.Date]
		if !exists {
			byDate[row.Date] = len(result)
			result = append(result, row)
			continue
		}

		if result[i].IsUnavailable != row.IsUnavailable {
			return nil, fmt.Errorf(
				"data integrity violation: conflicting bandmate_availability rows for bandmate_id=%s date=%s (ids %s, %s)",
				row.BandmateID, row.Date, result[i].ID, row.ID,
			)
		}
	}

	return result, nil
}
