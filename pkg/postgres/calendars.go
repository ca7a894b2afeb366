package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jakechorley/bandcal/pkg/db"
)

// UpsertBandCalendar sets a band's availability for one date
func (d *DB) UpsertBandCalendar(ctx context.Context, bandID, date string, isAvailable bool) (*db.BandCalendar, error) {
	var (
		cal    db.BandCalendar
		stored time.Time
	)
	err := d.pool.QueryRow(ctx, `
		INSERT INTO band_calendars (id, band_id, date, is_available)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (band_id, date) DO UPDATE SET is_available = EXCLUDED.is_available
		RETURNING id, band_id, date, is_available
	`, uuid.New().String(), bandID, date, isAvailable).Scan(&cal.ID, &cal.BandID, &stored, &cal.IsAvailable)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert band calendar: %w", err)
	}
	cal.Date = d.normalizer.Normalize(stored)
	return &cal, nil
}

// GetBandCalendar retrieves a band's calendar rows ordered by date
func (d *DB) GetBandCalendar(ctx context.Context, bandID string) ([]db.BandCalendar, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, band_id, date, is_available
		FROM band_calendars
		WHERE band_id = $1
		ORDER BY date ASC
	`, bandID)
	if err != nil {
		return nil, fmt.Errorf("failed to query band calendar: %w", err)
	}
	defer rows.Close()

	var calendars []db.BandCalendar
	for rows.Next() {
		var (
			cal  db.BandCalendar
			date time.Time
		)
		if err := rows.Scan(&cal.ID, &cal.BandID, &date, &cal.IsAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan band calendar: %w", err)
		}
		cal.Date = d.normalizer.Normalize(date)
		calendars = append(calendars, cal)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating band calendar: %w", err)
	}

	return db.DedupeBandCalendar(d.normalizer, calendars)
}

// GetFinalAvailability calls the server-side merge of band and bandmate availability
func (d *DB) GetFinalAvailability(ctx context.Context, bandID string) ([]db.FinalAvailabilityRow, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT date, is_available FROM get_band_availability_with_bandmates($1)
	`, bandID)
	if err != nil {
		return nil, fmt.Errorf("failed to call get_band_availability_with_bandmates: %w", err)
	}
	defer rows.Close()

	var result []db.FinalAvailabilityRow
	for rows.Next() {
		var (
			date        time.Time
			isAvailable bool
		)
		if err := rows.Scan(&date, &isAvailable); err != nil {
			return nil, fmt.Errorf("failed to scan final availability: %w", err)
		}
		result = append(result, db.FinalAvailabilityRow{Date: date, IsAvailable: isAvailable})
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating final availability: %w", err)
	}

	return result, nil
}
