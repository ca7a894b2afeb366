package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/bandcal/pkg/db"
)

const bandColumns = `id, name, leader_id, calendar_submitted, COALESCE(share_token, ''), created_at, updated_at`

// GetBand retrieves a band by ID, returning db.ErrNotFound if it does not exist
func (d *DB) GetBand(ctx context.Context, id string) (*db.Band, error) {
	row := d.pool.QueryRow(ctx, `SELECT `+bandColumns+` FROM bands WHERE id = $1`, id)

	band, err := scanBand(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("band %s: %w", id, db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get band: %w", err)
	}
	return band, nil
}

// GetSubmittedBands retrieves every band whose calendar has been submitted, ordered by name
func (d *DB) GetSubmittedBands(ctx context.Context) ([]db.Band, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT `+bandColumns+`
		FROM bands
		WHERE calendar_submitted
		ORDER BY name ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to query submitted bands: %w", err)
	}
	defer rows.Close()

	var bands []db.Band
	for rows.Next() {
		band, err := scanBand(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan band: %w", err)
		}
		bands = append(bands, *band)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bands: %w", err)
	}

	return bands, nil
}

// InsertBand inserts a new band record
func (d *DB) InsertBand(ctx context.Context, band *db.Band) error {
	err := d.pool.QueryRow(ctx, `
		INSERT INTO bands (id, name, leader_id, calendar_submitted, share_token)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''))
		RETURNING created_at, updated_at
	`, band.ID, band.Name, band.LeaderID, band.CalendarSubmitted, band.ShareToken).Scan(&band.CreatedAt, &band.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert band: %w", err)
	}
	return nil
}

// SetCalendarSubmitted marks a band's calendar as submitted (or not)
func (d *DB) SetCalendarSubmitted(ctx context.Context, bandID string, submitted bool) error {
	tag, err := d.pool.Exec(ctx, `
		UPDATE bands SET calendar_submitted = $2, updated_at = NOW() WHERE id = $1
	`, bandID, submitted)
	if err != nil {
		return fmt.Errorf("failed to set calendar_submitted: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("band %s: %w", bandID, db.ErrNotFound)
	}
	return nil
}

func scanBand(row pgx.Row) (*db.Band, error) {
	var b db.Band
	if err := row.Scan(&b.ID, &b.Name, &b.LeaderID, &b.CalendarSubmitted, &b.ShareToken, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return nil, err
	}
	return &b, nil
}
