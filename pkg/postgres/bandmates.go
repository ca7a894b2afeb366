package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jakechorley/bandcal/pkg/db"
)

// InsertBandmate inserts a new bandmate record
func (d *DB) InsertBandmate(ctx context.Context, bandmate *db.Bandmate) error {
	_, err := d.pool.Exec(ctx, `
		INSERT INTO bandmates (id, band_id, name, token)
		VALUES ($1, $2, NULLIF($3, ''), $4)
	`, bandmate.ID, bandmate.BandID, bandmate.Name, bandmate.Token)
	if err != nil {
		return fmt.Errorf("failed to insert bandmate: %w", err)
	}
	return nil
}

// GetBandmates retrieves all bandmates of a band
func (d *DB) GetBandmates(ctx context.Context, bandID string) ([]db.Bandmate, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, band_id, COALESCE(name, ''), token
		FROM bandmates
		WHERE band_id = $1
		ORDER BY created_at ASC
	`, bandID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bandmates: %w", err)
	}
	defer rows.Close()

	var bandmates []db.Bandmate
	for rows.Next() {
		var bm db.Bandmate
		if err := rows.Scan(&bm.ID, &bm.BandID, &bm.Name, &bm.Token); err != nil {
			return nil, fmt.Errorf("failed to scan bandmate: %w", err)
		}
		bandmates = append(bandmates, bm)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bandmates: %w", err)
	}

	return bandmates, nil
}

// GetBandmateByToken resolves an access token, returning db.ErrNotFound for unknown tokens
func (d *DB) GetBandmateByToken(ctx context.Context, token string) (*db.Bandmate, error) {
	var bm db.Bandmate
	err := d.pool.QueryRow(ctx, `
		SELECT id, band_id, COALESCE(name, ''), token
		FROM bandmates
		WHERE token = $1
	`, token).Scan(&bm.ID, &bm.BandID, &bm.Name, &bm.Token)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("invalid token: %w", db.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get bandmate by token: %w", err)
	}
	return &bm, nil
}

// UpsertBandmateAvailability sets a bandmate's unavailability for one date
func (d *DB) UpsertBandmateAvailability(ctx context.Context, bandmateID, date string, isUnavailable bool) (*db.BandmateAvailability, error) {
	var (
		row    db.BandmateAvailability
		stored time.Time
	)
	err := d.pool.QueryRow(ctx, `
		INSERT INTO bandmate_availability (id, bandmate_id, date, is_unavailable)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (bandmate_id, date) DO UPDATE SET is_unavailable = EXCLUDED.is_unavailable
		RETURNING id, bandmate_id, date, is_unavailable
	`, uuid.New().String(), bandmateID, date, isUnavailable).Scan(&row.ID, &row.BandmateID, &stored, &row.IsUnavailable)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert bandmate availability: %w", err)
	}
	row.Date = d.normalizer.Normalize(stored)
	return &row, nil
}

// GetBandmateAvailability retrieves a bandmate's rows ordered by date
func (d *DB) GetBandmateAvailability(ctx context.Context, bandmateID string) ([]db.BandmateAvailability, error) {
	rows, err := d.pool.Query(ctx, `
		SELECT id, bandmate_id, date, is_unavailable
		FROM bandmate_availability
		WHERE bandmate_id = $1
		ORDER BY date ASC
	`, bandmateID)
	if err != nil {
		return nil, fmt.Errorf("failed to query bandmate availability: %w", err)
	}
	defer rows.Close()

	var result []db.BandmateAvailability
	for rows.Next() {
		var (
			row  db.BandmateAvailability
			date time.Time
		)
		if err := rows.Scan(&row.ID, &row.BandmateID, &date, &row.IsUnavailable); err != nil {
			return nil, fmt.Errorf("failed to scan bandmate availability: %w", err)
		}
		row.Date = d.normalizer.Normalize(date)
		result = append(result, row)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating bandmate availability: %w", err)
	}

	return db.DedupeBandmateAvailability(d.normalizer, result)
}
