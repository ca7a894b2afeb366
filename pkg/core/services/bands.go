package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/db"
)

const (
	bandmateTokenLength = 32
	shareTokenLength    = 24
)

// CreateBandStore defines the database operations needed to create a band
type CreateBandStore interface {
	InsertBand(ctx context.Context, band *db.Band) error
}

// CreateBand registers a new band led by leaderID
func CreateBand(ctx context.Context, database CreateBandStore, logger *zap.Logger, leaderID, name string) (*db.Band, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("band name is required")
	}
	if strings.TrimSpace(leaderID) == "" {
		return nil, fmt.Errorf("leader id is required")
	}

	band := &db.Band{
		ID:         uuid.New().String(),
		Name:       name,
		LeaderID:   leaderID,
		ShareToken: newToken(shareTokenLength),
	}

	if err := database.InsertBand(ctx, band); err != nil {
		return nil, fmt.Errorf("failed to create band: %w", err)
	}

	logger.Info("Band created",
		zap.String("band_id", band.ID),
		zap.String("name", band.Name))

	return band, nil
}

// SubmitCalendarStore defines the database operations needed to submit a calendar
type SubmitCalendarStore interface {
	SetCalendarSubmitted(ctx context.Context, bandID string, submitted bool) error
}

// SubmitCalendar marks the band's calendar as submitted, making it visible publicly
func SubmitCalendar(ctx context.Context, database SubmitCalendarStore, logger *zap.Logger, bandID string) error {
	if err := database.SetCalendarSubmitted(ctx, bandID, true); err != nil {
		return fmt.Errorf("failed to submit calendar: %w", err)
	}
	logger.Info("Calendar submitted", zap.String("band_id", bandID))
	return nil
}

// AddBandmateStore defines the database operations needed to add a bandmate
type AddBandmateStore interface {
	GetBand(ctx context.Context, id string) (*db.Band, error)
	InsertBandmate(ctx context.Context, bandmate *db.Bandmate) error
}

// AddBandmate creates a bandmate link for bandID. The returned token is the only
// credential the bandmate needs.
func AddBandmate(ctx context.Context, database AddBandmateStore, logger *zap.Logger, bandID, name string) (*db.Bandmate, error) {
	if _, err := database.GetBand(ctx, bandID); err != nil {
		return nil, fmt.Errorf("failed to find band: %w", err)
	}

	bandmate := &db.Bandmate{
		ID:     uuid.New().String(),
		BandID: bandID,
		Name:   strings.TrimSpace(name),
		Token:  newToken(bandmateTokenLength),
	}

	if err := database.InsertBandmate(ctx, bandmate); err != nil {
		return nil, fmt.Errorf("failed to create bandmate link: %w", err)
	}

	logger.Info("Bandmate link created",
		zap.String("band_id", bandID),
		zap.String("bandmate_id", bandmate.ID))

	return bandmate, nil
}

// ResolveTokenStore defines the database operations needed to resolve a bandmate token
type ResolveTokenStore interface {
	GetBandmateByToken(ctx context.Context, token string) (*db.Bandmate, error)
	GetBand(ctx context.Context, id string) (*db.Band, error)
}

// ResolveBandmate looks up the bandmate and band an access token belongs to
func ResolveBandmate(ctx context.Context, database ResolveTokenStore, token string) (*db.Bandmate, *db.Band, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, nil, fmt.Errorf("token is required")
	}

	bandmate, err := database.GetBandmateByToken(ctx, token)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve token: %w", err)
	}

	band, err := database.GetBand(ctx, bandmate.BandID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to fetch band for bandmate: %w", err)
	}

	return bandmate, band, nil
}

// newToken returns the first n hex characters of a random UUID
func newToken(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}
