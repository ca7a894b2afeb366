package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/calendar"
	"github.com/jakechorley/bandcal/pkg/db"
)

// Invalidator drops cached aggregation results after a write
type Invalidator interface {
	Invalidate(ctx context.Context, bandID string) error
}

// BandCalendarStore adapts the band calendar records to editor.Store
type BandCalendarStore struct {
	database    db.CalendarStore
	invalidator Invalidator
	logger      *zap.Logger
	normalizer  calendar.Normalizer
	bandID      string
}

// NewBandCalendarStore creates a store for bandID's own calendar. invalidator may be nil.
func NewBandCalendarStore(database db.CalendarStore, invalidator Invalidator, logger *zap.Logger, bandID string) *BandCalendarStore {
	return &BandCalendarStore{
		database:    database,
		invalidator: invalidator,
		logger:      logger,
		normalizer:  calendar.NewNormalizer(time.UTC),
		bandID:      bandID,
	}
}

// Persist upserts the band's availability for date
func (s *BandCalendarStore) Persist(ctx context.Context, date string, value bool) error {
	if _, err := s.database.UpsertBandCalendar(ctx, s.bandID, date, value); err != nil {
		return err
	}
	invalidate(ctx, s.invalidator, s.logger, s.bandID)
	return nil
}

// Fetch returns the band's stored calendar
func (s *BandCalendarStore) Fetch(ctx context.Context) (availability.Map, error) {
	rows, err := s.database.GetBandCalendar(ctx, s.bandID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch band calendar: %w", err)
	}
	return bandCalendarMap(s.normalizer, rows), nil
}

// BandmateAvailabilityStore adapts one bandmate's unavailability records to editor.Store
type BandmateAvailabilityStore struct {
	database    db.BandmateStore
	invalidator Invalidator
	logger      *zap.Logger
	normalizer  calendar.Normalizer
	bandmate    db.Bandmate
}

// NewBandmateAvailabilityStore creates a store for one bandmate. invalidator may be nil.
func NewBandmateAvailabilityStore(database db.BandmateStore, invalidator Invalidator, logger *zap.Logger, bandmate db.Bandmate) *BandmateAvailabilityStore {
	return &BandmateAvailabilityStore{
		database:    database,
		invalidator: invalidator,
		logger:      logger,
		normalizer:  calendar.NewNormalizer(time.UTC),
		bandmate:    bandmate,
	}
}

// Persist upserts the bandmate's unavailability for date
func (s *BandmateAvailabilityStore) Persist(ctx context.Context, date string, value bool) error {
	if _, err := s.database.UpsertBandmateAvailability(ctx, s.bandmate.ID, date, value); err != nil {
		return err
	}
	invalidate(ctx, s.invalidator, s.logger, s.bandmate.BandID)
	return nil
}

// Fetch returns the bandmate's stored unavailability
func (s *BandmateAvailabilityStore) Fetch(ctx context.Context) (availability.Map, error) {
	rows, err := s.database.GetBandmateAvailability(ctx, s.bandmate.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch bandmate availability: %w", err)
	}
	return bandmateMap(s.normalizer, rows), nil
}

// invalidate is best effort: a stale cache entry expires on its own TTL
func invalidate(ctx context.Context, inv Invalidator, logger *zap.Logger, bandID string) {
	if inv == nil {
		return
	}
	if err := inv.Invalidate(ctx, bandID); err != nil {
		logger.Warn("Failed to invalidate cached availability", zap.String("band_id", bandID), zap.Error(err))
	}
}
