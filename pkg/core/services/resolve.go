package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/calendar"
	"github.com/jakechorley/bandcal/pkg/db"
	"github.com/jakechorley/bandcal/pkg/metrics"
)

// ResolverStore defines the database operations needed to resolve final availability
type ResolverStore interface {
	db.AggregationFunction
	GetBandCalendar(ctx context.Context, bandID string) ([]db.BandCalendar, error)
}

// Resolver produces a band's final availability. The server-side aggregation is
// authoritative; when it fails the band's own calendar is returned without any
// bandmate input, tagged as degraded.
type Resolver struct {
	store      ResolverStore
	logger     *zap.Logger
	metrics    *metrics.Metrics
	normalizer calendar.Normalizer
}

// NewResolver creates a resolver. m may be nil.
func NewResolver(store ResolverStore, logger *zap.Logger, m *metrics.Metrics) *Resolver {
	return &Resolver{
		store:      store,
		logger:     logger,
		metrics:    m,
		normalizer: calendar.NewNormalizer(time.UTC),
	}
}

// Resolve returns the final availability of bandID. An error is returned only
// when the band's own calendar cannot be read either.
func (r *Resolver) Resolve(ctx context.Context, bandID string, policy availability.DefaultPolicy) (availability.FinalAvailability, error) {
	rows, aggErr := r.store.GetFinalAvailability(ctx, bandID)
	if aggErr == nil {
		return availability.FinalAvailability{
			BandID: bandID,
			Dates:  r.fromFinalRows(rows),
			Source: availability.SourceAggregated,
			Policy: policy,
		}, nil
	}

	r.logger.Warn("Aggregation failed, falling back to band calendar only",
		zap.String("band_id", bandID),
		zap.Error(aggErr))

	band, err := r.bandCalendar(ctx, bandID)
	if err != nil {
		return availability.FinalAvailability{}, fmt.Errorf("%w: %w", availability.ErrTransientFetch, errors.Join(aggErr, err))
	}

	r.metrics.ObserveDegraded()
	return availability.FinalAvailability{
		BandID: bandID,
		Dates:  availability.Merge(band, nil, policy),
		Source: availability.SourceBandOnly,
		Policy: policy,
	}, nil
}

// BandCalendar returns the band's own availability map, keyed by canonical date
func (r *Resolver) BandCalendar(ctx context.Context, bandID string) (availability.Map, error) {
	return r.bandCalendar(ctx, bandID)
}

func (r *Resolver) bandCalendar(ctx context.Context, bandID string) (availability.Map, error) {
	rows, err := r.store.GetBandCalendar(ctx, bandID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch band calendar: %w", err)
	}
	return bandCalendarMap(r.normalizer, rows), nil
}

func (r *Resolver) fromFinalRows(rows []db.FinalAvailabilityRow) availability.Map {
	converted := make([]availability.Row, len(rows))
	for i, row := range rows {
		converted[i] = availability.Row{Date: row.Date, Value: row.IsAvailable}
	}
	return availability.FromRows(r.normalizer, converted)
}

func bandCalendarMap(n calendar.Normalizer, rows []db.BandCalendar) availability.Map {
	converted := make([]availability.Row, len(rows))
	for i, row := range rows {
		converted[i] = availability.Row{Date: row.Date, Value: row.IsAvailable}
	}
	return availability.FromRows(n, converted)
}

func bandmateMap(n calendar.Normalizer, rows []db.BandmateAvailability) availability.Map {
	converted := make([]availability.Row, len(rows))
	for i, row := range rows {
		converted[i] = availability.Row{Date: row.Date, Value: row.IsUnavailable}
	}
	return availability.FromRows(n, converted)
}
