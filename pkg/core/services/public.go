package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/db"
)

const maxConcurrentResolves = 10

// PublicBand is one entry of the public availability listing
type PublicBand struct {
	Band         db.Band
	Availability availability.FinalAvailability
}

// PublicBandsStore defines the database operations needed for the public listing
type PublicBandsStore interface {
	GetSubmittedBands(ctx context.Context) ([]db.Band, error)
}

// PublicBands resolves final availability for every band that submitted its
// calendar. Dates a band never marked are treated as unavailable. Bands whose
// availability cannot be resolved at all are skipped and logged.
func PublicBands(ctx context.Context, database PublicBandsStore, resolver *Resolver, logger *zap.Logger) ([]PublicBand, error) {
	bands, err := database.GetSubmittedBands(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch submitted bands: %w", err)
	}

	results := make([]*PublicBand, len(bands))
	var (
		g       errgroup.Group
		mu      sync.Mutex
		skipped int
	)
	g.SetLimit(maxConcurrentResolves)

	for i, band := range bands {
		i, band := i, band
		g.Go(func() error {
			final, err := resolver.Resolve(ctx, band.ID, availability.AssumeUnavailable)
			if err != nil {
				logger.Warn("Skipping band with unresolvable availability",
					zap.String("band_id", band.ID),
					zap.Error(err))
				mu.Lock()
				skipped++
				mu.Unlock()
				return nil
			}
			results[i] = &PublicBand{Band: band, Availability: final}
			return nil
		})
	}
	_ = g.Wait()

	out := make([]PublicBand, 0, len(bands)-skipped)
	for _, r := range results {
		if r != nil {
			out = append(out, *r)
		}
	}

	logger.Debug("Resolved public bands", zap.Int("bands", len(out)), zap.Int("skipped", skipped))
	return out, nil
}
