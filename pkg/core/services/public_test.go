package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/db"
)

func TestPublicBands_OnlySubmittedWithConservativeDefault(t *testing.T) {
	database := newMockDB()
	database.bands["band-1"] = &db.Band{ID: "band-1", Name: "The Mods"}
	database.bands["band-2"] = &db.Band{ID: "band-2", Name: "Unsubmitted"}
	database.finalRows["band-1"] = []db.FinalAvailabilityRow{{Date: "2024-03-01", IsAvailable: true}}
	require.NoError(t, database.SetCalendarSubmitted(context.Background(), "band-1", true))

	resolver := NewResolver(database, zap.NewNop(), nil)
	bands, err := PublicBands(context.Background(), database, resolver, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, bands, 1)
	assert.Equal(t, "band-1", bands[0].Band.ID)
	assert.True(t, bands[0].Availability.IsAvailable("2024-03-01"))
	assert.False(t, bands[0].Availability.IsAvailable("2024-03-02"))
}

func TestPublicBands_DegradedFlagSurfaced(t *testing.T) {
	database := newMockDB()
	database.bands["band-1"] = &db.Band{ID: "band-1", Name: "The Mods"}
	database.aggErr = errAggregationDown
	database.calendars["band-1"] = map[string]bool{"2024-03-01": true}
	require.NoError(t, database.SetCalendarSubmitted(context.Background(), "band-1", true))

	resolver := NewResolver(database, zap.NewNop(), nil)
	bands, err := PublicBands(context.Background(), database, resolver, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, bands, 1)
	assert.True(t, bands[0].Availability.Degraded())
}

func TestPublicBands_SkipsUnresolvable(t *testing.T) {
	database := newMockDB()
	database.bands["band-1"] = &db.Band{ID: "band-1", Name: "The Mods"}
	database.aggErr = errAggregationDown
	database.calendarErr = errors.New("timeout")
	require.NoError(t, database.SetCalendarSubmitted(context.Background(), "band-1", true))

	resolver := NewResolver(database, zap.NewNop(), nil)
	bands, err := PublicBands(context.Background(), database, resolver, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, bands)
}
