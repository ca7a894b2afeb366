// Package cache keeps recent final-availability results in Redis so repeated
// views of the same band do not re-run the server-side merge.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/calendar"
	"github.com/jakechorley/bandcal/pkg/db"
)

const (
	// DefaultTTL bounds how stale a cached result can be when no write invalidated it
	DefaultTTL = 30 * time.Second
	keyPrefix  = "bandcal:final:"
)

// Client is the subset of *redis.Client used by the cache
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// NewClient connects to the Redis server at addr
func NewClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   0,
	})
}

type cachedRow struct {
	Date        string `json:"date"`
	IsAvailable bool   `json:"is_available"`
}

// Aggregation is a read-through cache in front of a db.AggregationFunction.
// Redis failures are logged and bypassed; they never fail a read.
type Aggregation struct {
	source     db.AggregationFunction
	client     Client
	ttl        time.Duration
	normalizer calendar.Normalizer
	logger     *zap.Logger
}

// NewAggregation wraps source with a cache. A non-positive ttl uses DefaultTTL.
func NewAggregation(source db.AggregationFunction, client Client, ttl time.Duration, logger *zap.Logger) *Aggregation {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Aggregation{
		source:     source,
		client:     client,
		ttl:        ttl,
		normalizer: calendar.NewNormalizer(time.UTC),
		logger:     logger,
	}
}

// GetFinalAvailability returns the cached rows for bandID, or calls through to the
// source and caches its answer. Source errors are never cached. A read that
// races a write and its Invalidate may re-cache the pre-write rows; those last at
// most the TTL.
func (a *Aggregation) GetFinalAvailability(ctx context.Context, bandID string) ([]db.FinalAvailabilityRow, error) {
	key := keyPrefix + bandID

	raw, err := a.client.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var cached []cachedRow
		if jsonErr := json.Unmarshal(raw, &cached); jsonErr == nil {
			a.logger.Debug("Final availability cache hit", zap.String("band_id", bandID), zap.Int("rows", len(cached)))
			return fromCached(cached), nil
		}
		a.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	case errors.Is(err, redis.Nil):
	default:
		a.logger.Warn("Cache read failed, falling back to database", zap.String("key", key), zap.Error(err))
	}

	rows, err := a.source.GetFinalAvailability(ctx, bandID)
	if err != nil {
		return nil, err
	}

	payload, err := json.Marshal(a.toCached(rows))
	if err != nil {
		return nil, fmt.Errorf("failed to encode final availability: %w", err)
	}
	if err := a.client.Set(ctx, key, payload, a.ttl).Err(); err != nil {
		a.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}

	return rows, nil
}

// Invalidate drops the cached result for bandID. Called after any write that
// affects the band's final availability.
func (a *Aggregation) Invalidate(ctx context.Context, bandID string) error {
	if err := a.client.Del(ctx, keyPrefix+bandID).Err(); err != nil {
		return fmt.Errorf("failed to invalidate cache for band %s: %w", bandID, err)
	}
	return nil
}

func (a *Aggregation) toCached(rows []db.FinalAvailabilityRow) []cachedRow {
	out := make([]cachedRow, len(rows))
	for i, r := range rows {
		out[i] = cachedRow{Date: a.normalizer.Normalize(r.Date), IsAvailable: r.IsAvailable}
	}
	return out
}

func fromCached(rows []cachedRow) []db.FinalAvailabilityRow {
	out := make([]db.FinalAvailabilityRow, len(rows))
	for i, r := range rows {
		out[i] = db.FinalAvailabilityRow{Date: r.Date, IsAvailable: r.IsAvailable}
	}
	return out
}
