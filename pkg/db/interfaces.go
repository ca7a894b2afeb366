package db

import (
	"context"
	"errors"
)

// ErrNotFound is returned when a looked-up record does not exist
var ErrNotFound = errors.New("record not found")

// BandStore defines the interface for band database operations
type BandStore interface {
	GetBand(ctx context.Context, id string) (*Band, error)
	GetSubmittedBands(ctx context.Context) ([]Band, error)
	InsertBand(ctx context.Context, band *Band) error
	SetCalendarSubmitted(ctx context.Context, bandID string, submitted bool) error
}

// CalendarStore defines the interface for band calendar operations
type CalendarStore interface {
	UpsertBandCalendar(ctx context.Context, bandID, date string, isAvailable bool) (*BandCalendar, error)
	GetBandCalendar(ctx context.Context, bandID string) ([]BandCalendar, error)
}

// BandmateStore defines the interface for bandmate and bandmate availability operations
type BandmateStore interface {
	InsertBandmate(ctx context.Context, bandmate *Bandmate) error
	GetBandmates(ctx context.Context, bandID string) ([]Bandmate, error)
	GetBandmateByToken(ctx context.Context, token string) (*Bandmate, error)
	UpsertBandmateAvailability(ctx context.Context, bandmateID, date string, isUnavailable bool) (*BandmateAvailability, error)
	GetBandmateAvailability(ctx context.Context, bandmateID string) ([]BandmateAvailability, error)
}

// AggregationFunction merges band and bandmate availability server-side
type AggregationFunction interface {
	GetFinalAvailability(ctx context.Context, bandID string) ([]FinalAvailabilityRow, error)
}

// Database defines the interface for all database operations.
// postgres.DB implements this interface.
type Database interface {
	BandStore
	CalendarStore
	BandmateStore
	AggregationFunction
}
