package services

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/calendar"
	"github.com/jakechorley/bandcal/pkg/core/editor"
	"github.com/jakechorley/bandcal/pkg/db"
	"github.com/jakechorley/bandcal/pkg/metrics"
)

// EditorSettings carries the verification budget and metrics shared by all editors
type EditorSettings struct {
	VerifyRetries   int
	VerifyBaseDelay time.Duration
	Metrics         *metrics.Metrics
}

func (s EditorSettings) options(kind string, def bool) editor.Options {
	opts := editor.DefaultOptions(kind, def)
	opts.VerifyRetries = s.VerifyRetries
	if s.VerifyBaseDelay > 0 {
		opts.VerifyBaseDelay = s.VerifyBaseDelay
	}
	opts.Normalizer = calendar.NewNormalizer(time.UTC)
	opts.Metrics = s.Metrics
	return opts
}

// OpenBandEditor loads a band leader's calendar into an edit controller.
// Dates the band never marked are available.
func OpenBandEditor(
	ctx context.Context,
	database db.CalendarStore,
	invalidator Invalidator,
	logger *zap.Logger,
	settings EditorSettings,
	bandID string,
) (*editor.Controller, error) {
	store := NewBandCalendarStore(database, invalidator, logger, bandID)
	ctrl := editor.NewController(store, logger.With(zap.String("band_id", bandID)), nil,
		settings.options("band", bool(availability.AssumeAvailable)))

	if err := ctrl.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load band calendar: %w", err)
	}
	return ctrl, nil
}

// BandmateSession is a bandmate's edit view: their own unavailability plus the
// band's calendar, which decides which dates they may change.
type BandmateSession struct {
	Bandmate   db.Bandmate
	Band       db.Band
	Controller *editor.Controller
	bandDates  availability.Map
}

// BandmateSessionStore defines the database operations needed to open a bandmate session
type BandmateSessionStore interface {
	ResolveTokenStore
	db.CalendarStore
	db.BandmateStore
}

// OpenBandmateEditor resolves token and loads the bandmate's unavailability.
// Toggling a date the band itself marked unavailable fails with
// availability.ErrDateNotEditable.
func OpenBandmateEditor(
	ctx context.Context,
	database BandmateSessionStore,
	invalidator Invalidator,
	logger *zap.Logger,
	settings EditorSettings,
	token string,
) (*BandmateSession, error) {
	bandmate, band, err := ResolveBandmate(ctx, database, token)
	if err != nil {
		return nil, err
	}

	bandRows, err := database.GetBandCalendar(ctx, band.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch band calendar: %w", err)
	}

	session := &BandmateSession{
		Bandmate:  *bandmate,
		Band:      *band,
		bandDates: bandCalendarMap(calendar.NewNormalizer(time.UTC), bandRows),
	}

	opts := settings.options("bandmate", false)
	opts.Guard = func(date string) error {
		if session.Status(date) == availability.StatusBandUnavailable {
			return fmt.Errorf("%s: band is unavailable: %w", date, availability.ErrDateNotEditable)
		}
		return nil
	}

	store := NewBandmateAvailabilityStore(database, invalidator, logger, *bandmate)
	session.Controller = editor.NewController(store,
		logger.With(zap.String("band_id", band.ID), zap.String("bandmate_id", bandmate.ID)), nil, opts)

	if err := session.Controller.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to load bandmate availability: %w", err)
	}

	return session, nil
}

// Status classifies date for this bandmate using their in-memory edits
func (s *BandmateSession) Status(date string) availability.DateStatus {
	date = calendar.NewNormalizer(time.UTC).Normalize(date)
	own := availability.Map{}
	if s.Controller != nil && s.Controller.Value(date) {
		own[date] = true
	}
	return availability.BandmateStatus(date, s.bandDates, own)
}
