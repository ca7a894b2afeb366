package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/internal/config"
	"github.com/jakechorley/bandcal/pkg/cache"
	"github.com/jakechorley/bandcal/pkg/core/calendar"
	"github.com/jakechorley/bandcal/pkg/core/services"
	"github.com/jakechorley/bandcal/pkg/db"
	"github.com/jakechorley/bandcal/pkg/metrics"
)

// AppContext holds the application dependencies shared across all commands
type AppContext struct {
	Cfg      *config.Config
	Database db.Database
	// Cache is nil when no Redis address is configured
	Cache    *cache.Aggregation
	Resolver *services.Resolver
	Metrics  *metrics.Metrics
	Registry *prometheus.Registry
	Location *time.Location
	Logger   *zap.Logger
	Ctx      context.Context
	// Now defaults to time.Now
	Now func() time.Time
}

// Window returns today's window in the configured zone, restricted to the
// configured schedule rule if there is one
func (app *AppContext) Window() ([]string, error) {
	now := time.Now
	if app.Now != nil {
		now = app.Now
	}
	loc := app.Location
	if loc == nil {
		loc = time.Local
	}

	months := calendar.DefaultWindowMonths
	rule := ""
	if app.Cfg != nil {
		months = app.Cfg.WindowMonths
		rule = app.Cfg.ScheduleRRule
	}

	window := calendar.ComputeWindow(now().In(loc), months)

	filter, err := calendar.NewScheduleFilter(rule)
	if err != nil {
		return nil, err
	}
	filtered, err := filter.Apply(window)
	if err != nil {
		return nil, fmt.Errorf("failed to apply schedule rule: %w", err)
	}
	return filtered, nil
}

// EditorSettings returns the verification budget from config
func (app *AppContext) EditorSettings() services.EditorSettings {
	settings := services.EditorSettings{Metrics: app.Metrics}
	if app.Cfg != nil {
		settings.VerifyRetries = app.Cfg.Retries()
		settings.VerifyBaseDelay = app.Cfg.VerifyBaseDelay
	} else {
		settings.VerifyRetries = config.DefaultVerifyRetries
	}
	return settings
}

// Invalidator returns the cache as a services.Invalidator, or nil without one
func (app *AppContext) Invalidator() services.Invalidator {
	if app.Cache == nil {
		return nil
	}
	return app.Cache
}
