package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/cmd/cli/commands"
	"github.com/jakechorley/bandcal/internal/config"
	"github.com/jakechorley/bandcal/pkg/cache"
	"github.com/jakechorley/bandcal/pkg/core/services"
	"github.com/jakechorley/bandcal/pkg/db"
	"github.com/jakechorley/bandcal/pkg/metrics"
	"github.com/jakechorley/bandcal/pkg/postgres"
	"github.com/jakechorley/bandcal/pkg/utils/logging"
)

var env string

func main() {
	app := &commands.AppContext{}
	var pg *postgres.DB

	rootCmd := &cobra.Command{
		Use:   "bandcal",
		Short: "Band availability calendar",
		Long:  `A CLI tool for collecting band and bandmate availability and resolving when a band can play.`,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			pg, err = initApp(app)
			return err
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if pg != nil {
				pg.Close()
			}
			if app.Logger != nil {
				app.Logger.Sync()
			}
		},
	}

	rootCmd.PersistentFlags().StringVarP(&env, "env", "e", "", "Environment (required: test, prod, etc.)")
	rootCmd.MarkPersistentFlagRequired("env")

	rootCmd.AddCommand(commands.WindowCmd(app))
	rootCmd.AddCommand(commands.CreateBandCmd(app))
	rootCmd.AddCommand(commands.SubmitCalendarCmd(app))
	rootCmd.AddCommand(commands.AddBandmateCmd(app))
	rootCmd.AddCommand(commands.AvailabilityCmd(app))
	rootCmd.AddCommand(commands.MarkCmd(app))
	rootCmd.AddCommand(commands.BandmateMarkCmd(app))
	rootCmd.AddCommand(commands.PublicBandsCmd(app))
	rootCmd.AddCommand(commands.WatchCmd(app))
	rootCmd.AddCommand(commands.ExportICSCmd(app))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// cachedDatabase routes final-availability reads through the Redis cache
type cachedDatabase struct {
	db.Database
	agg *cache.Aggregation
}

func (c cachedDatabase) GetFinalAvailability(ctx context.Context, bandID string) ([]db.FinalAvailabilityRow, error) {
	return c.agg.GetFinalAvailability(ctx, bandID)
}

// initApp sets up logger, config, metrics, database and cache
func initApp(app *commands.AppContext) (*postgres.DB, error) {
	var err error
	app.Ctx = context.Background()

	app.Logger, err = logging.InitLogger(env)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.Logger.Info("Starting application", zap.String("environment", env))

	app.Logger.Info("Loading configuration")
	app.Cfg, err = config.LoadWithEnv(env)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	app.Location, err = app.Cfg.Location()
	if err != nil {
		return nil, err
	}
	app.Logger.Debug("Configuration loaded successfully",
		zap.Int("window_months", app.Cfg.WindowMonths),
		zap.String("timezone", app.Location.String()))

	app.Registry = prometheus.NewRegistry()
	app.Registry.MustRegister(collectors.NewGoCollector())
	app.Metrics, err = metrics.New(app.Registry)
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}

	app.Logger.Info("Connecting to database")
	connectCtx, cancel := context.WithTimeout(app.Ctx, 10*time.Second)
	defer cancel()
	pg, err := postgres.NewDB(connectCtx, app.Cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pg.RunMigrations(app.Ctx); err != nil {
		pg.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	app.Logger.Debug("Database migrations applied")

	var store db.Database = pg
	if app.Cfg.RedisAddr != "" {
		app.Logger.Info("Enabling availability cache", zap.String("redis_addr", app.Cfg.RedisAddr))
		app.Cache = cache.NewAggregation(pg, cache.NewClient(app.Cfg.RedisAddr), app.Cfg.CacheTTL, app.Logger)
		store = cachedDatabase{Database: pg, agg: app.Cache}
	}

	app.Database = store
	app.Resolver = services.NewResolver(store, app.Logger, app.Metrics)
	app.Logger.Info("Database initialized successfully")

	return pg, nil
}
