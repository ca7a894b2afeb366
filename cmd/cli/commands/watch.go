package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/calendar"
	"github.com/jakechorley/bandcal/pkg/core/refresher"
)

// WatchCmd creates the watch command
func WatchCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <band_id>",
		Short: "Poll a band's availability and print changes until interrupted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			bandID := args[0]

			ctx, stop := signal.NotifyContext(app.Ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if app.Cfg != nil && app.Cfg.MetricsAddr != "" && app.Registry != nil {
				server := startMetricsServer(app, app.Cfg.MetricsAddr)
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
					defer cancel()
					if err := server.Shutdown(shutdownCtx); err != nil {
						app.Logger.Warn("Metrics server shutdown failed", zap.Error(err))
					}
				}()
			}

			var previous availability.Map
			opts := refresher.Options{
				Metrics: app.Metrics,
				OnUpdate: func(final availability.FinalAvailability) {
					printChanges(app, previous, final)
					previous = final.Dates
				},
			}
			if app.Cfg != nil {
				opts.Interval = app.Cfg.PollInterval
				opts.StaleAfter = app.Cfg.StaleAfter
			}
			if opts.Interval <= 0 {
				opts.Interval = refresher.DefaultInterval
			}

			r := refresher.New(func(ctx context.Context) (availability.FinalAvailability, error) {
				return app.Resolver.Resolve(ctx, bandID, availability.AssumeAvailable)
			}, app.Logger.With(zap.String("band_id", bandID)), opts)

			r.Start(ctx)
			defer r.Stop()

			if _, err := r.Refresh(ctx); err != nil {
				fmt.Printf("⚠️  Initial load failed, will retry: %v\n", err)
			}

			fmt.Printf("Watching band %s every %s (Ctrl+C to stop)\n", bandID, opts.Interval)
			<-ctx.Done()
			fmt.Println("\nStopped.")
			return nil
		},
	}
}

func startMetricsServer(app *AppContext, addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(app.Registry, promhttp.HandlerOpts{}))
	server := &http.Server{Addr: addr, Handler: mux}

	go func() {
		app.Logger.Info("Serving metrics", zap.String("addr", addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			app.Logger.Error("Metrics server failed", zap.Error(err))
		}
	}()

	return server
}

// printChanges prints the window dates whose availability differs from previous.
// The first result is summarised instead.
func printChanges(app *AppContext, previous availability.Map, final availability.FinalAvailability) {
	window, err := app.Window()
	if err != nil {
		app.Logger.Warn("Failed to compute window", zap.Error(err))
		return
	}

	stamp := time.Now().Format("15:04:05")
	if previous == nil {
		fmt.Printf("[%s] %d of %d dates available\n", stamp, countAvailable(final, window), len(window))
		printDegradedWarning(os.Stdout, final)
		return
	}

	prev := availability.FinalAvailability{Dates: previous, Policy: final.Policy}
	for _, date := range window {
		before, after := prev.IsAvailable(date), final.IsAvailable(date)
		if before == after {
			continue
		}
		state := "now unavailable"
		if after {
			state = "now available"
		}
		fmt.Printf("[%s] %s: %s\n", stamp, calendar.FormatForDisplay(date), state)
	}
	printDegradedWarning(os.Stdout, final)
}
