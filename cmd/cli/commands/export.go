package commands

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/services"
)

// ExportICSCmd creates the exportICS command
func ExportICSCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "exportICS <band_id> <file>",
		Short: "Export a band's available dates as an iCalendar file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			bandID, path := args[0], args[1]

			band, err := app.Database.GetBand(app.Ctx, bandID)
			if err != nil {
				return fmt.Errorf("failed to find band: %w", err)
			}

			window, err := app.Window()
			if err != nil {
				return err
			}

			// Exports are shared outside the band, so unmarked dates are not offered
			final, err := app.Resolver.Resolve(app.Ctx, bandID, availability.AssumeUnavailable)
			if err != nil {
				return fmt.Errorf("failed to resolve availability: %w", err)
			}

			f, err := os.Create(path)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", path, err)
			}
			defer f.Close()

			if err := services.ExportICS(f, band.Name, final, window, time.Now()); err != nil {
				return err
			}

			app.Logger.Info("Exported calendar", zap.String("band_id", bandID), zap.String("file", path))
			printDegradedWarning(os.Stdout, final)
			fmt.Printf("\n✓ Wrote %d available dates to %s\n\n", countAvailable(final, window), path)
			return nil
		},
	}
}
