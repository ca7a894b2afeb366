package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/services"
)

// AvailabilityCmd creates the availability command
func AvailabilityCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "availability <band_id>",
		Short: "Show a band's final availability across the window",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := app.Window()
			if err != nil {
				return err
			}

			// The band's own view: dates it never marked are open
			final, err := app.Resolver.Resolve(app.Ctx, args[0], availability.AssumeAvailable)
			if err != nil {
				return fmt.Errorf("failed to resolve availability: %w", err)
			}

			printDegradedWarning(os.Stdout, final)
			printMonthGrids(os.Stdout, window, availabilityCell(final))
			printLegend(os.Stdout)
			fmt.Printf("\n%d of %d dates available\n\n", countAvailable(final, window), len(window))
			return nil
		},
	}
}

// PublicBandsCmd creates the publicBands command
func PublicBandsCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "publicBands",
		Short: "List submitted bands with their public availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := app.Window()
			if err != nil {
				return err
			}

			bands, err := services.PublicBands(app.Ctx, app.Database, app.Resolver, app.Logger)
			if err != nil {
				return err
			}

			if len(bands) == 0 {
				fmt.Println("No bands have submitted their calendar yet.")
				return nil
			}

			fmt.Printf("\nFound %d bands:\n\n", len(bands))
			for _, b := range bands {
				suffix := ""
				if b.Availability.Degraded() {
					suffix = " (bandmates not included)"
				}
				fmt.Printf("- %s (%s): %d of %d dates available%s\n",
					b.Band.Name,
					b.Band.ID,
					countAvailable(b.Availability, window),
					len(window),
					suffix,
				)
			}
			fmt.Println()
			return nil
		},
	}
}

func countAvailable(final availability.FinalAvailability, window []string) int {
	n := 0
	for _, date := range window {
		if final.IsAvailable(date) {
			n++
		}
	}
	return n
}
