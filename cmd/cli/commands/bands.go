package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jakechorley/bandcal/pkg/core/services"
)

// CreateBandCmd creates the createBand command
func CreateBandCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "createBand <leader_id> <name>",
		Short: "Register a new band",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			band, err := services.CreateBand(app.Ctx, app.Database, app.Logger, args[0], args[1])
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Band created successfully!\n\n")
			fmt.Printf("Band ID:     %s\n", band.ID)
			fmt.Printf("Name:        %s\n", band.Name)
			fmt.Printf("Share token: %s\n\n", band.ShareToken)
			return nil
		},
	}
}

// SubmitCalendarCmd creates the submitCalendar command
func SubmitCalendarCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "submitCalendar <band_id>",
		Short: "Mark a band's calendar as submitted so it appears publicly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := services.SubmitCalendar(app.Ctx, app.Database, app.Logger, args[0]); err != nil {
				return err
			}
			fmt.Printf("\n✓ Calendar submitted for band %s\n\n", args[0])
			return nil
		},
	}
}

// AddBandmateCmd creates the addBandmate command
func AddBandmateCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "addBandmate <band_id> [name]",
		Short: "Create a bandmate link and print its access token",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var name string
			if len(args) > 1 {
				name = args[1]
			}

			bandmate, err := services.AddBandmate(app.Ctx, app.Database, app.Logger, args[0], name)
			if err != nil {
				return err
			}

			fmt.Printf("\n✓ Bandmate link created!\n\n")
			fmt.Printf("Bandmate ID: %s\n", bandmate.ID)
			fmt.Printf("Token:       %s\n\n", bandmate.Token)
			return nil
		},
	}
}
