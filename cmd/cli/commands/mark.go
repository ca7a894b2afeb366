package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jakechorley/bandcal/pkg/core/calendar"
	"github.com/jakechorley/bandcal/pkg/core/editor"
	"github.com/jakechorley/bandcal/pkg/core/services"
)

// MarkCmd creates the mark command
func MarkCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "mark <band_id> <date>...",
		Short: "Toggle a band's availability on the given dates and save",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			immediate, _ := cmd.Flags().GetBool("immediate")
			bandID := args[0]

			dates, err := windowDates(app, args[1:])
			if err != nil {
				return err
			}

			ctrl, err := services.OpenBandEditor(app.Ctx, app.Database, app.Invalidator(), app.Logger, app.EditorSettings(), bandID)
			if err != nil {
				return err
			}

			app.Logger.Info("mark command",
				zap.String("band_id", bandID),
				zap.Strings("dates", dates),
				zap.Bool("immediate", immediate))

			return applyToggles(ctrl, app, dates, immediate, "available")
		},
	}

	cmd.Flags().Bool("immediate", false, "Save each date as soon as it is toggled")
	return cmd
}

// BandmateMarkCmd creates the bandmateMark command
func BandmateMarkCmd(app *AppContext) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "bandmateMark <token> <date>...",
		Short: "Toggle a bandmate's unavailability on the given dates and save",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			immediate, _ := cmd.Flags().GetBool("immediate")

			dates, err := windowDates(app, args[1:])
			if err != nil {
				return err
			}

			session, err := services.OpenBandmateEditor(app.Ctx, app.Database, app.Invalidator(), app.Logger, app.EditorSettings(), args[0])
			if err != nil {
				return err
			}

			fmt.Printf("\nEditing unavailability for %s\n", session.Band.Name)
			if err := applyToggles(session.Controller, app, dates, immediate, "unavailable"); err != nil {
				return err
			}

			window, err := app.Window()
			if err != nil {
				return err
			}
			printMonthGrids(os.Stdout, window, statusCell(session.Status))
			fmt.Printf("\nLegend:\n")
			fmt.Printf("  %sDD%s = available\n", colorGreen, colorReset)
			fmt.Printf("  %sDD%s = you are unavailable\n", colorRed, colorReset)
			fmt.Printf("  %sDD%s = band unavailable (cannot be changed)\n\n", colorDim, colorReset)
			return nil
		},
	}

	cmd.Flags().Bool("immediate", false, "Save each date as soon as it is toggled")
	return cmd
}

// windowDates normalizes the requested dates and rejects any outside the window
func windowDates(app *AppContext, raw []string) ([]string, error) {
	window, err := app.Window()
	if err != nil {
		return nil, err
	}

	dates := make([]string, 0, len(raw))
	for _, r := range raw {
		date := calendar.Normalize(r)
		if !calendar.IsCanonical(date) {
			return nil, fmt.Errorf("invalid date %q", r)
		}
		if !calendar.Contains(window, date) {
			return nil, fmt.Errorf("%s is outside the current window", date)
		}
		dates = append(dates, date)
	}
	return calendar.SortDates(dates), nil
}

func applyToggles(ctrl *editor.Controller, app *AppContext, dates []string, immediate bool, flag string) error {
	if immediate {
		var failed int
		for _, date := range dates {
			res := ctrl.ToggleNow(app.Ctx, date)
			printResult(res, flag)
			if res.Outcome == editor.OutcomeFailed {
				failed++
			}
		}
		if failed > 0 {
			return fmt.Errorf("%d of %d dates could not be saved", failed, len(dates))
		}
		return nil
	}

	for _, date := range dates {
		if _, err := ctrl.Toggle(date); err != nil {
			return err
		}
	}

	res := ctrl.Submit(app.Ctx)
	printResult(res, flag)
	if res.Err != nil {
		return res.Err
	}
	return nil
}

func printResult(res editor.Result, flag string) {
	switch res.Outcome {
	case editor.OutcomeConfirmed:
		fmt.Printf("\n✓ Saved %d change(s)\n", len(res.Changes))
		for _, ch := range res.Changes {
			fmt.Printf("  %s: %s\n", calendar.FormatForDisplay(ch.Date), describe(ch.Value, flag))
		}
	case editor.OutcomePending:
		fmt.Printf("\n… Change queued behind a save in progress\n")
	case editor.OutcomeFailed:
		fmt.Printf("\n✗ Save failed: %v\n", res.Err)
	case editor.OutcomeUnconfirmed:
		fmt.Printf("\n⚠️  Saved but not yet confirmed after %d checks; your changes are kept. Try again shortly.\n", res.Attempts)
	}
}

func describe(value bool, flag string) string {
	if value {
		return flag
	}
	return "not " + flag
}
