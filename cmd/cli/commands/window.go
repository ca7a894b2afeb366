package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// WindowCmd creates the window command
func WindowCmd(app *AppContext) *cobra.Command {
	return &cobra.Command{
		Use:   "window",
		Short: "Show the dates currently open for availability",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			window, err := app.Window()
			if err != nil {
				return err
			}
			if len(window) == 0 {
				fmt.Println("No dates in the current window.")
				return nil
			}

			fmt.Printf("\nWindow: %s to %s (%d dates)\n", window[0], window[len(window)-1], len(window))
			printMonthGrids(os.Stdout, window, plainCell)
			fmt.Println()
			return nil
		},
	}
}
