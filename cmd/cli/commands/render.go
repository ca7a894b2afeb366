package commands

import (
	"fmt"
	"io"
	"strings"

	"github.com/jakechorley/bandcal/pkg/core/availability"
	"github.com/jakechorley/bandcal/pkg/core/calendar"
)

// ANSI color codes
const (
	colorReset = "\033[0m"
	colorGreen = "\033[32m"
	colorRed   = "\033[31m"
	colorDim   = "\033[2m"
)

const cellWidth = 4

// cellFunc renders one date of the grid, already padded to cellWidth
type cellFunc func(date string) string

// printMonthGrids prints each month of dates as a Sunday-first week grid
func printMonthGrids(w io.Writer, dates []string, cell cellFunc) {
	for _, month := range calendar.GroupByMonth(dates) {
		fmt.Fprintf(w, "\n%s\n", calendar.MonthName(month.Key+"-01"))
		fmt.Fprintln(w, " Su  Mo  Tu  We  Th  Fr  Sa")
		for _, row := range calendar.GroupByWeeks(month.Dates) {
			var line strings.Builder
			for _, date := range row {
				if date == calendar.Padding {
					line.WriteString(strings.Repeat(" ", cellWidth))
					continue
				}
				line.WriteString(cell(date))
			}
			fmt.Fprintln(w, strings.TrimRight(line.String(), " "))
		}
	}
}

func dayNumber(date string) string {
	return fmt.Sprintf("%3s ", strings.TrimLeft(date[len(date)-2:], "0"))
}

// plainCell prints the day of month without any status
func plainCell(date string) string {
	return dayNumber(date)
}

// availabilityCell colors a date green when available and red otherwise
func availabilityCell(final availability.FinalAvailability) cellFunc {
	return func(date string) string {
		if final.IsAvailable(date) {
			return colorGreen + dayNumber(date) + colorReset
		}
		return colorRed + dayNumber(date) + colorReset
	}
}

// statusCell renders a bandmate's view of a date
func statusCell(status func(date string) availability.DateStatus) cellFunc {
	return func(date string) string {
		switch status(date) {
		case availability.StatusBandUnavailable:
			return colorDim + dayNumber(date) + colorReset
		case availability.StatusUnavailable:
			return colorRed + dayNumber(date) + colorReset
		default:
			return colorGreen + dayNumber(date) + colorReset
		}
	}
}

func printDegradedWarning(w io.Writer, final availability.FinalAvailability) {
	if final.Degraded() {
		fmt.Fprintf(w, "⚠️  Bandmate availability could not be loaded; showing the band calendar only.\n")
	}
}

func printLegend(w io.Writer) {
	fmt.Fprintf(w, "\nLegend:\n")
	fmt.Fprintf(w, "  %sDD%s = available\n", colorGreen, colorReset)
	fmt.Fprintf(w, "  %sDD%s = unavailable\n", colorRed, colorReset)
}
