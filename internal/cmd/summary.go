package cmd

import (
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/olekukonko/tablewriter"

	"github.com/Iron-Ham/drawbridge/internal/sim"
	"github.com/Iron-Ham/drawbridge/internal/trace"
)

// renderSummary prints per-species totals and bridge activity.
func renderSummary(w io.Writer, s trace.Summary, report *sim.Report) {
	fmt.Fprintln(w)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Species", "Arrived", "Crossed", "Withdrawn", "Mean wait", "Max wait"})
	table.SetAutoFormatHeaders(false)
	table.AppendBulk([][]string{
		summaryRow(s.Cars),
		summaryRow(s.Ships),
	})
	table.Render()

	duration := s.Duration
	if report != nil {
		duration = report.Duration()
	}
	fmt.Fprintf(w, "bridge raised %d times, lowered %d times; run took %s\n",
		s.Raises, s.Lowers, duration.Round(time.Millisecond))
}

func summaryRow(s trace.SpeciesSummary) []string {
	return []string{
		s.Species,
		strconv.Itoa(s.Arrived),
		strconv.Itoa(s.Crossed),
		strconv.Itoa(s.Withdrawn),
		s.MeanWait().Round(time.Millisecond).String(),
		s.MaxWait.Round(time.Millisecond).String(),
	}
}
