package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kiranshivaraju/solverwatch/internal/errlog"
	"github.com/kiranshivaraju/solverwatch/internal/monitor"
	"github.com/spf13/cobra"
)

var (
	seriesJSON bool
	seriesRaw  bool
)

var seriesCmd = &cobra.Command{
	Use:   "series <job-id>",
	Short: "Print the error series of a job",
	Long: `Print the chart-ready error series of a job.

Errors at or below the noise floor are shown as "-", and a "--" row marks the
start of every new load step. The load step summary and the total wall time
are printed first.

Examples:
  solverctl series 666666
  solverctl series 666666 --json
  solverctl series 666666 --raw > payload.msgpack`,
	Args: cobra.ExactArgs(1),
	RunE: runSeries,
}

func init() {
	seriesCmd.Flags().BoolVar(&seriesJSON, "json", false, "print the snapshot as JSON")
	seriesCmd.Flags().BoolVar(&seriesRaw, "raw", false, "write the raw msgpack payload")
}

func runSeries(cmd *cobra.Command, args []string) error {
	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if seriesRaw {
		b, err := svc.Payload(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("load payload: %w", err)
		}
		_, err = out.Write(b)
		return err
	}

	snap, err := monitor.Load(cmd.Context(), svc, id)
	if err != nil {
		return fmt.Errorf("load series: %w", err)
	}

	if seriesJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snap)
	}
	writeSeries(out, snap)
	return nil
}

func writeSeries(w io.Writer, snap *monitor.Snapshot) {
	if snap.JobID != nil {
		fmt.Fprintf(w, "Job %d\n", *snap.JobID)
	}
	fmt.Fprintf(w, "Iterations: %d\n", snap.Iterations)
	fmt.Fprintf(w, "Total time: %s\n", snap.TotalElapsed)

	fmt.Fprintf(w, "\nLoad steps (%d):\n", len(snap.Summary))
	fmt.Fprintf(w, "%-12s %-8s %s\n", "LOAD", "ITERS", "COST")
	for _, s := range snap.Summary {
		cost := "-"
		if s.Cost != nil {
			cost = errlog.SplitElapsed(*s.Cost).String()
		}
		fmt.Fprintf(w, "%-12g %-8d %s\n", s.Load, s.Iterations, cost)
	}

	fmt.Fprintf(w, "\nErrors (%d points):\n", len(snap.Errors))
	fmt.Fprintf(w, "%-8s %-12s %-12s %s\n", "ITER", "LOAD", "ERROR_U", "ERROR_PHI")
	for _, r := range snap.Errors {
		if r.IsMarker() {
			fmt.Fprintf(w, "%-8s %-12g\n", "--", r.Load)
			continue
		}
		fmt.Fprintf(w, "%-8d %-12g %-12s %s\n", *r.Iteration, r.Load, formatError(r.ErrorPrimary), formatError(r.ErrorSecondary))
	}
}

func formatError(v *float64) string {
	if v == nil {
		return "-"
	}
	return strconv.FormatFloat(*v, 'e', 3, 64)
}
