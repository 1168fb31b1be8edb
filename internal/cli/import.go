package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

var importCmd = &cobra.Command{
	Use:   "import <file>...",
	Short: "Import solver logs",
	Long: `Import one or more raw solver logs.

Each log becomes one job. The job id comes from the JobInfo header on the
first line; importing the same job twice fails. Use "-" to read from stdin.

Examples:
  solverctl import run-666666.log
  solverctl import logs/*.log
  cat run.log | solverctl import -`,
	Args: cobra.MinimumNArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	var failed int
	for _, path := range args {
		if err := importOne(cmd, path); err != nil {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: %v\n", path, err)
			failed++
			continue
		}
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d imports failed", failed, len(args))
	}
	fmt.Fprintf(out, "Imported %d log(s).\n", len(args))
	return nil
}

func importOne(cmd *cobra.Command, path string) error {
	var r io.Reader = cmd.InOrStdin()
	if path != "-" {
		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		r = f
	}

	res, err := svc.Import(cmd.Context(), r)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s: job %d (%s) with %d entries", path, res.Job.ID, res.Job.Name, res.Entries)
	if res.Skipped > 0 {
		fmt.Fprintf(cmd.OutOrStdout(), ", %d lines skipped", res.Skipped)
	}
	fmt.Fprintln(cmd.OutOrStdout())
	return nil
}
