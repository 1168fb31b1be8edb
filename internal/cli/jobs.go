package cli

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/kiranshivaraju/solverwatch/pkg/models"
	"github.com/spf13/cobra"
)

var rmForce bool

var jobsCmd = &cobra.Command{
	Use:   "jobs",
	Short: "List imported jobs",
	Args:  cobra.NoArgs,
	RunE:  runJobs,
}

var rmCmd = &cobra.Command{
	Use:   "rm <job-id>",
	Short: "Delete a job and its error log",
	Long: `Delete a job and its error log.

The cached payload of the job is evicted as well.
Requires confirmation unless --force is used.

Examples:
  solverctl rm 666666
  solverctl rm 666666 --force`,
	Args: cobra.ExactArgs(1),
	RunE: runRm,
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "skip confirmation")
}

func runJobs(cmd *cobra.Command, _ []string) error {
	jobs, err := svc.ListJobs(cmd.Context())
	if err != nil {
		return fmt.Errorf("list jobs: %w", err)
	}
	writeJobs(cmd.OutOrStdout(), jobs)
	return nil
}

func writeJobs(w io.Writer, jobs []*models.Job) {
	if len(jobs) == 0 {
		fmt.Fprintln(w, "No jobs found.")
		return
	}
	fmt.Fprintf(w, "%-12s %-24s %-10s %-5s %-20s %s\n", "ID", "NAME", "QUEUE", "CPUS", "IMPORTED", "NODES")
	for _, j := range jobs {
		fmt.Fprintf(w, "%-12d %-24s %-10s %-5d %-20s %s\n",
			j.ID, j.Name, j.Queue, j.NumCPU, j.CreatedAt.Format("2006-01-02 15:04:05"), strings.Join(j.Nodes, ","))
		if verbose && len(j.Parameters) > 0 {
			fmt.Fprintf(w, "  parameters: %s\n", j.Parameters)
		}
	}
}

func parseJobID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid job id %q", s)
	}
	return id, nil
}

func runRm(cmd *cobra.Command, args []string) error {
	id, err := parseJobID(args[0])
	if err != nil {
		return err
	}
	ctx := cmd.Context()

	job, err := svc.GetJob(ctx, id)
	if err != nil {
		return fmt.Errorf("get job: %w", err)
	}

	// Confirm deletion
	if !rmForce {
		fmt.Fprintf(cmd.OutOrStdout(), "About to delete: job %d (%s)\n", job.ID, job.Name)
		fmt.Fprint(cmd.OutOrStdout(), "\nContinue? [y/N]: ")

		reader := bufio.NewReader(cmd.InOrStdin())
		response, err := reader.ReadString('\n')
		if err != nil && err != io.EOF {
			return fmt.Errorf("read input: %w", err)
		}
		response = strings.TrimSpace(strings.ToLower(response))

		if response != "y" && response != "yes" {
			fmt.Fprintln(cmd.OutOrStdout(), "Cancelled.")
			return nil
		}
	}

	if err := svc.DeleteJob(ctx, id); err != nil {
		return fmt.Errorf("delete job: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Deleted: job %d\n", id)
	return nil
}
