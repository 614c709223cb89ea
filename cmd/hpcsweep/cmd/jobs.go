package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

var jobsCmd = &cobra.Command{
	Use:   "jobs [tag]",
	Short: "List sweep jobs from the manifest",
	Long:  `Lists jobs recorded in the sweep manifest, optionally filtered by sweep tag.`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runJobs,
}

func init() {
	rootCmd.AddCommand(jobsCmd)
}

func runJobs(cmd *cobra.Command, args []string) error {
	manifest, err := openStore()
	if err != nil {
		return err
	}
	defer manifest.Close()

	var jobs []*models.Job
	if len(args) == 1 {
		jobs, err = manifest.GetJobsBySweep(args[0])
	} else {
		jobs, err = manifest.GetAllJobs()
	}
	if err != nil {
		return err
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(map[string]interface{}{
			"jobs": jobs, "count": len(jobs),
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
		return nil
	}

	table := tablewriter.NewWriter(os.Stdout)
	table.Header("Job", "Sweep", "Range", "Status", "Handle", "Created", "Error")
	for _, job := range jobs {
		id := job.ID
		if len(id) > 8 {
			id = id[:8]
		}
		errDisplay := job.Error
		if errDisplay == "" {
			errDisplay = "-"
		}
		handle := job.QueueHandle
		if handle == "" {
			handle = "-"
		}
		table.Append(id, job.SweepTag, job.Range.String(), string(job.Status),
			handle, job.CreatedAt.Format(time.DateTime), errDisplay)
	}
	table.Render()
	fmt.Printf("\nTotal jobs: %d\n", len(jobs))
	return nil
}
