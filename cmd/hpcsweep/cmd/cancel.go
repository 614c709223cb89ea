package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

var cancelCmd = &cobra.Command{
	Use:   "cancel <handle>",
	Short: "Cancel a submitted job",
	Long:  `Forwards a cancellation to the external queue by job handle and records it in the manifest.`,
	Args:  cobra.ExactArgs(1),
	RunE:  runCancel,
}

func init() {
	rootCmd.AddCommand(cancelCmd)
}

func runCancel(cmd *cobra.Command, args []string) error {
	handle := args[0]
	log := newLogger()
	q := newQueue(log)

	if err := q.Cancel(context.Background(), handle); err != nil {
		return err
	}

	manifest, err := openStore()
	if err != nil {
		return err
	}
	defer manifest.Close()

	jobs, err := manifest.GetAllJobs()
	if err != nil {
		return err
	}
	for _, job := range jobs {
		if job.QueueHandle == handle {
			if err := manifest.UpdateJobStatus(job.ID, models.JobStatusCanceled, ""); err != nil {
				return err
			}
			break
		}
	}

	fmt.Printf("Job %s canceled\n", handle)
	return nil
}
