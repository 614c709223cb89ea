package cmd

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/ddimmery/NYU-HPC/pkg/artifact"
	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
)

var (
	watchInterval  time.Duration
	watchArtifacts string
)

var watchCmd = &cobra.Command{
	Use:   "watch <tag>",
	Short: "Poll the queue until a sweep drains",
	Long: `Polls the external queue for outstanding jobs carrying the sweep tag,
reporting progress until none remain. When --artifacts is given, jobs
whose artifact has appeared are marked completed in the manifest as the
watch proceeds.

Exits 0 once the queue reports zero outstanding jobs for the tag, at
which point collect-results is safe to run.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().DurationVar(&watchInterval, "interval", 15*time.Second, "poll interval")
	watchCmd.Flags().StringVar(&watchArtifacts, "artifacts", "", "artifact directory to reconcile against the manifest")
}

func runWatch(cmd *cobra.Command, args []string) error {
	tag := args[0]
	log := newLogger()
	q := newQueue(log)

	manifest, err := openStore()
	if err != nil {
		return err
	}
	defer manifest.Close()

	var artifacts artifact.Store
	if watchArtifacts != "" {
		artifacts = artifact.NewFSStore(watchArtifacts)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fmt.Printf("Watching sweep %q (press Ctrl+C to stop)...\n", tag)
	for {
		outstanding, err := q.Status(ctx, tag)
		if err != nil {
			return err
		}

		completed := 0
		if artifacts != nil {
			jobs, err := manifest.GetJobsBySweep(tag)
			if err != nil {
				return err
			}
			for _, job := range jobs {
				if job.Status == models.JobStatusCompleted {
					completed++
					continue
				}
				if job.Status != models.JobStatusSubmitted {
					continue
				}
				present, err := artifacts.Exists(sweep.ArtifactName(job.Range))
				if err != nil {
					return err
				}
				if present {
					if err := manifest.MarkCompleted(job.ID); err != nil {
						return err
					}
					completed++
				}
			}
		}

		if artifacts != nil {
			fmt.Printf("[%s] outstanding: %d, artifacts present: %d\n",
				time.Now().Format("15:04:05"), len(outstanding), completed)
		} else {
			fmt.Printf("[%s] outstanding: %d\n", time.Now().Format("15:04:05"), len(outstanding))
		}

		if len(outstanding) == 0 {
			fmt.Println("Sweep drained; collect-results is safe to run.")
			return nil
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(watchInterval):
		}
	}
}
