package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/ddimmery/NYU-HPC/pkg/artifact"
	"github.com/ddimmery/NYU-HPC/pkg/collect"
	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
)

var (
	collectOut       string
	collectPattern   string
	collectExpectLow int
	collectExpectHi  int
	collectLastWins  bool
	collectWait      bool
	collectTag       string
	collectInterval  time.Duration
)

var collectCmd = &cobra.Command{
	Use:   "collect-results <directory>",
	Short: "Merge worker artifacts into one consolidated dataset",
	Long: `Scans a directory for artifact files, merges their rows into one
dataset sorted ascending by key, and writes it wholesale to the output
path (a rerun overwrites).

The collector must run strictly after all workers have finished. By
default that timing is the operator's judgment; --wait gates the merge
on the queue reporting zero outstanding jobs for the sweep tag.`,
	Args: cobra.ExactArgs(1),
	RunE: runCollectResults,
}

func init() {
	rootCmd.AddCommand(collectCmd)

	collectCmd.Flags().StringVar(&collectOut, "out", "", "output path (default <directory>/results.csv)")
	collectCmd.Flags().StringVar(&collectPattern, "pattern", sweep.Pattern, "artifact filename glob")
	collectCmd.Flags().IntVar(&collectExpectLow, "expect-low", 0, "low bound of the expected full range")
	collectCmd.Flags().IntVar(&collectExpectHi, "expect-high", 0, "high bound of the expected full range")
	collectCmd.Flags().BoolVar(&collectLastWins, "last-wins", false, "tolerate duplicate keys, keeping the later artifact's row")
	collectCmd.Flags().BoolVar(&collectWait, "wait", false, "wait for the queue to drain before merging")
	collectCmd.Flags().StringVar(&collectTag, "tag", "sweep", "sweep tag used with --wait")
	collectCmd.Flags().DurationVar(&collectInterval, "interval", 15*time.Second, "poll interval used with --wait")
}

func runCollectResults(cmd *cobra.Command, args []string) error {
	dir := args[0]
	log := newLogger()

	if collectWait {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		if err := waitForDrain(ctx, collectTag, collectInterval); err != nil {
			return err
		}
	}

	opts := collect.Options{
		Pattern:  collectPattern,
		LastWins: collectLastWins,
	}
	lowSet := cmd.Flags().Changed("expect-low")
	highSet := cmd.Flags().Changed("expect-high")
	if lowSet != highSet {
		return fmt.Errorf("--expect-low and --expect-high must be given together")
	}
	if lowSet {
		expected := models.ParameterRange{Low: collectExpectLow, High: collectExpectHi}
		if err := expected.Validate(); err != nil {
			return err
		}
		opts.Expected = &expected
	}

	ds, err := collect.Collect(artifact.NewFSStore(dir), opts)
	if err != nil {
		return err
	}

	out := collectOut
	if out == "" {
		out = filepath.Join(dir, "results.csv")
	}
	if err := collect.Write(out, ds); err != nil {
		return err
	}
	log.Info("consolidated dataset written", map[string]interface{}{
		"path": out, "rows": len(ds.Rows),
	})

	if IsJSONOutput() {
		output, err := json.MarshalIndent(map[string]interface{}{
			"output":  out,
			"rows":    len(ds.Rows),
			"columns": ds.Header,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	} else {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Field", "Value")
		table.Append("Output", out)
		table.Append("Rows", fmt.Sprintf("%d", len(ds.Rows)))
		if len(ds.Rows) > 0 {
			table.Append("Key range", fmt.Sprintf("[%d,%d]", ds.Rows[0].K, ds.Rows[len(ds.Rows)-1].K))
		}
		table.Render()
	}
	return nil
}

// waitForDrain polls the queue until no jobs with the tag remain
func waitForDrain(ctx context.Context, tag string, interval time.Duration) error {
	log := newLogger()
	q := newQueue(log)
	for {
		outstanding, err := q.Status(ctx, tag)
		if err != nil {
			return err
		}
		if len(outstanding) == 0 {
			return nil
		}
		log.Info("waiting for queue to drain", map[string]interface{}{
			"tag": tag, "outstanding": len(outstanding),
		})
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
