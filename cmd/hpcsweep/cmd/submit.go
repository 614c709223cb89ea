package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
	"github.com/ddimmery/NYU-HPC/pkg/template"
)

var (
	submitTemplate string
	submitTag      string
	submitBinds    []string
	submitSegments int
	submitPlan     string
	submitDryRun   bool
)

var submitCmd = &cobra.Command{
	Use:   "submit-sweep [low] [high]",
	Short: "Render and submit sweep jobs covering [low, high]",
	Long: `Splits [low, high] into contiguous disjoint segments, renders the job
template once per segment with LOW and HIGH bound to the segment
bounds, and submits each rendered script to the batch queue.

The range and bindings can come from flags, from a YAML plan file, or
both (flags win). Submission is fire-and-forget: the command returns as
soon as every segment is acknowledged; workers run whenever the queue
schedules them. Each segment fails independently, so one rejected job
never blocks the rest of the sweep.`,
	Args: cobra.RangeArgs(0, 2),
	RunE: runSubmitSweep,
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().StringVar(&submitTemplate, "template", "", "job template file with {{LOW}}/{{HIGH}} placeholders")
	submitCmd.Flags().StringVar(&submitTag, "tag", "", "sweep tag carried in queue job names and the manifest")
	submitCmd.Flags().StringArrayVar(&submitBinds, "bind", nil, "extra placeholder binding NAME=VALUE (repeatable)")
	submitCmd.Flags().IntVar(&submitSegments, "segments", 0, "number of jobs to split the range into")
	submitCmd.Flags().StringVar(&submitPlan, "plan", "", "YAML sweep plan file")
	submitCmd.Flags().BoolVar(&submitDryRun, "dry-run", false, "render without submitting")
}

// sweepPlan is the YAML plan file format
type sweepPlan struct {
	Template string            `yaml:"template"`
	Tag      string            `yaml:"tag"`
	Low      *int              `yaml:"low"`
	High     *int              `yaml:"high"`
	Segments int               `yaml:"segments"`
	Bindings map[string]string `yaml:"bindings"`
}

// resolveSweep merges the plan file (if any) with flags and positional
// args; flags and args take precedence
func resolveSweep(args []string) (low, high int, plan sweepPlan, err error) {
	if submitPlan != "" {
		data, err := os.ReadFile(submitPlan)
		if err != nil {
			return 0, 0, plan, fmt.Errorf("failed to read plan %s: %w", submitPlan, err)
		}
		if err := yaml.Unmarshal(data, &plan); err != nil {
			return 0, 0, plan, fmt.Errorf("failed to parse plan %s: %w", submitPlan, err)
		}
	}

	if submitTemplate != "" {
		plan.Template = submitTemplate
	}
	if submitTag != "" {
		plan.Tag = submitTag
	}
	if submitSegments > 0 {
		plan.Segments = submitSegments
	}
	if plan.Tag == "" {
		plan.Tag = "sweep"
	}
	if plan.Segments == 0 {
		plan.Segments = 1
	}
	if plan.Bindings == nil {
		plan.Bindings = make(map[string]string)
	}
	for _, bind := range submitBinds {
		name, value, ok := strings.Cut(bind, "=")
		if !ok {
			return 0, 0, plan, fmt.Errorf("bad binding %q: want NAME=VALUE", bind)
		}
		plan.Bindings[name] = value
	}

	if plan.Template == "" {
		return 0, 0, plan, fmt.Errorf("no job template given (--template or plan file)")
	}

	switch len(args) {
	case 2:
		low, err = strconv.Atoi(args[0])
		if err != nil {
			return 0, 0, plan, fmt.Errorf("bad low bound %q: %w", args[0], err)
		}
		high, err = strconv.Atoi(args[1])
		if err != nil {
			return 0, 0, plan, fmt.Errorf("bad high bound %q: %w", args[1], err)
		}
	case 0:
		if plan.Low == nil || plan.High == nil {
			return 0, 0, plan, fmt.Errorf("no parameter range given (arguments or plan file)")
		}
		low, high = *plan.Low, *plan.High
	default:
		return 0, 0, plan, fmt.Errorf("give both low and high, or neither")
	}
	return low, high, plan, nil
}

func runSubmitSweep(cmd *cobra.Command, args []string) error {
	low, high, plan, err := resolveSweep(args)
	if err != nil {
		return err
	}

	tmpl, err := template.Load(plan.Template)
	if err != nil {
		return err
	}

	segments, err := sweep.Plan(low, high, plan.Segments)
	if err != nil {
		return err
	}

	log := newLogger()
	manifest, err := openStore()
	if err != nil {
		return err
	}
	defer manifest.Close()
	q := newQueue(log)
	ctx := context.Background()

	var jobs []*models.Job
	var firstErr error
	for _, seg := range segments {
		bindings := make(map[string]string, len(plan.Bindings)+2)
		for k, v := range plan.Bindings {
			bindings[k] = v
		}
		bindings["LOW"] = strconv.Itoa(seg.Low)
		bindings["HIGH"] = strconv.Itoa(seg.High)

		// A binding mismatch is local: fail the whole sweep before
		// anything reaches the queue
		rendered, err := tmpl.Render(bindings)
		if err != nil {
			return err
		}

		if submitDryRun {
			fmt.Printf("--- %s %s ---\n%s\n", plan.Tag, seg, rendered)
			continue
		}

		job := &models.Job{
			ID:        uuid.New().String(),
			SweepTag:  plan.Tag,
			Range:     seg,
			Status:    models.JobStatusPending,
			CreatedAt: time.Now(),
		}
		if err := manifest.CreateJob(job); err != nil {
			return err
		}

		handle, err := q.Submit(ctx, rendered, job)
		if err != nil {
			log.Error("submission failed", map[string]interface{}{
				"range": seg.String(), "error": err.Error(),
			})
			manifest.UpdateJobStatus(job.ID, models.JobStatusFailed, err.Error())
			job.Status = models.JobStatusFailed
			job.Error = err.Error()
			if firstErr == nil {
				firstErr = err
			}
		} else {
			manifest.SetQueueHandle(job.ID, handle)
			manifest.UpdateJobStatus(job.ID, models.JobStatusSubmitted, "")
			job.QueueHandle = handle
			job.Status = models.JobStatusSubmitted
		}
		jobs = append(jobs, job)
	}

	if submitDryRun {
		return nil
	}

	if IsJSONOutput() {
		output, err := json.MarshalIndent(jobs, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal JSON: %w", err)
		}
		fmt.Println(string(output))
	} else {
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Range", "Status", "Handle", "Error")
		for _, job := range jobs {
			table.Append(job.Range.String(), string(job.Status), job.QueueHandle, job.Error)
		}
		table.Render()
		fmt.Printf("\nSweep %q: %d job(s) submitted\n", plan.Tag, len(jobs))
	}

	return firstErr
}
