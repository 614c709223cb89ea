package queue

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/ddimmery/NYU-HPC/pkg/logging"
	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/retry"
)

// Config holds the commands used to talk to the batch scheduler
type Config struct {
	SubmitCmd  string   // e.g. qsub, sbatch
	SubmitArgs []string // extra args placed before the script path
	StatusCmd  string   // e.g. qstat, squeue
	StatusArgs []string
	CancelCmd  string // e.g. qdel, scancel
	SpoolDir   string // where rendered scripts are staged for submission
}

// DefaultConfig returns a PBS-style command set spooling to the
// system temp directory
func DefaultConfig() Config {
	return Config{
		SubmitCmd: "qsub",
		StatusCmd: "qstat",
		CancelCmd: "qdel",
		SpoolDir:  os.TempDir(),
	}
}

// BatchQueue submits jobs by shelling out to the scheduler's CLI,
// the only interface a batch queue exposes to unprivileged users
type BatchQueue struct {
	cfg   Config
	log   *logging.Logger
	retry retry.Config
}

// NewBatchQueue creates a queue client. Empty config fields fall back
// to the PBS defaults.
func NewBatchQueue(cfg Config, log *logging.Logger) *BatchQueue {
	def := DefaultConfig()
	if cfg.SubmitCmd == "" {
		cfg.SubmitCmd = def.SubmitCmd
	}
	if cfg.StatusCmd == "" {
		cfg.StatusCmd = def.StatusCmd
	}
	if cfg.CancelCmd == "" {
		cfg.CancelCmd = def.CancelCmd
	}
	if cfg.SpoolDir == "" {
		cfg.SpoolDir = def.SpoolDir
	}
	return &BatchQueue{cfg: cfg, log: log, retry: retry.DefaultConfig()}
}

// spoolPath builds the transient script filename: the full parameter
// range plus a process-unique suffix, so two submissions of the same
// range from different processes can never collide.
func (q *BatchQueue) spoolPath(job *models.Job) string {
	name := fmt.Sprintf("%s_%s.job", JobName(job.SweepTag, job.Range), uuid.NewString())
	return filepath.Join(q.cfg.SpoolDir, name)
}

// Submit writes the rendered script to a spool file, invokes the
// submission command against it, and removes the file once the
// scheduler has acknowledged. On failure the spool file is kept for
// diagnosis and a SubmissionError is returned.
//
// Submit is deliberately never retried: job semantics may not be
// idempotent and a retry could enqueue the same work twice.
func (q *BatchQueue) Submit(ctx context.Context, script string, job *models.Job) (string, error) {
	if err := os.MkdirAll(q.cfg.SpoolDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create spool directory %s: %w", q.cfg.SpoolDir, err)
	}

	spool := q.spoolPath(job)
	if err := os.WriteFile(spool, []byte(script), 0644); err != nil {
		return "", fmt.Errorf("failed to write spool file %s: %w", spool, err)
	}

	args := append(append([]string{}, q.cfg.SubmitArgs...), spool)
	cmd := exec.CommandContext(ctx, q.cfg.SubmitCmd, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return "", &SubmissionError{
			SpoolPath: spool,
			Output:    strings.TrimSpace(string(out)),
			Err:       err,
		}
	}

	// The first output line is the scheduler's job handle
	handle := strings.TrimSpace(string(out))
	if i := strings.IndexByte(handle, '\n'); i >= 0 {
		handle = strings.TrimSpace(handle[:i])
	}
	if handle == "" {
		handle = JobName(job.SweepTag, job.Range)
	}

	if err := os.Remove(spool); err != nil {
		q.log.Warn("failed to remove spool file", map[string]interface{}{
			"path": spool, "error": err.Error(),
		})
	}

	q.log.Info("job submitted", map[string]interface{}{
		"handle": handle, "range": job.Range.String(), "sweep": job.SweepTag,
	})
	return handle, nil
}

// Status runs the scheduler's status command and returns outstanding
// jobs whose name starts with the sweep tag. The query is idempotent,
// so transient scheduler hiccups are retried with backoff.
func (q *BatchQueue) Status(ctx context.Context, tag string) ([]QueueJob, error) {
	var out []byte
	err := retry.Do(ctx, q.retry, func() error {
		cmd := exec.CommandContext(ctx, q.cfg.StatusCmd, q.cfg.StatusArgs...)
		var err error
		out, err = cmd.Output()
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("queue status query failed: %w", err)
	}
	return parseStatus(string(out), tag), nil
}

// parseStatus extracts (handle, name, state) rows from qstat-style
// output: whitespace-separated columns, header and separator lines
// ignored, job name in the second column and state in the fifth.
func parseStatus(out, tag string) []QueueJob {
	prefix := tag + "_"
	var jobs []QueueJob
	for _, line := range strings.Split(out, "\n") {
		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		name := fields[1]
		if !strings.HasPrefix(name, prefix) {
			continue
		}
		job := QueueJob{Handle: fields[0], Name: name}
		if len(fields) >= 5 {
			job.State = fields[4]
		}
		jobs = append(jobs, job)
	}
	return jobs
}

// Cancel forwards a cancellation to the scheduler
func (q *BatchQueue) Cancel(ctx context.Context, handle string) error {
	cmd := exec.CommandContext(ctx, q.cfg.CancelCmd, handle)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to cancel job %s: %w: %s", handle, err, strings.TrimSpace(string(out)))
	}
	q.log.Info("job canceled", map[string]interface{}{"handle": handle})
	return nil
}
