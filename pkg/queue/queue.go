// Package queue wraps the external batch scheduler. The scheduler is
// opaque: it accepts a rendered job script, runs it somewhere at some
// point, and can be asked which jobs are still outstanding. Results
// never travel back through the queue; they only ever appear as
// artifact files.
package queue

import (
	"context"
	"fmt"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

// QueueJob is one outstanding entry reported by the scheduler
type QueueJob struct {
	Handle string `json:"handle"`
	Name   string `json:"name"`
	State  string `json:"state"`
}

// Queue is the capability surface of the external scheduler
type Queue interface {
	// Submit hands a rendered job script to the scheduler and returns
	// as soon as the submission is acknowledged. It never waits for
	// the job to run.
	Submit(ctx context.Context, script string, job *models.Job) (handle string, err error)

	// Status lists outstanding jobs whose name carries the sweep tag.
	// Idempotent, safe to poll.
	Status(ctx context.Context, tag string) ([]QueueJob, error)

	// Cancel asks the scheduler to withdraw a job by handle
	Cancel(ctx context.Context, handle string) error
}

// SubmissionError means the scheduler was unreachable or rejected the
// job. The spool file is retained at SpoolPath for diagnosis.
type SubmissionError struct {
	SpoolPath string
	Output    string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed (spool file retained at %s): %v: %s", e.SpoolPath, e.Err, e.Output)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}

// JobName builds the scheduler-visible job name for a sweep segment.
// The tag prefix is what Status filters on.
func JobName(tag string, r models.ParameterRange) string {
	return fmt.Sprintf("%s_%d_%d", tag, r.Low, r.High)
}
