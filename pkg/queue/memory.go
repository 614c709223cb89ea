package queue

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

// MemQueue is an in-memory Queue used in tests and dry runs. It accepts
// every submission (unless a failure is injected) and remembers the
// scripts it was handed.
type MemQueue struct {
	mu      sync.Mutex
	seq     int
	jobs    map[string]QueueJob // handle -> job
	Scripts map[string]string   // handle -> submitted script
	// SubmitErr, when set, is returned by every Submit call
	SubmitErr error
}

// NewMemQueue creates an empty in-memory queue
func NewMemQueue() *MemQueue {
	return &MemQueue{
		jobs:    make(map[string]QueueJob),
		Scripts: make(map[string]string),
	}
}

// Submit records the script and returns a synthetic handle
func (q *MemQueue) Submit(ctx context.Context, script string, job *models.Job) (string, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.SubmitErr != nil {
		return "", q.SubmitErr
	}

	q.seq++
	handle := fmt.Sprintf("mem-%d", q.seq)
	q.jobs[handle] = QueueJob{
		Handle: handle,
		Name:   JobName(job.SweepTag, job.Range),
		State:  "Q",
	}
	q.Scripts[handle] = script
	return handle, nil
}

// Status returns outstanding jobs whose name carries the tag prefix
func (q *MemQueue) Status(ctx context.Context, tag string) ([]QueueJob, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	var out []QueueJob
	for _, job := range q.jobs {
		if strings.HasPrefix(job.Name, tag+"_") {
			out = append(out, job)
		}
	}
	return out, nil
}

// Cancel removes a job from the outstanding set
func (q *MemQueue) Cancel(ctx context.Context, handle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if _, ok := q.jobs[handle]; !ok {
		return fmt.Errorf("unknown job handle %s", handle)
	}
	delete(q.jobs, handle)
	return nil
}

// Finish marks a job as done, removing it from the outstanding set the
// way a real scheduler drops completed jobs from its status listing
func (q *MemQueue) Finish(handle string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	delete(q.jobs, handle)
}
