package models

import (
	"fmt"
	"time"
)

// JobStatus represents the status of a sweep job
type JobStatus string

const (
	JobStatusPending   JobStatus = "pending"   // created, not yet handed to the queue
	JobStatusSubmitted JobStatus = "submitted" // acknowledged by the external queue
	JobStatusCompleted JobStatus = "completed" // artifact observed in the store
	JobStatusFailed    JobStatus = "failed"    // submission rejected
	JobStatusCanceled  JobStatus = "canceled"
)

// ParameterRange identifies one contiguous segment of a sweep.
// Disjointness across sibling jobs is the caller's responsibility;
// overlaps surface at collect time as duplicate keys.
type ParameterRange struct {
	Low  int `json:"low"`
	High int `json:"high"`
}

// Validate checks the low <= high invariant
func (r ParameterRange) Validate() error {
	if r.Low > r.High {
		return fmt.Errorf("invalid range: low %d > high %d", r.Low, r.High)
	}
	return nil
}

// Count returns the number of keys covered by the range
func (r ParameterRange) Count() int {
	return r.High - r.Low + 1
}

// Contains reports whether k falls inside the range
func (r ParameterRange) Contains(k int) bool {
	return k >= r.Low && k <= r.High
}

func (r ParameterRange) String() string {
	return fmt.Sprintf("[%d,%d]", r.Low, r.High)
}

// Job represents one sweep segment handed to the external queue
type Job struct {
	ID          string         `json:"id"`
	SweepTag    string         `json:"sweep_tag"`
	Range       ParameterRange `json:"range"`
	QueueHandle string         `json:"queue_handle,omitempty"`
	Status      JobStatus      `json:"status"`
	CreatedAt   time.Time      `json:"created_at"`
	SubmittedAt *time.Time     `json:"submitted_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	Error       string         `json:"error,omitempty"`
}
