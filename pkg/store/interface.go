// Package store persists the sweep manifest: one record per submitted
// job, so listings and completion checks do not depend on asking the
// external queue.
package store

import (
	"errors"
	"fmt"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

var ErrJobNotFound = errors.New("job not found")

// Store defines the interface for manifest persistence.
// Memory, SQLite and PostgreSQL implementations are provided.
type Store interface {
	CreateJob(job *models.Job) error
	GetJob(id string) (*models.Job, error)
	GetJobsBySweep(tag string) ([]*models.Job, error)
	GetAllJobs() ([]*models.Job, error)
	UpdateJobStatus(id string, status models.JobStatus, errMsg string) error
	// SetQueueHandle records the scheduler's handle once submission
	// is acknowledged
	SetQueueHandle(id, handle string) error
	// MarkCompleted is called when the job's artifact is observed
	MarkCompleted(id string) error
	DeleteSweep(tag string) error
	// SweepTags lists distinct sweep tags present in the manifest
	SweepTags() ([]string, error)
	Close() error
}

// Open creates a store for the given backend: "memory", "sqlite"
// (dsn is the database path) or "postgres" (dsn is a connection string)
func Open(backend, dsn string) (Store, error) {
	switch backend {
	case "", "memory":
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(dsn)
	case "postgres":
		return NewPostgresStore(dsn)
	default:
		return nil, fmt.Errorf("unknown store backend %q", backend)
	}
}
