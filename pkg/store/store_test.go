package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

func newJob(id, tag string, low, high int) *models.Job {
	return &models.Job{
		ID:        id,
		SweepTag:  tag,
		Range:     models.ParameterRange{Low: low, High: high},
		Status:    models.JobStatusPending,
		CreatedAt: time.Now(),
	}
}

// exerciseStore runs the manifest contract against any backend
func exerciseStore(t *testing.T, s Store) {
	t.Helper()

	if err := s.CreateJob(newJob("job-1", "alpha", 1, 5)); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := s.CreateJob(newJob("job-2", "alpha", 6, 10)); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	if err := s.CreateJob(newJob("job-3", "beta", 1, 100)); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}

	job, err := s.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.SweepTag != "alpha" || job.Range.High != 5 {
		t.Errorf("Unexpected job: %+v", job)
	}

	if _, err := s.GetJob("missing"); err != ErrJobNotFound {
		t.Errorf("Expected ErrJobNotFound, got %v", err)
	}

	alpha, err := s.GetJobsBySweep("alpha")
	if err != nil {
		t.Fatalf("GetJobsBySweep failed: %v", err)
	}
	if len(alpha) != 2 {
		t.Fatalf("Expected 2 alpha jobs, got %d", len(alpha))
	}

	all, err := s.GetAllJobs()
	if err != nil {
		t.Fatalf("GetAllJobs failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 jobs total, got %d", len(all))
	}

	if err := s.UpdateJobStatus("job-1", models.JobStatusSubmitted, ""); err != nil {
		t.Fatalf("UpdateJobStatus failed: %v", err)
	}
	if err := s.SetQueueHandle("job-1", "101.pbs"); err != nil {
		t.Fatalf("SetQueueHandle failed: %v", err)
	}
	job, err = s.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != models.JobStatusSubmitted {
		t.Errorf("Expected submitted status, got %s", job.Status)
	}
	if job.SubmittedAt == nil {
		t.Error("Expected SubmittedAt to be set on submission")
	}
	if job.QueueHandle != "101.pbs" {
		t.Errorf("Expected queue handle 101.pbs, got %q", job.QueueHandle)
	}

	if err := s.MarkCompleted("job-1"); err != nil {
		t.Fatalf("MarkCompleted failed: %v", err)
	}
	job, err = s.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if job.Status != models.JobStatusCompleted || job.CompletedAt == nil {
		t.Errorf("Expected completed job with timestamp, got %+v", job)
	}

	tags, err := s.SweepTags()
	if err != nil {
		t.Fatalf("SweepTags failed: %v", err)
	}
	if len(tags) != 2 || tags[0] != "alpha" || tags[1] != "beta" {
		t.Errorf("Expected [alpha beta], got %v", tags)
	}

	if err := s.DeleteSweep("alpha"); err != nil {
		t.Fatalf("DeleteSweep failed: %v", err)
	}
	all, err = s.GetAllJobs()
	if err != nil {
		t.Fatalf("GetAllJobs failed: %v", err)
	}
	if len(all) != 1 || all[0].SweepTag != "beta" {
		t.Errorf("Expected only beta jobs after delete, got %d jobs", len(all))
	}
}

func TestMemoryStore(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "manifest.db"))
	if err != nil {
		t.Fatalf("Failed to create SQLite store: %v", err)
	}
	defer s.Close()
	exerciseStore(t, s)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	if err := s.CreateJob(newJob("job-1", "alpha", 1, 5)); err != nil {
		t.Fatalf("CreateJob failed: %v", err)
	}
	job, err := s.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	job.Status = models.JobStatusFailed

	fresh, err := s.GetJob("job-1")
	if err != nil {
		t.Fatalf("GetJob failed: %v", err)
	}
	if fresh.Status != models.JobStatusPending {
		t.Error("Mutating a returned job leaked into the store")
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("cassandra", ""); err == nil {
		t.Error("Expected error for unknown backend, got nil")
	}
}
