package store

import (
	"sort"
	"sync"
	"time"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

// MemoryStore is an in-memory implementation of the manifest store
type MemoryStore struct {
	mu   sync.RWMutex
	jobs map[string]*models.Job
}

// NewMemoryStore creates a new in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

// CreateJob adds a job to the store
func (s *MemoryStore) CreateJob(job *models.Job) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *job
	s.jobs[job.ID] = &clone
	return nil
}

// GetJob retrieves a job by ID
func (s *MemoryStore) GetJob(id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrJobNotFound
	}
	clone := *job
	return &clone, nil
}

// GetJobsBySweep returns all jobs carrying a sweep tag, oldest first
func (s *MemoryStore) GetJobsBySweep(tag string) ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var jobs []*models.Job
	for _, job := range s.jobs {
		if job.SweepTag == tag {
			clone := *job
			jobs = append(jobs, &clone)
		}
	}
	sortJobs(jobs)
	return jobs, nil
}

// GetAllJobs returns every job in the manifest, oldest first
func (s *MemoryStore) GetAllJobs() ([]*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	jobs := make([]*models.Job, 0, len(s.jobs))
	for _, job := range s.jobs {
		clone := *job
		jobs = append(jobs, &clone)
	}
	sortJobs(jobs)
	return jobs, nil
}

// UpdateJobStatus updates the status and error message of a job
func (s *MemoryStore) UpdateJobStatus(id string, status models.JobStatus, errMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = status
	job.Error = errMsg
	if status == models.JobStatusSubmitted && job.SubmittedAt == nil {
		now := time.Now()
		job.SubmittedAt = &now
	}
	return nil
}

// SetQueueHandle records the scheduler's handle for a job
func (s *MemoryStore) SetQueueHandle(id, handle string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.QueueHandle = handle
	return nil
}

// MarkCompleted records that the job's artifact has been observed
func (s *MemoryStore) MarkCompleted(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	job, ok := s.jobs[id]
	if !ok {
		return ErrJobNotFound
	}
	job.Status = models.JobStatusCompleted
	if job.CompletedAt == nil {
		now := time.Now()
		job.CompletedAt = &now
	}
	return nil
}

// DeleteSweep removes every job carrying a sweep tag
func (s *MemoryStore) DeleteSweep(tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, job := range s.jobs {
		if job.SweepTag == tag {
			delete(s.jobs, id)
		}
	}
	return nil
}

// SweepTags lists distinct sweep tags, sorted
func (s *MemoryStore) SweepTags() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var tags []string
	for _, job := range s.jobs {
		if !seen[job.SweepTag] {
			seen[job.SweepTag] = true
			tags = append(tags, job.SweepTag)
		}
	}
	sort.Strings(tags)
	return tags, nil
}

// Close is a no-op for the in-memory store
func (s *MemoryStore) Close() error {
	return nil
}

func sortJobs(jobs []*models.Job) {
	sort.Slice(jobs, func(i, j int) bool {
		if jobs[i].CreatedAt.Equal(jobs[j].CreatedAt) {
			return jobs[i].Range.Low < jobs[j].Range.Low
		}
		return jobs[i].CreatedAt.Before(jobs[j].CreatedAt)
	})
}
