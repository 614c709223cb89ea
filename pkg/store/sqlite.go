package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ddimmery/NYU-HPC/pkg/models"
)

// SQLiteStore is a SQLite-based implementation of the manifest store
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	// WAL for concurrent readers, busy timeout for writers racing from
	// separate submit invocations
	dsn := fmt.Sprintf("%s?_journal_mode=WAL&_busy_timeout=10000&_synchronous=NORMAL", dbPath)

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Single writer to avoid SQLITE_BUSY
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS jobs (
		id TEXT PRIMARY KEY,
		sweep_tag TEXT NOT NULL,
		low INTEGER NOT NULL,
		high INTEGER NOT NULL,
		queue_handle TEXT,
		status TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		submitted_at DATETIME,
		completed_at DATETIME,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_jobs_sweep_tag ON jobs(sweep_tag);
	CREATE INDEX IF NOT EXISTS idx_jobs_status ON jobs(status);
	`
	_, err := s.db.Exec(schema)
	return err
}

// CreateJob adds a job to the store
func (s *SQLiteStore) CreateJob(job *models.Job) error {
	_, err := s.db.Exec(`
		INSERT INTO jobs (id, sweep_tag, low, high, queue_handle, status, created_at, submitted_at, completed_at, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, job.ID, job.SweepTag, job.Range.Low, job.Range.High, job.QueueHandle, string(job.Status),
		job.CreatedAt, job.SubmittedAt, job.CompletedAt, job.Error)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

func scanJob(row interface{ Scan(...interface{}) error }) (*models.Job, error) {
	var job models.Job
	var status string
	var handle, errMsg sql.NullString
	var submittedAt, completedAt sql.NullTime

	err := row.Scan(&job.ID, &job.SweepTag, &job.Range.Low, &job.Range.High,
		&handle, &status, &job.CreatedAt, &submittedAt, &completedAt, &errMsg)
	if err != nil {
		return nil, err
	}

	job.Status = models.JobStatus(status)
	job.QueueHandle = handle.String
	job.Error = errMsg.String
	if submittedAt.Valid {
		t := submittedAt.Time
		job.SubmittedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	return &job, nil
}

const jobColumns = "id, sweep_tag, low, high, queue_handle, status, created_at, submitted_at, completed_at, error"

// GetJob retrieves a job by ID
func (s *SQLiteStore) GetJob(id string) (*models.Job, error) {
	row := s.db.QueryRow("SELECT "+jobColumns+" FROM jobs WHERE id = ?", id)
	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, ErrJobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

func (s *SQLiteStore) queryJobs(query string, args ...interface{}) ([]*models.Job, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*models.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// GetJobsBySweep returns all jobs carrying a sweep tag, oldest first
func (s *SQLiteStore) GetJobsBySweep(tag string) ([]*models.Job, error) {
	return s.queryJobs("SELECT "+jobColumns+" FROM jobs WHERE sweep_tag = ? ORDER BY created_at, low", tag)
}

// GetAllJobs returns every job in the manifest, oldest first
func (s *SQLiteStore) GetAllJobs() ([]*models.Job, error) {
	return s.queryJobs("SELECT " + jobColumns + " FROM jobs ORDER BY created_at, low")
}

// UpdateJobStatus updates the status and error message of a job
func (s *SQLiteStore) UpdateJobStatus(id string, status models.JobStatus, errMsg string) error {
	var res sql.Result
	var err error
	if status == models.JobStatusSubmitted {
		res, err = s.db.Exec(`UPDATE jobs SET status = ?, error = ?, submitted_at = COALESCE(submitted_at, ?) WHERE id = ?`,
			string(status), errMsg, time.Now(), id)
	} else {
		res, err = s.db.Exec(`UPDATE jobs SET status = ?, error = ? WHERE id = ?`, string(status), errMsg, id)
	}
	if err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}
	return checkAffected(res)
}

// SetQueueHandle records the scheduler's handle for a job
func (s *SQLiteStore) SetQueueHandle(id, handle string) error {
	res, err := s.db.Exec(`UPDATE jobs SET queue_handle = ? WHERE id = ?`, handle, id)
	if err != nil {
		return fmt.Errorf("failed to set queue handle: %w", err)
	}
	return checkAffected(res)
}

// MarkCompleted records that the job's artifact has been observed
func (s *SQLiteStore) MarkCompleted(id string) error {
	res, err := s.db.Exec(`
		UPDATE jobs SET status = ?, completed_at = COALESCE(completed_at, ?) WHERE id = ?
	`, string(models.JobStatusCompleted), time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to mark job completed: %w", err)
	}
	return checkAffected(res)
}

// DeleteSweep removes every job carrying a sweep tag
func (s *SQLiteStore) DeleteSweep(tag string) error {
	if _, err := s.db.Exec(`DELETE FROM jobs WHERE sweep_tag = ?`, tag); err != nil {
		return fmt.Errorf("failed to delete sweep %s: %w", tag, err)
	}
	return nil
}

// SweepTags lists distinct sweep tags, sorted
func (s *SQLiteStore) SweepTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT DISTINCT sweep_tag FROM jobs ORDER BY sweep_tag`)
	if err != nil {
		return nil, fmt.Errorf("failed to list sweep tags: %w", err)
	}
	defer rows.Close()

	var tags []string
	for rows.Next() {
		var tag string
		if err := rows.Scan(&tag); err != nil {
			return nil, err
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func checkAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}
