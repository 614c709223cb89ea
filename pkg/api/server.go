// Package api exposes a read-only HTTP view of the sweep manifest and
// the artifact directory, plus Prometheus metrics. It carries no
// mutating endpoints: submission and collection stay in the CLI.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/ddimmery/NYU-HPC/pkg/artifact"
	"github.com/ddimmery/NYU-HPC/pkg/logging"
	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/store"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
)

// Server handles sweep status API requests
type Server struct {
	store     store.Store
	artifacts artifact.Store
	log       *logging.Logger
	router    *mux.Router
}

// NewServer creates a status server over a manifest store and an
// artifact store
func NewServer(st store.Store, artifacts artifact.Store, log *logging.Logger) *Server {
	s := &Server{
		store:     st,
		artifacts: artifacts,
		log:       log,
		router:    mux.NewRouter(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.HandleFunc("/sweeps", s.ListSweeps).Methods("GET")
	s.router.HandleFunc("/sweeps/{tag}", s.GetSweep).Methods("GET")
	s.router.HandleFunc("/sweeps/{tag}/artifacts", s.ListArtifacts).Methods("GET")
	s.router.HandleFunc("/health", s.Health).Methods("GET")
	s.router.Handle("/metrics", MetricsHandler(s.store, s.artifacts))
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

// Serve runs the HTTP server until ctx is canceled
func (s *Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	s.log.Info("status server listening", map[string]interface{}{"addr": addr})

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

// SweepSummary aggregates the manifest for one sweep tag
type SweepSummary struct {
	Tag      string         `json:"tag"`
	Total    int            `json:"total"`
	ByStatus map[string]int `json:"by_status"`
}

// ListSweeps returns a summary per sweep tag
func (s *Server) ListSweeps(w http.ResponseWriter, r *http.Request) {
	jobs, err := s.store.GetAllJobs()
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	byTag := make(map[string]*SweepSummary)
	var order []string
	for _, job := range jobs {
		summary, ok := byTag[job.SweepTag]
		if !ok {
			summary = &SweepSummary{Tag: job.SweepTag, ByStatus: make(map[string]int)}
			byTag[job.SweepTag] = summary
			order = append(order, job.SweepTag)
		}
		summary.Total++
		summary.ByStatus[string(job.Status)]++
	}

	summaries := make([]*SweepSummary, 0, len(order))
	for _, tag := range order {
		summaries = append(summaries, byTag[tag])
	}
	writeJSON(w, map[string]interface{}{"sweeps": summaries, "count": len(summaries)})
}

// GetSweep returns every job in one sweep
func (s *Server) GetSweep(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	jobs, err := s.store.GetJobsBySweep(tag)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(jobs) == 0 {
		http.Error(w, "sweep not found", http.StatusNotFound)
		return
	}
	writeJSON(w, map[string]interface{}{"tag": tag, "jobs": jobs, "count": len(jobs)})
}

// ArtifactStatus pairs a job's expected artifact with its presence
type ArtifactStatus struct {
	JobID    string                `json:"job_id"`
	Range    models.ParameterRange `json:"range"`
	Artifact string                `json:"artifact"`
	Present  bool                  `json:"present"`
}

// ListArtifacts reports, for each job in a sweep, whether its artifact
// has appeared yet
func (s *Server) ListArtifacts(w http.ResponseWriter, r *http.Request) {
	tag := mux.Vars(r)["tag"]
	jobs, err := s.store.GetJobsBySweep(tag)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if len(jobs) == 0 {
		http.Error(w, "sweep not found", http.StatusNotFound)
		return
	}

	statuses := make([]ArtifactStatus, 0, len(jobs))
	present := 0
	for _, job := range jobs {
		name := sweep.ArtifactName(job.Range)
		exists, err := s.artifacts.Exists(name)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		if exists {
			present++
		}
		statuses = append(statuses, ArtifactStatus{
			JobID:    job.ID,
			Range:    job.Range,
			Artifact: name,
			Present:  exists,
		})
	}
	writeJSON(w, map[string]interface{}{
		"tag":       tag,
		"artifacts": statuses,
		"present":   present,
		"expected":  len(jobs),
	})
}

// Health responds to health checks
func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
