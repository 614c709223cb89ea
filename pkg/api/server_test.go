package api_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ddimmery/NYU-HPC/pkg/api"
	"github.com/ddimmery/NYU-HPC/pkg/artifact"
	"github.com/ddimmery/NYU-HPC/pkg/logging"
	"github.com/ddimmery/NYU-HPC/pkg/models"
	"github.com/ddimmery/NYU-HPC/pkg/store"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
)

func setupServer(t *testing.T) (*api.Server, store.Store, *artifact.MemStore) {
	t.Helper()

	manifest := store.NewMemoryStore()
	jobs := []*models.Job{
		{
			ID:        "job-1",
			SweepTag:  "alpha",
			Range:     models.ParameterRange{Low: 1, High: 5},
			Status:    models.JobStatusSubmitted,
			CreatedAt: time.Now(),
		},
		{
			ID:        "job-2",
			SweepTag:  "alpha",
			Range:     models.ParameterRange{Low: 6, High: 10},
			Status:    models.JobStatusSubmitted,
			CreatedAt: time.Now(),
		},
	}
	for _, job := range jobs {
		if err := manifest.CreateJob(job); err != nil {
			t.Fatalf("Failed to create job: %v", err)
		}
	}

	artifacts := artifact.NewMemStore()
	artifacts.Put(sweep.ArtifactName(models.ParameterRange{Low: 1, High: 5}), []byte("k,m\n1,1\n"))

	log := logging.New(logging.ERROR, false)
	return api.NewServer(manifest, artifacts, log), manifest, artifacts
}

func TestListSweeps(t *testing.T) {
	server, _, _ := setupServer(t)

	req := httptest.NewRequest("GET", "/sweeps", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Sweeps []api.SweepSummary `json:"sweeps"`
		Count  int                `json:"count"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Count != 1 || resp.Sweeps[0].Tag != "alpha" || resp.Sweeps[0].Total != 2 {
		t.Errorf("Unexpected sweep listing: %+v", resp)
	}
	if resp.Sweeps[0].ByStatus["submitted"] != 2 {
		t.Errorf("Expected 2 submitted jobs, got %+v", resp.Sweeps[0].ByStatus)
	}
}

func TestGetSweepNotFound(t *testing.T) {
	server, _, _ := setupServer(t)

	req := httptest.NewRequest("GET", "/sweeps/unknown", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", w.Code)
	}
}

func TestListArtifactsReportsPresence(t *testing.T) {
	server, _, _ := setupServer(t)

	req := httptest.NewRequest("GET", "/sweeps/alpha/artifacts", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		Artifacts []api.ArtifactStatus `json:"artifacts"`
		Present   int                  `json:"present"`
		Expected  int                  `json:"expected"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Failed to parse response: %v", err)
	}
	if resp.Expected != 2 || resp.Present != 1 {
		t.Errorf("Expected 1 of 2 artifacts present, got %+v", resp)
	}
	if !resp.Artifacts[0].Present || resp.Artifacts[1].Present {
		t.Errorf("Presence flags wrong: %+v", resp.Artifacts)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	server, _, _ := setupServer(t)

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	body := w.Body.String()
	if !strings.Contains(body, "hpcsweep_jobs") {
		t.Error("Expected hpcsweep_jobs metric in exposition")
	}
	if !strings.Contains(body, `hpcsweep_artifacts_present{sweep="alpha"} 1`) {
		t.Errorf("Expected artifact presence gauge, got:\n%s", body)
	}
}

func TestHealth(t *testing.T) {
	server, _, _ := setupServer(t)

	req := httptest.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Expected status 200, got %d", w.Code)
	}
}
