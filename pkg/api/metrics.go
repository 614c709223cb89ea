package api

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/ddimmery/NYU-HPC/pkg/artifact"
	"github.com/ddimmery/NYU-HPC/pkg/store"
	"github.com/ddimmery/NYU-HPC/pkg/sweep"
)

var (
	jobsDesc = prometheus.NewDesc(
		"hpcsweep_jobs",
		"Number of manifest jobs by sweep and status",
		[]string{"sweep", "status"}, nil,
	)
	artifactsDesc = prometheus.NewDesc(
		"hpcsweep_artifacts_present",
		"Number of expected artifacts present by sweep",
		[]string{"sweep"}, nil,
	)
	artifactsExpectedDesc = prometheus.NewDesc(
		"hpcsweep_artifacts_expected",
		"Number of artifacts a sweep will produce when complete",
		[]string{"sweep"}, nil,
	)
)

// sweepCollector derives gauges from the manifest and artifact stores
// at scrape time; there is no in-process state to count
type sweepCollector struct {
	store     store.Store
	artifacts artifact.Store
}

func (c *sweepCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- jobsDesc
	ch <- artifactsDesc
	ch <- artifactsExpectedDesc
}

func (c *sweepCollector) Collect(ch chan<- prometheus.Metric) {
	jobs, err := c.store.GetAllJobs()
	if err != nil {
		ch <- prometheus.NewInvalidMetric(jobsDesc, err)
		return
	}

	type key struct{ sweep, status string }
	counts := make(map[key]int)
	present := make(map[string]int)
	expected := make(map[string]int)

	for _, job := range jobs {
		counts[key{job.SweepTag, string(job.Status)}]++
		expected[job.SweepTag]++
		ok, err := c.artifacts.Exists(sweep.ArtifactName(job.Range))
		if err == nil && ok {
			present[job.SweepTag]++
		}
	}

	for k, n := range counts {
		ch <- prometheus.MustNewConstMetric(jobsDesc, prometheus.GaugeValue, float64(n), k.sweep, k.status)
	}
	for tag, n := range expected {
		ch <- prometheus.MustNewConstMetric(artifactsExpectedDesc, prometheus.GaugeValue, float64(n), tag)
		ch <- prometheus.MustNewConstMetric(artifactsDesc, prometheus.GaugeValue, float64(present[tag]), tag)
	}
}

// MetricsHandler serves Prometheus metrics derived from the manifest
// and artifact stores
func MetricsHandler(st store.Store, artifacts artifact.Store) http.Handler {
	registry := prometheus.NewRegistry()
	registry.MustRegister(&sweepCollector{store: st, artifacts: artifacts})
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}
