// Package metrics exposes Prometheus instrumentation for scheduled jobs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Job run outcomes.
const (
	StatusSuccess = "success"
	StatusFailure = "failure"
)

// Metrics holds the CRM collectors and the registry they live in.
type Metrics struct {
	registry         *prometheus.Registry
	jobRuns          *prometheus.CounterVec
	jobDuration      *prometheus.HistogramVec
	customersDeleted prometheus.Counter
}

// New registers the CRM collectors plus Go runtime collectors on a fresh registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		jobRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "crm_job_runs_total",
			Help: "Scheduled job runs by job name and outcome.",
		}, []string{"job", "status"}),
		jobDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "crm_job_duration_seconds",
			Help:    "Wall time of scheduled job runs.",
			Buckets: prometheus.DefBuckets,
		}, []string{"job"}),
		customersDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "crm_customers_deleted_total",
			Help: "Customers removed by the inactive customer cleanup.",
		}),
	}

	m.registry.MustRegister(
		m.jobRuns,
		m.jobDuration,
		m.customersDeleted,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveJob records one run of job.
func (m *Metrics) ObserveJob(job string, took time.Duration, err error) {
	if m == nil {
		return
	}
	status := StatusSuccess
	if err != nil {
		status = StatusFailure
	}
	m.jobRuns.WithLabelValues(job, status).Inc()
	m.jobDuration.WithLabelValues(job).Observe(took.Seconds())
}

// CustomersDeleted adds n to the cleanup counter.
func (m *Metrics) CustomersDeleted(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.customersDeleted.Add(float64(n))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
