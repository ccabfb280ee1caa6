// Package jobs implements the CRM maintenance jobs and the registry that runs them.
package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/ezmobilemechanic/crm/internal/metrics"
)

// Job names as used by the scheduler and the CLI.
const (
	CleanupInactiveCustomers = "cleanup_inactive_customers"
	Heartbeat                = "log_crm_heartbeat"
	CRMReport                = "generate_crm_report"
	DailyHealthCheck         = "daily_health_check"
	OrderReminders           = "send_order_reminders"
	RestockLowStock          = "update_low_stock_products"
)

// ErrUnknownJob is returned when a job name is not registered.
var ErrUnknownJob = errors.New("unknown job")

// Job is a unit of maintenance work.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Pinger checks connectivity to the backing database. *sql.DB satisfies it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// PingerFunc adapts a function to Pinger.
type PingerFunc func(ctx context.Context) error

func (f PingerFunc) PingContext(ctx context.Context) error { return f(ctx) }

// Registry holds named jobs and runs them with logging and metrics.
type Registry struct {
	jobs    map[string]Job
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewRegistry returns an empty registry. m may be nil.
func NewRegistry(logger *slog.Logger, m *metrics.Metrics) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{jobs: make(map[string]Job), logger: logger, metrics: m}
}

// Register adds jobs, replacing any with the same name.
func (r *Registry) Register(jobs ...Job) {
	for _, j := range jobs {
		r.jobs[j.Name()] = j
	}
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.jobs[name]
	return ok
}

// Names returns the registered job names in sorted order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.jobs))
	for name := range r.jobs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Run executes the named job once.
func (r *Registry) Run(ctx context.Context, name string) error {
	job, ok := r.jobs[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}

	start := time.Now()
	r.logger.Debug("job started", "job", name)
	err := job.Run(ctx)
	took := time.Since(start)
	r.metrics.ObserveJob(name, took, err)

	if err != nil {
		r.logger.Error("job failed", "job", name, "duration", took, "error", err)
		return err
	}
	r.logger.Info("job finished", "job", name, "duration", took)
	return nil
}
