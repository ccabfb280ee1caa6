// Package scheduler runs registered jobs on cron expressions.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Runner executes jobs by name.
type Runner interface {
	Has(name string) bool
	Run(ctx context.Context, name string) error
}

// Planned is the next activation of a scheduled job.
type Planned struct {
	Job      string
	Schedule string
	Next     time.Time
}

// Scheduler triggers jobs on their cron schedules.
type Scheduler struct {
	cron     *cron.Cron
	runner   Runner
	logger   *slog.Logger
	schedule Schedule
	specs    []cron.Schedule
	ctx      context.Context
}

// New validates schedule against runner and prepares the cron table. Unknown job
// names and malformed expressions are rejected.
func New(schedule Schedule, runner Runner, logger *slog.Logger, opts ...cron.Option) (*Scheduler, error) {
	if logger == nil {
		logger = slog.Default()
	}
	adapter := cronLogger{logger: logger}
	opts = append([]cron.Option{
		cron.WithLogger(adapter),
		cron.WithChain(cron.Recover(adapter), cron.SkipIfStillRunning(adapter)),
	}, opts...)

	s := &Scheduler{
		cron:     cron.New(opts...),
		runner:   runner,
		logger:   logger,
		schedule: schedule,
		ctx:      context.Background(),
	}

	for _, e := range schedule.Jobs {
		if !runner.Has(e.Job) {
			return nil, fmt.Errorf("schedule: unknown job %q", e.Job)
		}
		spec, err := cron.ParseStandard(e.Schedule)
		if err != nil {
			return nil, fmt.Errorf("schedule: job %q: invalid expression %q: %w", e.Job, e.Schedule, err)
		}
		name := e.Job
		s.cron.Schedule(spec, cron.FuncJob(func() {
			if err := s.runner.Run(s.ctx, name); err != nil {
				s.logger.Warn("scheduled run failed", "job", name, "error", err)
			}
		}))
		s.specs = append(s.specs, spec)
	}

	return s, nil
}

// Planned lists the first activation after now of every scheduled job.
func (s *Scheduler) Planned(now time.Time) []Planned {
	out := make([]Planned, 0, len(s.specs))
	for i, spec := range s.specs {
		out = append(out, Planned{
			Job:      s.schedule.Jobs[i].Job,
			Schedule: s.schedule.Jobs[i].Schedule,
			Next:     spec.Next(now),
		})
	}
	return out
}

// Run starts the scheduler and blocks until ctx is done, then waits for running jobs.
// Jobs receive ctx, so cancellation reaches runs in flight.
func (s *Scheduler) Run(ctx context.Context) error {
	s.ctx = ctx
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.specs))

	<-ctx.Done()

	s.logger.Info("scheduler stopping")
	<-s.cron.Stop().Done()
	s.logger.Info("scheduler stopped")
	return nil
}

type cronLogger struct {
	logger *slog.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.logger.Debug("cron: "+msg, keysAndValues...)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.logger.Error("cron: "+msg, append(keysAndValues, "error", err)...)
}
