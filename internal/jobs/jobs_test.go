package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezmobilemechanic/crm/internal/jobs"
	"github.com/ezmobilemechanic/crm/internal/metrics"
)

type countingJob struct {
	name string
	err  error

	mu   sync.Mutex
	runs int
}

func (c *countingJob) Name() string { return c.name }

func (c *countingJob) Run(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.runs++
	return c.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil))
}

func TestRegistryRun(t *testing.T) {
	m := metrics.New()
	reg := jobs.NewRegistry(quietLogger(), m)
	ok := &countingJob{name: "ok"}
	bad := &countingJob{name: "bad", err: errors.New("boom")}
	reg.Register(ok, bad)

	assert.Equal(t, []string{"bad", "ok"}, reg.Names())
	require.NoError(t, reg.Run(context.Background(), "ok"))
	assert.EqualError(t, reg.Run(context.Background(), "bad"), "boom")
	assert.ErrorIs(t, reg.Run(context.Background(), "nope"), jobs.ErrUnknownJob)

	expected := `
# HELP crm_job_runs_total Scheduled job runs by job name and outcome.
# TYPE crm_job_runs_total counter
crm_job_runs_total{job="bad",status="failure"} 1
crm_job_runs_total{job="ok",status="success"} 1
`
	assert.NoError(t, testutil.GatherAndCompare(m.Registry(), strings.NewReader(expected), "crm_job_runs_total"))
}

func TestDispatcherSubmit(t *testing.T) {
	reg := jobs.NewRegistry(quietLogger(), nil)
	report := &countingJob{name: jobs.CRMReport}
	health := &countingJob{name: jobs.DailyHealthCheck}
	reg.Register(report, health)

	subs, err := jobs.NewDispatcher(reg).Submit(context.Background(), jobs.CRMReport, jobs.DailyHealthCheck)
	require.NoError(t, err)
	require.Len(t, subs, 2)
	assert.Equal(t, jobs.CRMReport, subs[0].Job)
	assert.Equal(t, jobs.DailyHealthCheck, subs[1].Job)
	assert.NotEmpty(t, subs[0].ID)
	assert.NotEqual(t, subs[0].ID, subs[1].ID)
	assert.Equal(t, 1, report.runs)
	assert.Equal(t, 1, health.runs)
}

func TestDispatcherCollectsFailures(t *testing.T) {
	reg := jobs.NewRegistry(quietLogger(), nil)
	fail := &countingJob{name: "fail", err: errors.New("exploded")}
	ok := &countingJob{name: "ok"}
	reg.Register(fail, ok)

	d := jobs.NewDispatcher(reg)
	subs, err := d.Submit(context.Background(), "fail", "ok")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exploded")
	assert.Equal(t, 1, ok.runs, "a failure does not cancel siblings")
	assert.Error(t, subs[0].Err)
	assert.NoError(t, subs[1].Err)

	_, err = d.Submit(context.Background(), "ok", "missing")
	assert.ErrorIs(t, err, jobs.ErrUnknownJob)
	assert.Equal(t, 1, ok.runs, "nothing runs when a name is unknown")
}
