package jobs_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezmobilemechanic/crm/internal/domain"
	"github.com/ezmobilemechanic/crm/internal/jobs"
)

func TestReportJobWritesFramedReport(t *testing.T) {
	c := newContainer()
	laptop := addProduct(t, c, "Laptop", 99999, 3)
	cable := addProduct(t, c, "Cable", 550, 200)
	alice := addCustomer(t, c, "Alice", "alice@example.com")
	bob := addCustomer(t, c, "Bob", "bob@example.com")

	addOrder(t, c, alice.ID, laptop.ID, 1, fixedNow.AddDate(0, 0, -20))
	for i := 1; i <= 5; i++ {
		addOrder(t, c, bob.ID, cable.ID, i, fixedNow.AddDate(0, 0, -i))
	}

	path := logPath(t, "report.txt")
	job := &jobs.ReportJob{
		Customers: c.Customers,
		Products:  c.Products,
		Orders:    c.Orders,
		LogPath:   path,
		Logger:    slog.New(slog.NewJSONHandler(&bytes.Buffer{}, nil)),
		Now:       clock,
	}
	require.NoError(t, job.Run(context.Background()))

	lines := readLines(t, path)
	require.NotEmpty(t, lines)
	assert.Equal(t, "", lines[0])
	assert.Equal(t, strings.Repeat("=", 50), lines[1])
	assert.Equal(t, "Weekly CRM Report - 2026-10-19 02:00:00", lines[2])

	// 99999 + 550 * (1+2+3+4+5)
	assert.Contains(t, lines, "  - Total Revenue: $1082.49")
	assert.Contains(t, lines, "  - Total Customers: 2")
	assert.Contains(t, lines, "  - Total Orders: 6")
	assert.Contains(t, lines, "  - Low Stock Products: 1")
	assert.Contains(t, lines, "Alert: 1 products are low in stock!")
	assert.Contains(t, lines, "    - Bob: $5.50 (2026-10-18)")
	assert.NotContains(t, strings.Join(lines, "\n"), "Alice: $999.99", "only the five newest orders are listed")
	assert.Equal(t, "2026-10-19 02:00:00 - Report: 2 customers, 6 orders, $1082.49 revenue", lines[len(lines)-1])
}

func TestReportJobNoOrders(t *testing.T) {
	c := newContainer()
	path := logPath(t, "report.txt")
	job := &jobs.ReportJob{Customers: c.Customers, Products: c.Products, Orders: c.Orders, LogPath: path, Now: clock}

	require.NoError(t, job.Run(context.Background()))
	lines := readLines(t, path)
	assert.Contains(t, lines, "  No recent orders")
	assert.NotContains(t, strings.Join(lines, "\n"), "Alert:")
	assert.Equal(t, "2026-10-19 02:00:00 - Report: 0 customers, 0 orders, $0.00 revenue", lines[len(lines)-1])
}

func TestReportJobFailureLine(t *testing.T) {
	c := domain.New(domain.Options{})
	path := logPath(t, "report.txt")
	job := &jobs.ReportJob{Customers: c.Customers, Products: c.Products, Orders: c.Orders, LogPath: path, Now: clock}

	require.Error(t, job.Run(context.Background()))
	lines := readLines(t, path)
	require.Len(t, lines, 1)
	assert.True(t, strings.HasPrefix(lines[0], "2026-10-19 02:00:00 - Report generation failed: count customers:"), lines[0])
}

func TestHealthCheck(t *testing.T) {
	c := newContainer()
	p := addProduct(t, c, "Widget", 100, 20)
	cust := addCustomer(t, c, "Ann", "ann@example.com")
	addOrder(t, c, cust.ID, p.ID, 1, fixedNow)

	var logs bytes.Buffer
	job := &jobs.HealthCheckJob{
		DB:        okPinger(),
		Customers: c.Customers,
		Products:  c.Products,
		Orders:    c.Orders,
		Logger:    slog.New(slog.NewJSONHandler(&logs, nil)),
	}

	st, err := job.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, jobs.HealthStatus{Customers: 1, Orders: 1, Products: 1}, st)

	require.NoError(t, job.Run(context.Background()))
	assert.Contains(t, logs.String(), "System healthy - 1 customers, 1 orders, 1 products")

	job.DB = jobs.PingerFunc(func(context.Context) error { return errors.New("down") })
	assert.Error(t, job.Run(context.Background()))
}

func TestRunCustomReport(t *testing.T) {
	ctx := context.Background()
	weekly := &countingJob{name: jobs.CRMReport}
	daily := &countingJob{name: jobs.DailyHealthCheck}
	reg := jobs.NewRegistry(quietLogger(), nil)
	reg.Register(weekly, daily)

	require.NoError(t, reg.RunCustomReport(ctx, jobs.ReportWeekly))
	require.NoError(t, reg.RunCustomReport(ctx, jobs.ReportDaily))
	assert.Equal(t, 1, weekly.runs)
	assert.Equal(t, 1, daily.runs)

	err := reg.RunCustomReport(ctx, "monthly")
	assert.ErrorIs(t, err, jobs.ErrUnknownReportType)
	assert.Contains(t, err.Error(), "monthly")
}
