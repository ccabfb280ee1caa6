package commands

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ezmobilemechanic/crm/internal/app"
	"github.com/ezmobilemechanic/crm/internal/config"
	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
	"github.com/ezmobilemechanic/crm/internal/jobs"
)

// testEnv runs every command against a private in-memory sqlite database,
// seeded with one customer per email each time the application is built.
func testEnv(t *testing.T, seedCustomers ...string) (Env, config.Config) {
	t.Helper()
	dir := t.TempDir()
	cfg := config.Config{
		Env:         "test",
		DataBackend: "sqlite",
		DatabaseURL: ":memory:",
		Jobs: config.JobSettings{
			APIBaseURL:         "http://127.0.0.1:1",
			CleanupLogPath:     filepath.Join(dir, "customer_cleanup_log.txt"),
			InactiveDays:       365,
			HeartbeatLogPath:   filepath.Join(dir, "crm_heartbeat_log.txt"),
			ReportLogPath:      filepath.Join(dir, "crm_report_log.txt"),
			ReminderLogPath:    filepath.Join(dir, "order_reminders_log.txt"),
			ReminderWindowDays: 7,
			RestockLogPath:     filepath.Join(dir, "low_stock_updates_log.txt"),
			RestockAmount:      10,
		},
	}

	env := Env{
		LoadConfig: func() (config.Config, error) { return cfg, nil },
		NewApp: func(ctx context.Context, c config.Config, logr *slog.Logger) (*app.App, error) {
			a, err := app.New(ctx, c, logr)
			if err != nil {
				return nil, err
			}
			for _, email := range seedCustomers {
				if _, err := a.Domain.Customers.Create(ctx, customers.CreateInput{Name: email, Email: email}); err != nil {
					return nil, err
				}
			}
			return a, nil
		},
	}
	return env, cfg
}

func execute(env Env, args ...string) (stdout, stderr string, err error) {
	var out, errOut bytes.Buffer
	root := NewRootCmd(env)
	root.SetOut(&out)
	root.SetErr(&errOut)
	root.SetArgs(args)
	err = root.Execute()
	return out.String(), errOut.String(), err
}

func TestCleanupInactiveCommand(t *testing.T) {
	env, cfg := testEnv(t, "a@example.com", "b@example.com")

	stdout, stderr, err := execute(env, "cleanup-inactive")
	require.NoError(t, err)
	assert.Equal(t, "Deleted 2 inactive customers\n", stdout)
	assert.NotContains(t, stdout, "{", "logs stay off stdout")
	assert.Contains(t, stderr, `"job":"cleanup_inactive_customers"`)

	data, err := os.ReadFile(cfg.Jobs.CleanupLogPath)
	require.NoError(t, err)
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] Deleted 2 inactive customers \(no orders since \d{4}-\d{2}-\d{2}\)\n$`, string(data))
}

func TestJobsRefuseMemoryBackend(t *testing.T) {
	env, cfg := testEnv(t, "a@example.com")
	cfg.DataBackend = "memory"
	cfg.DatabaseURL = ""
	env.LoadConfig = func() (config.Config, error) { return cfg, nil }

	for _, args := range [][]string{
		{"cleanup-inactive"},
		{"cleanup-inactive", "--inactive-days", "30"},
		{"report"},
		{"health-check"},
		{"heartbeat"},
		{"order-reminders"},
		{"restock-low-stock"},
		{"trigger"},
		{"schedule"},
	} {
		stdout, _, err := execute(env, args...)
		assert.ErrorIs(t, err, ErrEphemeralBackend, args)
		assert.Empty(t, stdout, args)
	}

	_, err := os.Stat(cfg.Jobs.CleanupLogPath)
	assert.ErrorIs(t, err, os.ErrNotExist, "a refused cleanup writes no log line")
}

func TestScheduleDryRunAllowsMemoryBackend(t *testing.T) {
	env, cfg := testEnv(t)
	cfg.DataBackend = "memory"
	cfg.DatabaseURL = ""
	env.LoadConfig = func() (config.Config, error) { return cfg, nil }

	stdout, _, err := execute(env, "schedule", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, stdout, jobs.CleanupInactiveCustomers)
}

func TestRestockLowStockCommand(t *testing.T) {
	env, cfg := testEnv(t)
	build := env.NewApp
	env.NewApp = func(ctx context.Context, c config.Config, logr *slog.Logger) (*app.App, error) {
		a, err := build(ctx, c, logr)
		if err != nil {
			return nil, err
		}
		for name, stock := range map[string]int{"Cable": 3, "Laptop": 12} {
			stock := stock
			if _, err := a.Domain.Products.Create(ctx, products.CreateInput{Name: name, Price: 999, Stock: &stock}); err != nil {
				_ = a.Close()
				return nil, err
			}
		}
		return a, nil
	}

	stdout, _, err := execute(env, "restock-low-stock", "--amount", "5")
	require.NoError(t, err)
	assert.Equal(t, "Updated 1 low-stock products\n", stdout)

	data, err := os.ReadFile(cfg.Jobs.RestockLogPath)
	require.NoError(t, err)
	assert.Regexp(t, `^\[\d{4}-\d{2}-\d{2} \d{2}:\d{2}:\d{2}\] Cable: stock now 8\n$`, string(data))

	_, _, err = execute(env, "restock-low-stock", "--amount", "0")
	assert.ErrorContains(t, err, "--amount must be at least 1")
}

func TestCleanupInactiveRejectsBadWindow(t *testing.T) {
	env, _ := testEnv(t)
	_, _, err := execute(env, "cleanup-inactive", "--inactive-days", "0")
	assert.Error(t, err)
}

func TestCommandFailsWhenConfigInvalid(t *testing.T) {
	env := Env{
		LoadConfig: func() (config.Config, error) { return config.Config{}, errors.New("invalid configuration") },
		NewApp:     app.New,
	}
	_, _, err := execute(env, "cleanup-inactive")
	assert.EqualError(t, err, "invalid configuration")
}

func TestCleanupFailsWhenLogNotWritable(t *testing.T) {
	env, cfg := testEnv(t)
	cfg.Jobs.CleanupLogPath = filepath.Join(t.TempDir(), "no-such-dir", "log.txt")
	env.LoadConfig = func() (config.Config, error) { return cfg, nil }

	_, _, err := execute(env, "cleanup-inactive")
	assert.Error(t, err)
}

func TestReportCommand(t *testing.T) {
	env, cfg := testEnv(t, "a@example.com")

	_, _, err := execute(env, "report")
	require.NoError(t, err)
	data, err := os.ReadFile(cfg.Jobs.ReportLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Report: 1 customers, 0 orders, $0.00 revenue")

	_, stderr, err := execute(env, "report", "--type", "daily")
	require.NoError(t, err)
	assert.Contains(t, stderr, "System healthy - 1 customers")

	_, _, err = execute(env, "report", "--type", "monthly")
	assert.ErrorIs(t, err, jobs.ErrUnknownReportType)
}

func TestOrderRemindersCommand(t *testing.T) {
	env, _ := testEnv(t)
	stdout, _, err := execute(env, "order-reminders")
	require.NoError(t, err)
	assert.Contains(t, stdout, "No recent orders found or failed to fetch orders")
	assert.True(t, strings.HasSuffix(stdout, "Order reminders processed!\n"))
}

func TestHeartbeatCommandDegradedWithoutAPI(t *testing.T) {
	env, cfg := testEnv(t)
	stdout, _, err := execute(env, "heartbeat")
	require.NoError(t, err)
	assert.Contains(t, stdout, "CRM is DEGRADED - api: ERROR, database: HEALTHY, cache: HEALTHY")

	data, err := os.ReadFile(cfg.Jobs.HeartbeatLogPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "api: ERROR")
}

func TestTriggerCommand(t *testing.T) {
	env, _ := testEnv(t)
	stdout, _, err := execute(env, "trigger")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 2)
	assert.Regexp(t, `^generate_crm_report task ID: [0-9a-f-]{36} \(done\)$`, lines[0])
	assert.Regexp(t, `^daily_health_check task ID: [0-9a-f-]{36} \(done\)$`, lines[1])
}

func TestScheduleDryRun(t *testing.T) {
	env, _ := testEnv(t)
	stdout, _, err := execute(env, "schedule", "--dry-run")
	require.NoError(t, err)

	for _, name := range []string{
		jobs.Heartbeat, jobs.CRMReport, jobs.DailyHealthCheck, jobs.OrderReminders, jobs.CleanupInactiveCustomers,
	} {
		assert.Contains(t, stdout, name)
	}
	assert.Contains(t, stdout, "*/5 * * * *")
}

func TestScheduleRejectsUnknownJob(t *testing.T) {
	env, _ := testEnv(t)
	path := filepath.Join(t.TempDir(), "schedule.yaml")
	require.NoError(t, os.WriteFile(path, []byte("jobs:\n  - job: make_coffee\n    schedule: \"* * * * *\"\n"), 0o644))

	_, _, err := execute(env, "schedule", "--file", path, "--dry-run")
	assert.ErrorContains(t, err, "make_coffee")
}

func TestCleanupScriptPassesNoArguments(t *testing.T) {
	data, err := os.ReadFile(filepath.Join("..", "..", "..", "..", "scripts", "clean_inactive_customers.sh"))
	require.NoError(t, err)

	var execs []string
	for _, line := range strings.Split(string(data), "\n") {
		if line = strings.TrimSpace(line); strings.HasPrefix(line, "exec ") {
			execs = append(execs, line)
		}
	}
	require.Len(t, execs, 2)
	for _, line := range execs {
		assert.True(t, strings.HasSuffix(line, " cleanup-inactive"), line)
		assert.NotContains(t, line, "$@")
	}
}
