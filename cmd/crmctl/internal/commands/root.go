// Package commands implements the crmctl sub-commands.
package commands

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/ezmobilemechanic/crm/internal/app"
	"github.com/ezmobilemechanic/crm/internal/config"
	"github.com/ezmobilemechanic/crm/internal/logger"
)

// Env supplies configuration and application wiring to the commands.
type Env struct {
	LoadConfig func() (config.Config, error)
	NewApp     func(ctx context.Context, cfg config.Config, logr *slog.Logger) (*app.App, error)
}

// DefaultEnv reads configuration from the process environment.
func DefaultEnv() Env {
	return Env{LoadConfig: config.Load, NewApp: app.New}
}

// NewRootCmd builds the crmctl command tree.
func NewRootCmd(env Env) *cobra.Command {
	root := &cobra.Command{
		Use:   "crmctl",
		Short: "CRM maintenance jobs",
		Long: `crmctl runs the CRM maintenance jobs once or on a schedule.

Storage is selected with DATA_BACKEND (postgres or sqlite) and DATABASE_URL. The
memory backend is refused: it starts empty on every run, so a job would report
success without touching real data. Job output goes to stdout; structured logs
go to stderr or LOG_FILE.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCleanupCmd(env),
		newHeartbeatCmd(env),
		newReportCmd(env),
		newHealthCheckCmd(env),
		newRemindersCmd(env),
		newRestockCmd(env),
		newTriggerCmd(env),
		newScheduleCmd(env),
	)
	return root
}

// ErrEphemeralBackend is returned when a job would run against the in-memory backend.
var ErrEphemeralBackend = errors.New("crmctl needs DATA_BACKEND=postgres or sqlite: the memory backend starts empty on every run")

// open loads configuration and builds the application on a persistent backend.
// Logs go to the command's stderr.
func (e Env) open(cmd *cobra.Command, override func(*config.Config)) (*app.App, error) {
	return e.openBackend(cmd, override, true)
}

func (e Env) openBackend(cmd *cobra.Command, override func(*config.Config), persistent bool) (*app.App, error) {
	cfg, err := e.LoadConfig()
	if err != nil {
		return nil, err
	}
	if override != nil {
		override(&cfg)
	}
	if persistent && cfg.DataBackend == "memory" {
		return nil, ErrEphemeralBackend
	}

	logr := logger.NewWithOptions(logger.Options{
		Env:        cfg.Env,
		Writer:     cmd.ErrOrStderr(),
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	a, err := e.NewApp(cmd.Context(), cfg, logr)
	if err != nil {
		return nil, fmt.Errorf("initialise application: %w", err)
	}
	return a, nil
}

// runJob executes one registered job and closes the application afterwards.
func (e Env) runJob(cmd *cobra.Command, name string, override func(*config.Config)) (err error) {
	a, err := e.open(cmd, override)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	return a.Jobs(cmd.OutOrStdout()).Run(cmd.Context(), name)
}
