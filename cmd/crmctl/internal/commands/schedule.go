package commands

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/ezmobilemechanic/crm/internal/scheduler"
)

func newScheduleCmd(env Env) *cobra.Command {
	var (
		file   string
		dryRun bool
	)
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Run the maintenance jobs on their cron schedules until interrupted",
		Long: `Runs the maintenance jobs on cron schedules read from --file, SCHEDULE_FILE or the
built-in default. With METRICS_ADDR set, Prometheus metrics are served on /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			// A dry run only prints the plan, so any backend will do.
			a, err := env.openBackend(cmd, nil, !dryRun)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			path := file
			if path == "" {
				path = a.Config.ScheduleFile
			}
			plan, err := scheduler.Load(path)
			if err != nil {
				return err
			}

			s, err := scheduler.New(plan, a.Jobs(cmd.OutOrStdout()), a.Logger)
			if err != nil {
				return err
			}

			if dryRun {
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "JOB\tSCHEDULE\tNEXT RUN")
				for _, p := range s.Planned(time.Now()) {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Job, p.Schedule, p.Next.Format(time.RFC3339))
				}
				return tw.Flush()
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if addr := a.Config.MetricsAddr; addr != "" {
				mux := http.NewServeMux()
				mux.Handle("/metrics", a.Metrics.Handler())
				srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: a.Config.ReadHeaderTimeout}
				go func() {
					a.Logger.Info("metrics listening", "addr", addr)
					if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
						a.Logger.Error("metrics server error", "err", err)
					}
				}()
				defer func() {
					shutdownCtx, cancel := context.WithTimeout(context.Background(), a.Config.ShutdownTimeout)
					defer cancel()
					_ = srv.Shutdown(shutdownCtx)
				}()
			}

			return s.Run(ctx)
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "YAML schedule file (defaults to SCHEDULE_FILE, then the built-in schedule)")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the next run of every job and exit")
	return cmd
}
