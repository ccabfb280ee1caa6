package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ezmobilemechanic/crm/internal/config"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
	"github.com/ezmobilemechanic/crm/internal/jobs"
)

func newCleanupCmd(env Env) *cobra.Command {
	var inactiveDays int
	cmd := &cobra.Command{
		Use:   "cleanup-inactive",
		Short: "Delete customers without an order in the inactivity window",
		Long: `Deletes every customer that has no order dated within the inactivity window
(365 days unless CLEANUP_INACTIVE_DAYS or --inactive-days says otherwise), together
with their orders. One line is appended to CLEANUP_LOG_PATH and the count is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var override func(*config.Config)
			if cmd.Flags().Changed("inactive-days") {
				if inactiveDays < 1 {
					return fmt.Errorf("--inactive-days must be at least 1")
				}
				override = func(c *config.Config) { c.Jobs.InactiveDays = inactiveDays }
			}
			return env.runJob(cmd, jobs.CleanupInactiveCustomers, override)
		},
	}
	cmd.Flags().IntVar(&inactiveDays, "inactive-days", 365, "days without an order after which a customer is deleted")
	return cmd
}

func newHeartbeatCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "heartbeat",
		Short: "Check the API, database and cache and log the CRM status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.runJob(cmd, jobs.Heartbeat, nil)
		},
	}
}

func newReportCmd(env Env) *cobra.Command {
	var kind string
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Generate the weekly CRM report or the daily health summary",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := env.open(cmd, nil)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()
			return a.Jobs(cmd.OutOrStdout()).RunCustomReport(cmd.Context(), kind)
		},
	}
	cmd.Flags().StringVar(&kind, "type", jobs.ReportWeekly, "report type: weekly or daily")
	return cmd
}

func newHealthCheckCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "health-check",
		Short: "Ping the database and log entity counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.runJob(cmd, jobs.DailyHealthCheck, nil)
		},
	}
}

func newRemindersCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "order-reminders",
		Short: "Log a reminder for every order placed in the reminder window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return env.runJob(cmd, jobs.OrderReminders, nil)
		},
	}
}

func newRestockCmd(env Env) *cobra.Command {
	var amount int
	cmd := &cobra.Command{
		Use:   "restock-low-stock",
		Short: "Add stock to every product below the low-stock threshold",
		Long: `Adds --amount units (RESTOCK_AMOUNT, default 10) to every product with fewer than
10 in stock, in one transaction. Each new stock level is appended to RESTOCK_LOG_PATH.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var override func(*config.Config)
			if cmd.Flags().Changed("amount") {
				if amount < 1 {
					return fmt.Errorf("--amount must be at least 1")
				}
				override = func(c *config.Config) { c.Jobs.RestockAmount = amount }
			}
			return env.runJob(cmd, jobs.RestockLowStock, override)
		},
	}
	cmd.Flags().IntVar(&amount, "amount", products.DefaultRestockAmount, "units added to each low-stock product")
	return cmd
}

func newTriggerCmd(env Env) *cobra.Command {
	return &cobra.Command{
		Use:   "trigger",
		Short: "Submit the CRM report and the health check together",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) (err error) {
			a, err := env.open(cmd, nil)
			if err != nil {
				return err
			}
			defer func() {
				if cerr := a.Close(); cerr != nil && err == nil {
					err = cerr
				}
			}()

			d := jobs.NewDispatcher(a.Jobs(cmd.OutOrStdout()))
			subs, err := d.Submit(cmd.Context(), jobs.CRMReport, jobs.DailyHealthCheck)
			for _, s := range subs {
				status := "done"
				if s.Err != nil {
					status = "failed"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s task ID: %s (%s)\n", s.Job, s.ID, status)
			}
			return err
		},
	}
}
