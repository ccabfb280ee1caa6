package jobs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
)

// DefaultReminderWindow is how far back order reminders look.
const DefaultReminderWindow = 7 * 24 * time.Hour

// RemindersJob logs a reminder line for every order placed within Window.
type RemindersJob struct {
	Customers customers.Service
	Orders    orders.Service
	Window    time.Duration
	LogPath   string
	Out       io.Writer
	Now       func() time.Time
}

func (r *RemindersJob) Name() string { return OrderReminders }

func (r *RemindersJob) Run(ctx context.Context) error {
	now := r.now()
	window := r.Window
	if window <= 0 {
		window = DefaultReminderWindow
	}

	if err := r.log("Starting order reminder processing"); err != nil {
		return err
	}

	recent, fetchErr := r.Orders.ListSince(ctx, now.Add(-window))
	if fetchErr != nil {
		if err := r.log("Order query failed: " + fetchErr.Error()); err != nil {
			return err
		}
	}
	if len(recent) == 0 {
		if err := r.log("No recent orders found or failed to fetch orders"); err != nil {
			return err
		}
		fmt.Fprintln(r.out(), "Order reminders processed!")
		if fetchErr != nil {
			return fmt.Errorf("list recent orders: %w", fetchErr)
		}
		return nil
	}

	days := int(window / (24 * time.Hour))
	if err := r.log(fmt.Sprintf("Found %d orders from the last %d days", len(recent), days)); err != nil {
		return err
	}

	for _, o := range recent {
		name, email := "Unknown Customer", "No email"
		c, err := r.Customers.Get(ctx, o.CustomerID)
		switch {
		case err == nil:
			name, email = c.Name, c.Email
		case !errors.Is(err, customers.ErrNotFound):
			return fmt.Errorf("load customer %s: %w", o.CustomerID, err)
		}

		line := fmt.Sprintf("Order Reminder - ID: %s, Customer: %s (%s), Date: %s, Total: $%s",
			o.ID, name, email, o.OrderDate.Format(time.RFC3339), formatCents(o.TotalAmount))
		if err := r.log(line); err != nil {
			return err
		}
	}

	if err := r.log("Order reminder processing completed"); err != nil {
		return err
	}
	fmt.Fprintln(r.out(), "Order reminders processed!")
	return nil
}

// log writes "[YYYY-MM-DD HH:MM:SS] msg" to both the output and the reminder log.
func (r *RemindersJob) log(msg string) error {
	entry := fmt.Sprintf("[%s] %s", r.now().Format("2006-01-02 15:04:05"), msg)
	fmt.Fprintln(r.out(), entry)
	return appendLines(r.LogPath, entry)
}

func (r *RemindersJob) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *RemindersJob) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}
