package jobs

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ezmobilemechanic/crm/internal/metrics"
)

// DefaultInactiveAfter is the inactivity window after which a customer is removed.
const DefaultInactiveAfter = 365 * 24 * time.Hour

// InactiveCustomerDeleter removes customers without an order on or after cutoff.
type InactiveCustomerDeleter interface {
	DeleteInactive(ctx context.Context, cutoff time.Time) (int, error)
}

// Cleanup deletes customers that have not ordered within InactiveAfter.
type Cleanup struct {
	Customers     InactiveCustomerDeleter
	LogPath       string
	InactiveAfter time.Duration
	Metrics       *metrics.Metrics
	Out           io.Writer
	Now           func() time.Time
}

func (c *Cleanup) Name() string { return CleanupInactiveCustomers }

// Run computes the cutoff, deletes inactive customers, appends one line to the
// log file and prints the count.
func (c *Cleanup) Run(ctx context.Context) error {
	now := c.now()
	window := c.InactiveAfter
	if window <= 0 {
		window = DefaultInactiveAfter
	}
	cutoff := now.Add(-window)

	deleted, err := c.Customers.DeleteInactive(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("delete inactive customers: %w", err)
	}
	c.Metrics.CustomersDeleted(deleted)

	line := fmt.Sprintf("[%s] Deleted %d inactive customers (no orders since %s)",
		now.Format("2006-01-02 15:04:05"), deleted, cutoff.Format("2006-01-02"))
	if err := appendLines(c.LogPath, line); err != nil {
		return err
	}

	_, err = fmt.Fprintf(c.out(), "Deleted %d inactive customers\n", deleted)
	return err
}

func (c *Cleanup) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c *Cleanup) out() io.Writer {
	if c.Out != nil {
		return c.Out
	}
	return os.Stdout
}
