package jobs

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

// RestockJob tops up every product under the low-stock threshold and logs the new levels.
// A zero Amount means products.DefaultRestockAmount.
type RestockJob struct {
	Products products.Service
	Amount   int
	LogPath  string
	Out      io.Writer
	Now      func() time.Time
}

func (r *RestockJob) Name() string { return RestockLowStock }

func (r *RestockJob) Run(ctx context.Context) error {
	amount := r.Amount
	if amount == 0 {
		amount = products.DefaultRestockAmount
	}

	updated, err := r.Products.RestockLow(ctx, amount)
	if err != nil {
		return fmt.Errorf("restock low-stock products: %w", err)
	}
	if len(updated) == 0 {
		return r.log("No low-stock products found")
	}

	stamp := r.now().Format("2006-01-02 15:04:05")
	lines := make([]string, 0, len(updated))
	for _, p := range updated {
		lines = append(lines, fmt.Sprintf("[%s] %s: stock now %d", stamp, p.Name, p.Stock))
	}
	if err := appendLines(r.LogPath, lines...); err != nil {
		return err
	}
	fmt.Fprintf(r.out(), "Updated %d low-stock products\n", len(updated))
	return nil
}

func (r *RestockJob) log(msg string) error {
	entry := fmt.Sprintf("[%s] %s", r.now().Format("2006-01-02 15:04:05"), msg)
	fmt.Fprintln(r.out(), entry)
	return appendLines(r.LogPath, entry)
}

func (r *RestockJob) now() time.Time {
	if r.Now != nil {
		return r.Now()
	}
	return time.Now()
}

func (r *RestockJob) out() io.Writer {
	if r.Out != nil {
		return r.Out
	}
	return os.Stdout
}
