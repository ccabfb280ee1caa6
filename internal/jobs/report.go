package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/ezmobilemechanic/crm/internal/domain/customers"
	"github.com/ezmobilemechanic/crm/internal/domain/orders"
	"github.com/ezmobilemechanic/crm/internal/domain/products"
)

// Report kinds accepted by RunCustomReport.
const (
	ReportWeekly = "weekly"
	ReportDaily  = "daily"
)

// ErrUnknownReportType is returned by RunCustomReport for unsupported kinds.
var ErrUnknownReportType = errors.New("unknown report type")

const recentOrdersInReport = 5

var reportRule = strings.Repeat("=", 50)

// Summary holds the figures of a CRM report.
type Summary struct {
	Customers     int
	Orders        int
	RevenueCents  int64
	Products      int
	LowStock      int
	RecentOrders  []orders.Order
	CustomerNames map[string]string
}

// ReportJob appends a framed CRM summary to the report log.
type ReportJob struct {
	Customers customers.Service
	Products  products.Service
	Orders    orders.Service
	LogPath   string
	Logger    *slog.Logger
	Now       func() time.Time
}

func (r *ReportJob) Name() string { return CRMReport }

// Run builds the summary and appends it. On failure a single error line is appended instead.
func (r *ReportJob) Run(ctx context.Context) error {
	now := time.Now()
	if r.Now != nil {
		now = r.Now()
	}
	stamp := now.Format("2006-01-02 15:04:05")

	s, err := r.Summarize(ctx)
	if err != nil {
		if logErr := appendLines(r.LogPath, fmt.Sprintf("%s - Report generation failed: %v", stamp, err)); logErr != nil {
			return fmt.Errorf("generate report: %w (log: %v)", err, logErr)
		}
		return fmt.Errorf("generate report: %w", err)
	}

	lines := []string{
		"",
		reportRule,
		"Weekly CRM Report - " + stamp,
		reportRule,
		"Summary Statistics:",
		fmt.Sprintf("  - Total Customers: %d", s.Customers),
		fmt.Sprintf("  - Total Orders: %d", s.Orders),
		fmt.Sprintf("  - Total Revenue: $%s", formatCents(s.RevenueCents)),
		fmt.Sprintf("  - Total Products: %d", s.Products),
		fmt.Sprintf("  - Low Stock Products: %d", s.LowStock),
		"",
		"Recent Activity:",
	}
	if len(s.RecentOrders) == 0 {
		lines = append(lines, "  No recent orders")
	} else {
		lines = append(lines, "  Recent Orders:")
		for _, o := range s.RecentOrders {
			lines = append(lines, fmt.Sprintf("    - %s: $%s (%s)",
				s.CustomerNames[o.CustomerID], formatCents(o.TotalAmount), o.OrderDate.Format("2006-01-02")))
		}
	}
	if s.LowStock > 0 {
		lines = append(lines, "", fmt.Sprintf("Alert: %d products are low in stock!", s.LowStock))
	}
	lines = append(lines,
		reportRule,
		fmt.Sprintf("%s - Report: %d customers, %d orders, $%s revenue", stamp, s.Customers, s.Orders, formatCents(s.RevenueCents)),
	)

	if err := appendLines(r.LogPath, lines...); err != nil {
		return err
	}

	r.logger().Info("CRM report generated",
		"customers", s.Customers, "orders", s.Orders, "revenue", formatCents(s.RevenueCents))
	return nil
}

// Summarize gathers the report figures.
func (r *ReportJob) Summarize(ctx context.Context) (Summary, error) {
	var s Summary

	n, err := r.Customers.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("count customers: %w", err)
	}
	s.Customers = n

	all, err := r.Orders.List(ctx, orders.ListFilter{}, 0, 0)
	if err != nil {
		return Summary{}, fmt.Errorf("list orders: %w", err)
	}
	s.Orders = len(all)
	for _, o := range all {
		s.RevenueCents += o.TotalAmount
	}

	catalog, err := r.Products.List(ctx, products.ListFilter{}, 0, 0)
	if err != nil {
		return Summary{}, fmt.Errorf("list products: %w", err)
	}
	s.Products = len(catalog)
	for _, p := range catalog {
		if p.LowStock() {
			s.LowStock++
		}
	}

	if len(all) > recentOrdersInReport {
		all = all[:recentOrdersInReport]
	}
	s.RecentOrders = all
	s.CustomerNames = make(map[string]string, len(all))
	for _, o := range all {
		if _, seen := s.CustomerNames[o.CustomerID]; seen {
			continue
		}
		c, err := r.Customers.Get(ctx, o.CustomerID)
		switch {
		case err == nil:
			s.CustomerNames[o.CustomerID] = c.Name
		case errors.Is(err, customers.ErrNotFound):
			s.CustomerNames[o.CustomerID] = "Unknown"
		default:
			return Summary{}, fmt.Errorf("load customer %s: %w", o.CustomerID, err)
		}
	}

	return s, nil
}

func (r *ReportJob) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

// HealthCheckJob pings the database and logs entity counts.
type HealthCheckJob struct {
	DB        Pinger
	Customers customers.Service
	Products  products.Service
	Orders    orders.Service
	Logger    *slog.Logger
}

// HealthStatus is the outcome of a daily health check.
type HealthStatus struct {
	Customers int
	Orders    int
	Products  int
}

func (h *HealthCheckJob) Name() string { return DailyHealthCheck }

func (h *HealthCheckJob) Run(ctx context.Context) error {
	logger := h.Logger
	if logger == nil {
		logger = slog.Default()
	}

	st, err := h.Check(ctx)
	if err != nil {
		logger.Error("Daily health check failed", "error", err)
		return err
	}
	logger.Info(fmt.Sprintf("Daily health check: System healthy - %d customers, %d orders, %d products",
		st.Customers, st.Orders, st.Products))
	return nil
}

// Check pings the database and collects counts.
func (h *HealthCheckJob) Check(ctx context.Context) (HealthStatus, error) {
	if h.DB != nil {
		if err := h.DB.PingContext(ctx); err != nil {
			return HealthStatus{}, fmt.Errorf("database ping: %w", err)
		}
	}

	var st HealthStatus
	var err error
	if st.Customers, err = h.Customers.Count(ctx); err != nil {
		return HealthStatus{}, fmt.Errorf("count customers: %w", err)
	}
	if st.Orders, err = h.Orders.Count(ctx); err != nil {
		return HealthStatus{}, fmt.Errorf("count orders: %w", err)
	}
	if st.Products, err = h.Products.Count(ctx); err != nil {
		return HealthStatus{}, fmt.Errorf("count products: %w", err)
	}
	return st, nil
}

// RunCustomReport runs the weekly CRM report or the daily health check depending on kind.
func (r *Registry) RunCustomReport(ctx context.Context, kind string) error {
	switch kind {
	case ReportWeekly:
		return r.Run(ctx, CRMReport)
	case ReportDaily:
		return r.Run(ctx, DailyHealthCheck)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownReportType, kind)
	}
}
