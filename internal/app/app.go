// Package app assembles storage, domain services, cache, metrics and jobs from configuration.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/ezmobilemechanic/crm/internal/cache"
	"github.com/ezmobilemechanic/crm/internal/config"
	"github.com/ezmobilemechanic/crm/internal/database"
	"github.com/ezmobilemechanic/crm/internal/domain"
	"github.com/ezmobilemechanic/crm/internal/jobs"
	"github.com/ezmobilemechanic/crm/internal/metrics"
	"github.com/ezmobilemechanic/crm/internal/storage/memory"
	pgstorage "github.com/ezmobilemechanic/crm/internal/storage/postgres"
	sqlitestorage "github.com/ezmobilemechanic/crm/internal/storage/sqlite"
)

// App holds the long-lived dependencies shared by the binaries.
type App struct {
	Config  config.Config
	Logger  *slog.Logger
	Domain  domain.Container
	Cache   cache.Cache
	Metrics *metrics.Metrics
	DB      jobs.Pinger

	closers []func() error
}

// New connects the configured backend and builds the domain container.
func New(ctx context.Context, cfg config.Config, logr *slog.Logger) (*App, error) {
	a := &App{Config: cfg, Logger: logr, Metrics: metrics.New()}

	if err := a.openBackend(ctx); err != nil {
		_ = a.Close()
		return nil, err
	}

	c, err := cache.New(cfg.RedisURL)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("init cache: %w", err)
	}
	a.Cache = c
	a.closers = append(a.closers, c.Close)

	return a, nil
}

func (a *App) openBackend(ctx context.Context) error {
	cfg := a.Config

	switch cfg.DataBackend {
	case "memory":
		a.Logger.Info("using in-memory repositories (DATA_BACKEND=memory)")
		store := memory.NewStore()
		a.Domain = domain.New(domain.Options{
			CustomerRepo: memory.NewCustomerRepository(store),
			ProductRepo:  memory.NewProductRepository(store),
			OrderRepo:    memory.NewOrderRepository(store),
		})
		a.DB = jobs.PingerFunc(func(context.Context) error { return nil })
		return nil

	case "postgres":
		db, err := database.Connect(ctx, database.Options{
			Driver:          cfg.DatabaseDriver,
			DSN:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			ConnMaxIdleTime: cfg.DBConnMaxIdleTime,
			Logger:          a.Logger,
		})
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		a.closers = append(a.closers, db.Close)

		migrator := database.NewSQLMigrator(db.DB, database.MigrationsFS(), database.MigrationsDir, a.Logger)
		if err := db.RunMigrations(ctx, migrator); err != nil {
			return fmt.Errorf("database migrations: %w", err)
		}

		a.Logger.Info("using postgres repositories (DATA_BACKEND=postgres)")
		a.Domain = domain.New(domain.Options{
			CustomerRepo: pgstorage.NewCustomerRepository(db.DB),
			ProductRepo:  pgstorage.NewProductRepository(db.DB),
			OrderRepo:    pgstorage.NewOrderRepository(db.DB),
		})
		a.DB = db
		return nil

	case "sqlite":
		gdb, err := sqlitestorage.Open(cfg.DatabaseURL)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, func() error { return sqlitestorage.Close(gdb) })

		sqlDB, err := gdb.DB()
		if err != nil {
			return fmt.Errorf("sqlite handle: %w", err)
		}

		a.Logger.Info("using sqlite repositories (DATA_BACKEND=sqlite)", "dsn", cfg.DatabaseURL)
		a.Domain = domain.New(domain.Options{
			CustomerRepo: sqlitestorage.NewCustomerRepository(gdb),
			ProductRepo:  sqlitestorage.NewProductRepository(gdb),
			OrderRepo:    sqlitestorage.NewOrderRepository(gdb),
		})
		a.DB = sqlDB
		return nil

	default:
		return fmt.Errorf("unsupported data backend: %s", cfg.DataBackend)
	}
}

// Jobs returns a registry holding every maintenance job. Command output goes to out.
func (a *App) Jobs(out io.Writer) *jobs.Registry {
	js := a.Config.Jobs
	d := a.Domain

	reg := jobs.NewRegistry(a.Logger, a.Metrics)
	reg.Register(
		&jobs.Cleanup{
			Customers:     d.Customers,
			LogPath:       js.CleanupLogPath,
			InactiveAfter: js.InactiveAfter(),
			Metrics:       a.Metrics,
			Out:           out,
		},
		&jobs.HeartbeatJob{
			APIBaseURL: js.APIBaseURL,
			Client:     &http.Client{Timeout: 5 * time.Second},
			DB:         a.DB,
			Cache:      a.Cache,
			LogPath:    js.HeartbeatLogPath,
			Out:        out,
		},
		&jobs.ReportJob{
			Customers: d.Customers,
			Products:  d.Products,
			Orders:    d.Orders,
			LogPath:   js.ReportLogPath,
			Logger:    a.Logger,
		},
		&jobs.HealthCheckJob{
			DB:        a.DB,
			Customers: d.Customers,
			Products:  d.Products,
			Orders:    d.Orders,
			Logger:    a.Logger,
		},
		&jobs.RemindersJob{
			Customers: d.Customers,
			Orders:    d.Orders,
			Window:    js.ReminderWindow(),
			LogPath:   js.ReminderLogPath,
			Out:       out,
		},
		&jobs.RestockJob{
			Products: d.Products,
			Amount:   js.RestockAmount,
			LogPath:  js.RestockLogPath,
			Out:      out,
		},
	)
	return reg
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
