package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"log/slog"

	"github.com/ezmobilemechanic/crm/internal/app"
	"github.com/ezmobilemechanic/crm/internal/config"
	"github.com/ezmobilemechanic/crm/internal/httpapi"
	"github.com/ezmobilemechanic/crm/internal/logger"
	"github.com/ezmobilemechanic/crm/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	logr := logger.NewWithOptions(logger.Options{
		Env:        cfg.Env,
		FilePath:   cfg.Log.FilePath,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})

	a, err := app.New(context.Background(), cfg, logr)
	if err != nil {
		logr.Error("failed to initialise application", "err", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := a.Close(); cerr != nil {
			logr.Error("error closing resources", "err", cerr)
		}
	}()

	srv := server.New(cfg, logr, a.Metrics.Handler())

	httpapi.Register(srv.Mux(), logr, a.Domain)

	go func() {
		if err := srv.Run(); err != nil {
			logr.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logr.Error("server shutdown failed", "err", err)
	}
}
