// Package app assembles the service: configuration, logging, the sqlite
// report store, the chart service, and the HTTP server with graceful
// shutdown.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"sunburst/internal/config"
	"sunburst/internal/metrics"
	"sunburst/internal/services"
	"sunburst/internal/store/sqlite"
	transport "sunburst/internal/transport/http"
)

// Application is the composed service instance.
type Application struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics *metrics.Metrics
	Store   *sqlite.Store
	Service *services.ChartService
	Server  *http.Server
}

// New wires the application from configuration.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = slog.Default()
	}

	store, err := sqlite.Open(ctx, cfg.Paths.DatabaseFile, logger)
	if err != nil {
		return nil, fmt.Errorf("open report store: %w", err)
	}

	svc, err := services.NewChartService(cfg, store, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("build chart service: %w", err)
	}

	m := metrics.New()
	router := transport.NewRouter(cfg, svc, m, logger)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
		// WriteTimeout stays 0 so progress streams are not cut off
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Application{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Store:   store,
		Service: svc,
		Server:  server,
	}, nil
}

// Run serves until the context is cancelled or a termination signal
// arrives, then shuts down gracefully.
func (a *Application) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.InfoContext(ctx, "server listening",
			slog.String("addr", a.Server.Addr),
			slog.String("version", transport.Version))
		if err := a.Server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.Store.Close()
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	return a.Stop(context.Background())
}

// Stop shuts the server down within the configured timeout and releases
// the store.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "shutting down")

	timeout := a.Config.Server.ShutdownTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	err := a.Server.Shutdown(shutdownCtx)
	if closeErr := a.Store.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}

	a.Logger.InfoContext(ctx, "shutdown complete")
	return nil
}
