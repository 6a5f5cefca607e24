package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/aretw0/parley/internal/config"
	httpAdapter "github.com/aretw0/parley/pkg/adapters/http"
	"github.com/aretw0/parley/pkg/observability"
	"github.com/aretw0/parley/pkg/session"
	"github.com/prometheus/client_golang/prometheus"
)

// ShutdownTimeout bounds graceful shutdown of the HTTP server.
const ShutdownTimeout = 5 * time.Second

// NewServerHandler assembles the session manager, metrics and SSE streams
// behind the HTTP API.
func NewServerHandler(ctx context.Context, cfg *config.Config, logger *slog.Logger, backend *Backend) (http.Handler, error) {
	provider, err := NewProvider(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewMetrics(prometheus.NewRegistry())
	if err != nil {
		return nil, fmt.Errorf("failed to register metrics: %w", err)
	}
	streams := httpAdapter.NewStreamManager(logger)

	engine, err := NewEngine(provider, cfg, logger, metrics.Hooks(), streams.Hooks())
	if err != nil {
		return nil, err
	}

	mgrOpts := []session.Option{session.WithLogger(logger)}
	if backend.Locker != nil {
		mgrOpts = append(mgrOpts, session.WithLocker(backend.Locker))
	}
	mgr := session.NewManager(engine, backend.Store, mgrOpts...)

	return httpAdapter.NewHandler(mgr,
		httpAdapter.WithSteps(engine.Inspect()),
		httpAdapter.WithStreams(streams),
		httpAdapter.WithMetricsHandler(metrics.Handler()),
		httpAdapter.WithLogger(logger),
	), nil
}

// Serve runs the HTTP API until ctx is cancelled, then shuts down gracefully.
func Serve(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	backend, err := NewBackend(ctx, cfg.Store)
	if err != nil {
		return err
	}
	defer backend.Close()

	handler, err := NewServerHandler(ctx, cfg, logger, backend)
	if err != nil {
		return err
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting parley server", "addr", srv.Addr, "provider", cfg.Provider.Driver, "store", cfg.Store.Driver)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)

	case <-ctx.Done():
		logger.Info("Start shutdown...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Graceful shutdown did not complete", "timeout", ShutdownTimeout, "err", err)
			if err := srv.Close(); err != nil {
				return fmt.Errorf("error killing server: %w", err)
			}
		}
		logger.Info("parley server stopped gracefully")
		return nil
	}
}
