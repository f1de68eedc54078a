// Storefront - Serves per-session storefront state (cart, navigations, past purchases)
// over REST and MCP. Designed for Cloud Run deployment; sessions survive restarts
// through the configured persistence backend.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"storefront/internal/actions"
	"storefront/internal/bridge"
	"storefront/internal/config"
	"storefront/internal/effects"
	"storefront/internal/handler"
	"storefront/internal/metrics"
	"storefront/internal/middleware"
	"storefront/internal/persist"
	"storefront/internal/state"
	"storefront/internal/store"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("storefront_id", cfg.StorefrontID),
		slog.String("customer_id", cfg.Storefront.CustomerID),
		slog.String("environment", cfg.Environment),
		slog.String("persistence", cfg.Persistence.Backend),
		slog.Duration("session_ttl", cfg.Persistence.SessionTTL),
	)

	persister, closePersister, err := createPersister(ctx, cfg)
	if err != nil {
		return fmt.Errorf("creating persister: %w", err)
	}
	defer closePersister()

	m := metrics.New(prometheus.DefaultRegisterer)

	sessions := store.NewRegistry(&cfg.Storefront, persister, cfg.Persistence.SessionTTL,
		store.WithSessionLogger(logger),
		store.OnOpen(func(s *store.Store) {
			s.Subscribe(func(_ state.State, a actions.Action) {
				m.RecordAction(string(a.Type()))
			})
		}),
	)
	metrics.RegisterSessionGauge(prometheus.DefaultRegisterer, sessions.Len)

	service := bridge.New(bridge.Config{Logger: logger})
	runner := effects.New(&cfg.Storefront, service, logger, m)

	h := handler.New(sessions, runner, logger)

	// Setup routes
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → logging → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// createPersister creates the cart persistence backend named in configuration.
// The returned close function is always non-nil.
func createPersister(ctx context.Context, cfg *config.Config) (persist.Persister, func(), error) {
	switch cfg.Persistence.Backend {
	case config.BackendMemory:
		return persist.NewMemory(), func() {}, nil
	case config.BackendRedis:
		r, err := persist.NewRedis(ctx, cfg.Persistence.RedisURL, cfg.Persistence.SessionTTL)
		if err != nil {
			return nil, nil, err
		}
		return r, func() { r.Close() }, nil
	default:
		return nil, nil, fmt.Errorf("unsupported persistence backend: %s", cfg.Persistence.Backend)
	}
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
