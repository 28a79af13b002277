// Package internal provides the main application initialization and
// runtime logic.
package internal

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/sync/errgroup"

	"github.com/sveinbjornt/ensk.is/internal/api"
	"github.com/sveinbjornt/ensk.is/internal/build"
	"github.com/sveinbjornt/ensk.is/internal/dictservice"
	"github.com/sveinbjornt/ensk.is/internal/mcpserver"
	"github.com/sveinbjornt/ensk.is/internal/sse"
	"github.com/sveinbjornt/ensk.is/internal/store"
)

func newLogger(cfg *Config) *slog.Logger {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

func newService(cfg *Config) (*dictservice.Service, error) {
	rd, err := store.Open(cfg.Store.Path)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	svc, err := dictservice.New(rd, dictservice.Config{
		MinQueryLength: cfg.Search.MinQueryLength,
		PageSize:       cfg.Search.PageSize,
		SuggestLimit:   cfg.Search.SuggestLimit,
	})
	if err != nil {
		rd.Close()
		return nil, fmt.Errorf("init service: %w", err)
	}
	return svc, nil
}

// Run starts the HTTP server with the given options and blocks until
// shutdown.
func Run(ctx context.Context, opts ...Option) error {
	app := &application{}
	for _, opt := range opts {
		opt(app)
	}
	if app.config == nil {
		return fmt.Errorf("config is required")
	}
	cfg := app.config

	logger := newLogger(cfg)
	logger.Info("Configuration loaded",
		slog.String("http_address", cfg.App.HTTP.Address()),
		slog.String("store_path", cfg.Store.Path),
		slog.String("exports_dir", cfg.Store.ExportsDir),
		slog.String("log_level", cfg.App.LogLevel.String()))

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()
	logger.Info("Dictionary loaded", slog.Int("entries", svc.EntryCount()))

	// SSE broker.
	broker := sse.NewBroker(2 * time.Second)
	defer broker.Close()

	apiRouter := api.NewRouter(svc, broker, cfg.Store.ExportsDir)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	// Health check endpoints.
	r.Get("/health/live", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})
	r.Get("/health/ready", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Mount("/api", apiRouter)

	httpServer := &http.Server{
		Addr:    cfg.App.HTTP.Address(),
		Handler: r,
	}

	g, gCtx := errgroup.WithContext(ctx)

	// Watch the published store and hot-swap new editions.
	g.Go(func() error {
		err := store.Watch(gCtx, cfg.Store.Path, logger, func() {
			if err := svc.Reload(); err != nil {
				logger.Error("edition reload failed", slog.String("error", err.Error()))
				return
			}
			meta, err := svc.Metadata(gCtx)
			if err != nil {
				meta = map[string]string{}
			}
			logger.Info("New edition published",
				slog.Int("entries", svc.EntryCount()),
				slog.Int("sse_clients", broker.ClientCount()))
			broker.PublishEdition(meta)
		})
		if err != nil {
			logger.Error("store watcher failed", slog.String("error", err.Error()))
		}
		return nil
	})

	// Start HTTP server.
	g.Go(func() error {
		logger.Info("Starting HTTP server", slog.String("address", cfg.App.HTTP.Address()))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	// Handle shutdown signals.
	g.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

		select {
		case sig := <-quit:
			logger.Info("Received shutdown signal", slog.String("signal", sig.String()))
		case <-gCtx.Done():
			logger.Info("Context cancelled, initiating shutdown")
		}

		logger.Info("Shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("HTTP server shutdown error", slog.String("error", err.Error()))
		}

		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Application error", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Server stopped successfully")
	return nil
}

// RunBuild compiles the dictionary sources into a fresh store edition
// and writes the export artifacts.
func RunBuild(cfg *Config) error {
	logger := newLogger(cfg)
	return build.Run(build.Options{
		SourceDir:  cfg.Data.SourcesDir,
		StorePath:  cfg.Store.Path,
		ExportsDir: cfg.Store.ExportsDir,
		IPAUKPath:  cfg.Data.IPAUKPath,
		IPAUSPath:  cfg.Data.IPAUSPath,
	}, logger)
}

// RunVerify checks the dictionary sources without touching the store.
func RunVerify(cfg *Config) error {
	logger := newLogger(cfg)
	return build.Verify(cfg.Data.SourcesDir, logger)
}

// RunMCP serves the dictionary tools over MCP stdio.
func RunMCP(cfg *Config) error {
	// MCP talks JSON-RPC on stdout; keep logs off it.
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: cfg.App.LogLevel,
	}))
	slog.SetDefault(logger)

	svc, err := newService(cfg)
	if err != nil {
		return err
	}
	defer svc.Close()

	return mcpserver.New(svc).ServeStdio()
}
