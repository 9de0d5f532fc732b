package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	v1 "github.com/vmunix/introskip/internal/api/v1"
	"github.com/vmunix/introskip/internal/app"
	"github.com/vmunix/introskip/internal/config"
	"github.com/vmunix/introskip/internal/handlers"
	"github.com/vmunix/introskip/internal/server"
)

// eventRetention bounds how long the event log keeps history.
const eventRetention = 30 * 24 * time.Hour

func parseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	if r.status == 200 { // Only capture first WriteHeader call
		r.status = code
	}
	r.ResponseWriter.WriteHeader(code)
}

func logRequests(next http.Handler, log *slog.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &statusRecorder{ResponseWriter: w, status: 200}
		next.ServeHTTP(wrapped, r)
		log.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", wrapped.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func runServer(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Server.LogLevel),
	}))

	a, err := app.Open(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	if pruned, err := a.EventLog.Prune(eventRetention); err != nil {
		logger.Warn("event prune failed", "error", err)
	} else if pruned > 0 {
		logger.Info("pruned old events", "count", pruned)
	}

	// === HTTP Setup ===
	mux := http.NewServeMux()
	apiV1, err := v1.New(v1.ServerDeps{
		Library:  a.Library,
		Segments: a.Segments,
		Scanner:  a.Scanner,
		Cache:    a.Cache,
		Bus:      a.Bus,
		EventLog: a.EventLog,
	}, v1.Config{Playback: cfg.Playback})
	if err != nil {
		return fmt.Errorf("api: %w", err)
	}
	apiV1.RegisterRoutes(mux)

	runner := server.NewRunner(a.Bus, a.Scanner, a, server.Config{
		Schedule:            cfg.Schedule.Cron,
		ScanOnLibraryChange: cfg.Schedule.ScanOnLibraryChange,
		SettleDelay:         handlers.DefaultSettleDelay,
		Segments:            a,
	}, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	logger.Info("server starting",
		"addr", addr,
		"config", configPath,
		"database", cfg.Database.Path,
		"libraries", len(cfg.Libraries),
		"schedule", cfg.Schedule.Cron,
		"log_level", cfg.Server.LogLevel,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: logRequests(mux, logger)}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		return runner.Run(ctx)
	})

	// Catalogue the libraries once at startup so the first scan has work.
	g.Go(func() error {
		if err := a.Refresh(ctx); err != nil && ctx.Err() == nil {
			logger.Error("initial library refresh failed", "error", err)
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		logger.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("server stopped")
	return nil
}
