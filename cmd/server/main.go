package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/p-n-ai/aura-planner/internal/ai"
	"github.com/p-n-ai/aura-planner/internal/httpapi"
	"github.com/p-n-ai/aura-planner/internal/planner"
	"github.com/p-n-ai/aura-planner/internal/platform/cache"
	"github.com/p-n-ai/aura-planner/internal/platform/config"
	"github.com/p-n-ai/aura-planner/internal/platform/database"
	"github.com/p-n-ai/aura-planner/internal/session"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	slog.SetDefault(newLogger(cfg.Log))

	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "error", err)
		os.Exit(1)
	}

	// Graceful shutdown on SIGTERM/SIGINT.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	hub := httpapi.NewHub()
	events := session.MultiEventLogger{hub}
	var guard session.Guard = session.NewMemoryGuard()
	var opts []httpapi.Option

	if cfg.Database.Enabled {
		db, err := database.New(ctx, cfg.Database.URL, cfg.Database.MaxConns, cfg.Database.MinConns)
		if err != nil {
			return fmt.Errorf("connecting database: %w", err)
		}
		defer db.Close()
		events = append(events, session.NewPostgresEventLogger(db.Pool))
		opts = append(opts, httpapi.WithReadinessCheck("database", db))
		slog.Info("database connected")
	}

	if cfg.Cache.Enabled {
		c, err := cache.New(ctx, cfg.Cache.URL)
		if err != nil {
			return fmt.Errorf("connecting cache: %w", err)
		}
		defer c.Close()
		guard = session.NewRedisGuard(c.Client, cfg.Generation.LockTTL)
		opts = append(opts, httpapi.WithReadinessCheck("cache", c))
		slog.Info("cache connected")
	}

	router := ai.NewRouterFromConfig(cfg.AI)
	generator := planner.NewAIGenerator(planner.AIGeneratorConfig{
		Completer:   router,
		MaxTokens:   cfg.Generation.MaxTokens,
		Temperature: cfg.Generation.Temperature,
	})

	svc := session.NewService(session.ServiceConfig{
		Generator: generator,
		Guard:     guard,
		Events:    events,
		Budget:    ai.NewInMemoryBudget(cfg.AI.SessionTokenBudget),
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:           httpapi.NewServer(svc, hub, opts...).Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		// Generation can take a while; no WriteTimeout.
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server starting", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}
	slog.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}

// newLogger builds the process logger from the log config.
func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(cfg.Level)}
	if strings.EqualFold(cfg.Format, "text") {
		return slog.New(slog.NewTextHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, opts))
}

func parseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}
