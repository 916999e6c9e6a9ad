// Package main is the entrypoint for the SiteDesk admin API server.
package main

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

	"github.com/joho/godotenv"
	"github.com/sitedeskhq/sitedesk/internal/api"
	"github.com/sitedeskhq/sitedesk/internal/api/handler"
	mw "github.com/sitedeskhq/sitedesk/internal/api/middleware"
	"github.com/sitedeskhq/sitedesk/internal/cache"
	"github.com/sitedeskhq/sitedesk/internal/config"
	"github.com/sitedeskhq/sitedesk/internal/flags"
	"github.com/sitedeskhq/sitedesk/internal/store"
)

const shutdownTimeout = 30 * time.Second

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// .env is a local development convenience; absence is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	slog.Info("config loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer pool.Close()
	slog.Info("database connected")

	if err := store.RunMigrations(cfg.Database.URL, "migrations"); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	slog.Info("database migrations applied")

	redisCache, err := cache.NewRedisCache(cfg.Redis.URL)
	if err != nil {
		return fmt.Errorf("create redis cache: %w", err)
	}
	defer redisCache.Close()

	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("ping redis: %w", err)
	}
	slog.Info("redis connected")

	pgStore := store.NewPostgresStore(pool)
	flagSvc := flags.NewService(pgStore)

	auth := mw.NewAuth(pgStore)
	rateLimit := mw.NewRateLimit(redisCache,
		cfg.RateLimit.RequestsPerMinute,
		cfg.RateLimit.ExportLimit,
		cfg.RateLimit.ExportWindow)

	deps := api.Dependencies{
		Auth:      auth,
		RateLimit: rateLimit,

		Health:         handler.NewHealthHandler(pgStore, redisCache),
		Tenants:        handler.NewTenants(pgStore),
		Users:          handler.NewUsers(pgStore),
		Projects:       handler.NewProjects(pgStore),
		Tasks:          handler.NewTasks(pgStore),
		RFIs:           handler.NewRFIs(pgStore),
		QC:             handler.NewQC(pgStore),
		ChangeRequests: handler.NewChangeRequests(pgStore),
		Documents:      handler.NewDocuments(pgStore),
		Audit:          handler.NewAudit(pgStore),
		Sidebar:        handler.NewSidebar(pgStore),
		Flags:          handler.NewFlags(pgStore, flagSvc),
		Dashboard:      handler.NewDashboard(pgStore, redisCache, cfg.Cache.KPITTL),
		Keys:           handler.NewKeys(pgStore),
		Transfer:       handler.NewTransfer(pgStore),
	}

	router := api.NewRouter(deps)

	addr := fmt.Sprintf(":%d", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		slog.Info("shutdown signal received, draining connections...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped gracefully")
	return nil
}
