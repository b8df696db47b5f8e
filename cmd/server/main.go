package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/synageion/synageion/auth"
	"github.com/synageion/synageion/internal/config"
	"github.com/synageion/synageion/internal/db"
	"github.com/synageion/synageion/internal/logger"
	"github.com/synageion/synageion/internal/metrics"
	"github.com/synageion/synageion/internal/server"
	"github.com/synageion/synageion/internal/services"
	"github.com/synageion/synageion/view"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	migrateOnlyFlag = flag.Bool("migrate-only", false, "Run DB migrations and exit")
	seedOnlyFlag    = flag.Bool("seed-only", false, "Create the configured accounts and exit")
)

func main() {
	flag.Parse()

	// Load environment variables from .env file
	_ = godotenv.Load()

	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}
	lg, err := logger.New(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return err
	}
	defer func() { _ = lg.Sync() }()

	dbConn, err := db.Open(cfg.Database, lg)
	if err != nil {
		return err
	}
	if err := db.Setup(dbConn); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	lg.Infow("migrations completed")
	if *migrateOnlyFlag {
		return nil
	}

	rules := services.Rules{
		MinUsernameLength: cfg.Auth.MinUsernameLength,
		MinPasswordLength: cfg.Auth.MinPasswordLength,
	}
	if err := provision(ctx, cfg, dbConn, lg, rules); err != nil {
		return err
	}
	if *seedOnlyFlag {
		return nil
	}

	store := auth.NewStore()
	sessions := auth.NewManager(store, auth.NewGuard(cfg.Auth.SessionTimeout), cfg.Auth.SessionSecret)
	if cfg.Auth.SessionSecret == "" {
		lg.Warnw("SESSION_SECRET not set, using a random per-process secret")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry, store.Len)
	sessions.OnExpire = func(s auth.Session) {
		m.SessionExpired()
		lg.Infow("session expired", "username", s.Username, "last_activity", s.LastActivity)
	}

	if cfg.App.Dev {
		view.SetFS(os.DirFS("view/templates"), true)
		lg.Infow("dev mode, templates are reloaded from disk")
	}

	handler := server.New(server.Options{
		DB:          dbConn,
		Log:         lg,
		Metrics:     m,
		Sessions:    sessions,
		Rules:       rules,
		DefaultLang: cfg.App.DefaultLang,
	})

	srv := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		lg.Infow("server starting", "addr", srv.Addr, "dev", cfg.App.Dev, "session_timeout", cfg.Auth.SessionTimeout)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case sig := <-quit:
		lg.Infow("shutdown signal received", "signal", sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		lg.Errorw("error during shutdown", "error", err)
	}
	if sqlDB, err := dbConn.DB(); err == nil {
		_ = sqlDB.Close()
	}
	lg.Infow("server stopped gracefully")
	return nil
}

// provision creates the bootstrap administrator and the optional seed accounts.
func provision(ctx context.Context, cfg *config.Config, dbConn *gorm.DB, lg *zap.SugaredLogger, rules services.Rules) error {
	svc := services.NewAuthService(services.Deps{DB: dbConn, Log: lg}, rules)
	if _, err := svc.BootstrapAdmin(ctx, cfg.Auth.AdminUsername, cfg.Auth.AdminPassword); err != nil {
		return fmt.Errorf("bootstrap admin: %w", err)
	}
	if cfg.Auth.SeedUsersFile != "" {
		if _, err := svc.SeedFromFile(ctx, cfg.Auth.SeedUsersFile); err != nil {
			return err
		}
	}
	return nil
}
