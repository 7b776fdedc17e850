package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"loyalty/config"
	"loyalty/internal/alert"
	"loyalty/internal/database"
	"loyalty/internal/logger"
	"loyalty/internal/middleware"
	"loyalty/internal/router"
	"loyalty/internal/service"

	flag "github.com/spf13/pflag"
)

func main() {
	verbose := flag.BoolP("verbose", "v", false, "enable debug logging")
	migrateOnly := flag.Bool("migrate-only", false, "run migrations and seeding, then exit")
	flag.Parse()

	log := logger.New(*verbose)
	cfg := config.Load()

	flush, err := alert.Init(cfg.Sentry)
	if err != nil {
		log.Error("sentry: init failed", "error", err)
		os.Exit(1)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Error("database: connect failed", "error", err)
		os.Exit(1)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Error("database: migrate failed", "error", err)
		os.Exit(1)
	}
	if err := database.Seed(ctx, db); err != nil {
		log.Error("database: seed failed", "error", err)
		os.Exit(1)
	}
	if *migrateOnly {
		log.Info("database: migrated and seeded")
		return
	}

	app, err := service.NewApp(ctx, cfg, db, service.NewDeps(ctx, cfg, log))
	if err != nil {
		log.Error("levels: stored configuration rejected", "error", err)
		os.Exit(1)
	}
	if cfg.Scheduler.Enabled {
		app.Sweeper.Start(ctx)
	}

	limiter := middleware.NewKeyedRateLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.Burst)
	go func() {
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				limiter.Prune()
			}
		}
	}()

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router.Setup(cfg, app, limiter),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Info("server: listening", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server: listen failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("server: shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server: shutdown failed", "error", err)
	}
}
