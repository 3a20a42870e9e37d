package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/config"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/db"
	httpx "github.com/Workflow-Manager-admin/personal-notes-manager/internal/http"
	"github.com/Workflow-Manager-admin/personal-notes-manager/internal/observability"
)

func main() {
	cfg, err := config.Load()

	if err != nil {
		// no DATABASE_URL means we cannot start at all
		slog.Error("failed to load config", "err", err)
		os.Exit(1)
	}

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	if cfg.OTLPEndpoint != "" {
		ctx, cancel := config.WithTimeout(5 * time.Second)

		shutdownTracer, err := observability.InitTracer(ctx, "personal-notes-api", cfg.OTLPEndpoint)

		cancel()

		if err != nil {
			log.Error("failed to init tracer", "err", err)
			os.Exit(1)
		}

		defer func() {
			ctx, cancel := config.WithTimeout(5 * time.Second)
			defer cancel()

			_ = shutdownTracer(ctx)
		}()
	}

	pool, err := db.NewPool(cfg.DatabaseURL)

	if err != nil {
		log.Error("failed to connect to database", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	migrateCtx, cancel := config.WithTimeout(10 * time.Second)

	err = db.Migrate(migrateCtx, pool)

	cancel()

	if err != nil {
		log.Error("failed to run schema migration", "err", err)
		os.Exit(1)
	}

	router := httpx.NewRouter(log, pool, cfg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)

		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)
			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
