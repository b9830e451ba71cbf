package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"todo-manager/backend/internal/database"
	"todo-manager/backend/internal/metrics"
	"todo-manager/backend/internal/repositories"
	"todo-manager/backend/internal/routes"
	"todo-manager/backend/internal/services"
)

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, dialect := database.InitDB(ctx, cfg.Database, logger)
	defer db.Close()

	if cfg.Server.AutoMigrate {
		if err := database.Migrate(ctx, db, dialect); err != nil {
			logger.Fatal("Failed to migrate database", "err", err)
		}
	}

	var m *metrics.Metrics
	if cfg.Server.MetricsEnabled {
		m = metrics.New()
		if err := m.RegisterDB(db, string(dialect)); err != nil {
			logger.Warn("Failed to register database metrics", "err", err)
		}
	}

	router := routes.SetupRouter(routes.Options{
		DB:      db,
		Dialect: dialect,
		Server:  cfg.Server,
		Logger:  logger,
		Metrics: m,
	})

	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Server listening", "addr", srv.Addr, "mode", cfg.Server.Mode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout.Duration)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP shutdown error", "err", err)
		return err
	}
	logger.Info("Server stopped")
	return nil
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	db, dialect := database.InitDB(cmd.Context(), cfg.Database, logger)
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db, dialect); err != nil {
		return err
	}
	logger.Info("Migration complete", "driver", dialect)
	return nil
}

func runSeed(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return err
	}

	db, dialect := database.InitDB(cmd.Context(), cfg.Database, logger)
	defer db.Close()

	if err := database.Migrate(cmd.Context(), db, dialect); err != nil {
		return err
	}
	repo := repositories.NewTodoRepository(db, dialect, logger)
	n, err := services.NewTodoService(repo, logger).Seed(cmd.Context())
	if err != nil {
		return err
	}
	if n == 0 {
		logger.Info("Table already has todos, nothing seeded")
		return nil
	}
	logger.Info("Seeded sample todos", "count", n)
	return nil
}
