package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/JonMunkholm/trialsdata/internal/config"
	"github.com/JonMunkholm/trialsdata/internal/logging"
	"github.com/JonMunkholm/trialsdata/internal/trials"
	"github.com/JonMunkholm/trialsdata/internal/web"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("configuration loaded",
		"port", cfg.Server.Port,
		"db_max_conns", cfg.Database.MaxConns,
		"import_table", cfg.Import.Table,
		"import_expected_filename", cfg.Import.ExpectedFilename,
		"import_max_concurrent", cfg.Import.MaxConcurrent,
	)

	poolConfig, err := pgxpool.ParseConfig(cfg.Database.URL)
	if err != nil {
		slog.Error("failed to parse database URL", "error", err)
		os.Exit(1)
	}
	poolConfig.MaxConns = int32(cfg.Database.MaxConns)
	poolConfig.MinConns = int32(cfg.Database.MinConns)
	poolConfig.MaxConnLifetime = cfg.Database.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.Database.MaxConnIdleTime

	ctx := context.Background()
	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pool.Ping(ctx); err != nil {
		slog.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	if u, err := url.Parse(cfg.Database.URL); err == nil {
		slog.Info("connected to database", "name", strings.TrimPrefix(u.Path, "/"))
	} else {
		slog.Info("connected to database")
	}

	store := trials.NewStore(pool, cfg.Import.Table)
	limiter := trials.NewRunLimiter(cfg.Import.MaxConcurrent, cfg.Import.MaxWaitTime)
	importer := trials.NewImporter(store, trials.Options{
		ExpectedFilename: cfg.Import.ExpectedFilename,
		Timeout:          cfg.Import.Timeout,
		Limiter:          limiter,
	})

	server := web.NewServer(importer, store, limiter, cfg)

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)

		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := gracefulShutdown(shutdownCtx, server, limiter); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	slog.Info("server starting", "addr", cfg.Server.Addr())
	if err := server.Start(); !errors.Is(err, http.ErrServerClosed) {
		slog.Error("server stopped", "error", err)
		return
	}
	<-done
	slog.Info("server stopped")
}

type shutdowner interface {
	Shutdown(ctx context.Context) error
}

type runDrainer interface {
	Status() trials.RunLimiterStatus
	WaitForDrain(ctx context.Context) error
}

// gracefulShutdown stops accepting requests, then waits for in-flight import
// runs so they commit or roll back before the pool closes.
func gracefulShutdown(ctx context.Context, srv shutdowner, runs runDrainer) error {
	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}

	status := runs.Status()
	if status.Active == 0 {
		return nil
	}

	slog.Info("waiting for import runs to complete", "active", status.Active)
	if err := runs.WaitForDrain(ctx); err != nil {
		return fmt.Errorf("import runs did not complete in time: %w", err)
	}
	slog.Info("all import runs completed")
	return nil
}
