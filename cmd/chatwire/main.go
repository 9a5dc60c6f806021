// chatwire is the headless chat client daemon: it maintains one
// connection to the chat server, keeps the model up to date through the
// event reducer, and optionally archives received messages to Postgres.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmerrick/chatwire/internal/archive"
	"github.com/dmerrick/chatwire/internal/config"
	"github.com/dmerrick/chatwire/internal/connection"
	"github.com/dmerrick/chatwire/internal/database"
	"github.com/dmerrick/chatwire/internal/protocol"
	"github.com/dmerrick/chatwire/internal/state"
	"github.com/dmerrick/chatwire/internal/version"
)

func main() {
	configPath := flag.String("config", "configs/chatwire.local.yaml", "path to config file")
	flag.Parse()

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	slog.SetDefault(logger)

	logger.Info("starting chatwire",
		"version", version.Version,
		"commit", version.Commit,
		"config", *configPath,
	)

	// Load configuration
	cfg, err := config.LoadAndValidate(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger.Info("configuration loaded",
		"instance_id", cfg.Instance.ID,
		"server_url", cfg.Server.URL,
		"archive_enabled", cfg.Archive.Enabled,
	)

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	// Connect to the archive database when enabled
	var pool *pgxpool.Pool
	var writer *archive.Writer
	if cfg.Archive.Enabled {
		logger.Info("connecting to archive database",
			"host", cfg.Archive.Postgres.Host,
			"port", cfg.Archive.Postgres.Port,
			"database", cfg.Archive.Postgres.Name,
		)

		pool, err = database.Connect(ctx, cfg.Archive.Postgres)
		if err != nil {
			logger.Error("failed to connect to archive database", "error", err)
			os.Exit(1)
		}
		defer pool.Close()

		writer = archive.NewWriter(archive.Config{
			BatchSize:     cfg.Archive.BatchSize,
			FlushInterval: cfg.Archive.FlushInterval.Std(),
			BufferSize:    cfg.Archive.BufferSize,
		}, pool, logger)

		if err := writer.Start(ctx); err != nil {
			logger.Error("failed to start archive writer", "error", err)
			os.Exit(1)
		}
		defer func() {
			stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer stopCancel()
			writer.Stop(stopCtx)
		}()
	}

	// Metrics server
	metricsMux := http.NewServeMux()
	metricsMux.Handle(cfg.Metrics.Path, promhttp.Handler())
	metricsServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Metrics.Port),
		Handler: metricsMux,
	}
	go func() {
		logger.Info("starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
		if err := metricsServer.ListenAndServe(); err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()

	// Build the store; the archive consumes decoded frames via the sink.
	opts := []state.Option{
		state.WithBufferSize(cfg.Server.EventBuffer),
		state.WithRender(func(m state.Model) {
			logger.Debug("model updated",
				"connected", m.Network.Connected,
				"sent", m.SentCount,
				"received", m.RecvCount,
			)
		}),
	}
	if writer != nil {
		opts = append(opts, state.WithMessageSink(func(resp protocol.ResponseFrame) {
			writer.Enqueue(resp, time.Now())
		}))
	}

	store := state.NewStore(logger, opts...)
	if err := store.Start(ctx); err != nil {
		logger.Error("failed to start store", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer stopCancel()
		store.Stop(stopCtx)
	}()

	// Open the connection
	manager := connection.NewManager(connection.ManagerConfig{
		URL:              cfg.Server.URL,
		HandshakeTimeout: cfg.Server.HandshakeTimeout.Std(),
		WriteTimeout:     cfg.Server.WriteTimeout.Std(),
	}, store, logger)

	transport := manager.Open(ctx)
	defer transport.Close()

	logger.Info("chatwire running",
		"instance_id", cfg.Instance.ID,
		"metrics_url", fmt.Sprintf("http://localhost:%d%s", cfg.Metrics.Port, cfg.Metrics.Path),
	)

	// Wait for shutdown
	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}
}
