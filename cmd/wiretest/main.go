// wiretest connects to the chat server and bridges stdin to the wire:
// each line is sent as a request frame and every decoded broadcast is
// printed. Usage: go run ./cmd/wiretest --url ws://127.0.0.1:8080/ws/
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/dmerrick/chatwire/internal/connection"
	"github.com/dmerrick/chatwire/internal/protocol"
	"github.com/dmerrick/chatwire/internal/state"
)

func main() {
	url := flag.String("url", "ws://127.0.0.1:8080/ws/", "chat server URL")
	verbose := flag.Bool("verbose", false, "enable debug logging")
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	store := state.NewStore(logger,
		state.WithMessageSink(func(resp protocol.ResponseFrame) {
			fmt.Printf("[%s] %s: %s\n",
				time.UnixMilli(resp.ServerTsMs).Format(time.TimeOnly),
				resp.Sender,
				resp.Body,
			)
		}),
		state.WithFatal(func(err error) {
			logger.Error("unrecovered send failure", "error", err)
			cancel()
		}),
	)
	if err := store.Start(ctx); err != nil {
		logger.Error("failed to start store", "error", err)
		os.Exit(1)
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer stopCancel()
		store.Stop(stopCtx)
	}()

	cfg := connection.DefaultManagerConfig()
	cfg.URL = *url
	manager := connection.NewManager(cfg, store, logger)

	transport := manager.Open(ctx)
	defer transport.Close()

	// Bridge stdin lines to SendRequest events. Leave headroom for the
	// non-body request fields so the encoded payload stays within
	// MaxPayloadSize.
	const maxBody = protocol.MaxPayloadSize - 32

	go func() {
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			body := scanner.Text()
			if body == "" {
				continue
			}
			if len(body) > maxBody {
				logger.Warn("line too long, skipping", "bytes", len(body), "max", maxBody)
				continue
			}
			store.Dispatch(state.SendRequest{Request: protocol.RequestFrame{
				ID:       uuid.New(),
				SentAtMs: time.Now().UnixMilli(),
				Body:     body,
			}})
		}
		cancel()
	}()

	<-ctx.Done()

	m := store.Model()
	logger.Info("session summary", "sent", m.SentCount, "received", m.RecvCount)
}
