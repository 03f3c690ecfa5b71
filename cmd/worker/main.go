// Package main is the entry point for the Lumpiah background worker.
// It pre-generates tomorrow's plans and relays outbox events.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"lumpiah/internal/app"
	"lumpiah/internal/config"
	"lumpiah/internal/infrastructure/storage/postgres"
	"lumpiah/pkg/logger"
)

func main() {
	log, err := logger.New(logger.Config{
		Level:       config.GetEnv("LOG_LEVEL", "info"),
		Development: config.GetEnv("APP_ENV", "development") == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(logger.WithLogger(context.Background(), log))
	defer cancel()

	log.Info("starting lumpiah worker")

	a, err := app.New(ctx, app.ConfigFromEnv())
	if err != nil {
		log.Fatalw("failed to initialize services", "error", err)
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		log.Fatalw("failed to start background listeners", "error", err)
	}

	pregen := NewPregenerator(a.Branches, a.Production, config.GetEnvInt("PLAN_PREGEN_HOUR_UTC", 3), log)
	relay := postgres.NewOutboxRelay(a.TxManager, config.GetEnvInt("OUTBOX_BATCH_SIZE", 100), NewLogHandler(log))
	pollInterval := config.GetEnvDuration("OUTBOX_POLL_INTERVAL", 500*time.Millisecond)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		pregen.Run(ctx)
	}()
	go func() {
		defer wg.Done()
		runRelay(ctx, relay, pollInterval, log)
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down worker...")
	cancel()

	wg.Wait()
	log.Info("worker stopped")
}

func runRelay(ctx context.Context, relay *postgres.OutboxRelay, interval time.Duration, log *logger.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := relay.ProcessBatch(ctx)
			if err != nil {
				if ctx.Err() == nil {
					log.Errorw("outbox batch failed", "error", err)
				}
				continue
			}
			if n > 0 {
				log.Debugw("processed outbox batch", "count", n)
			}
		}
	}
}
