// Package main is the entry point for the Lumpiah API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lumpiah/internal/app"
	"lumpiah/internal/config"
	"lumpiah/internal/domain/auth"
	v1 "lumpiah/internal/infrastructure/http/v1"
	"lumpiah/internal/infrastructure/http/v1/handlers"
	"lumpiah/pkg/logger"
)

const version = "0.1.0"

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
	log.Info("starting lumpiah server")

	a, err := app.New(ctx, app.ConfigFromEnv())
	if err != nil {
		log.Fatalw("failed to initialize services", "error", err)
	}
	defer a.Close()

	if err := a.Start(ctx); err != nil {
		log.Fatalw("failed to start background listeners", "error", err)
	}

	jwtService, err := auth.NewJWTService(auth.DefaultJWTConfig(config.MustEnv("JWT_SECRET")))
	if err != nil {
		log.Fatalw("failed to configure jwt", "error", err)
	}

	router := v1.NewRouter(v1.RouterConfig{
		Logger:       log,
		JWTValidator: jwtService,
		Health:       handlers.NewHealthHandler(a.Pool, a.Pool.Unwrap(), a.Production.Metrics(), version),
		Production:   a.Production,
		Forecasts:    a.Configs,
		Forecaster:   a.Forecasts,
		History:      a.Audit,
	})

	port := config.GetEnv("APP_PORT", "8080")
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "port", port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	// Give outstanding requests 30 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Errorw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}
