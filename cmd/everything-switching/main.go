package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YodaWagyu/everything-switching/config"
	"github.com/YodaWagyu/everything-switching/internal/app"
	"github.com/YodaWagyu/everything-switching/internal/handlers/http"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

func main() {
	cfg := config.LoadConfig()
	log := setupLogger(cfg.Env)
	// Create cancellable context
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Setup signal handling for graceful shutdown
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigs
		log.Info("Shutting down...")
		cancel()
	}()

	log.Info("Initializing app...")

	application, err := app.NewApp(ctx, cfg)
	if err != nil {
		log.Error(fmt.Sprintf("Failed to initialize app: %v", err))
		os.Exit(1)
	}

	// Start analysis processor
	log.Info("Starting analysis processor...")
	go application.Processor.Run(ctx)

	// Set up HTTP server
	httpAddr := fmt.Sprintf(":%s", cfg.HTTPPort)
	httpServer := http.NewServer(httpAddr, application)

	// Start HTTP server in a goroutine
	go func() {
		log.Info(fmt.Sprintf("HTTP server listening on %s", httpAddr))
		if err := httpServer.Start(); err != nil {
			log.Info(fmt.Sprintf("HTTP server error: %v", err))
		}
	}()

	// Wait for termination signal
	<-ctx.Done()

	// Create a timeout context for graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	// Shutdown HTTP server with timeout
	log.Info("Shutting down HTTP server...")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Info(fmt.Sprintf("HTTP server shutdown error: %v", err))
	}

	// Clean up app resources
	log.Info("Cleaning up app resources...")
	application.Cleanup(shutdownCtx)

	log.Info("Service stopped.")
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		fallthrough
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	}

	return log
}
