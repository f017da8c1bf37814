package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"retail-ledger/internal/config"
	"retail-ledger/internal/logger"
	"retail-ledger/internal/mirror"
	"retail-ledger/internal/server"
	"retail-ledger/internal/store"
	"retail-ledger/internal/telemetry"
)

func gracefulShutdown(apiServer *server.Server, telem *telemetry.Telemetry, logger *zap.Logger, done chan bool) {
	// Create context that listens for the interrupt signal from the OS.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop() // Allow Ctrl+C to force shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	if err := telem.Shutdown(ctx); err != nil {
		logger.Error("Error shutting down telemetry", zap.Error(err))
	}

	logger.Info("Server exiting")

	done <- true
}

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Telemetry.ServiceName)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting retail ledger API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
		zap.String("store", cfg.Store.Backend),
	)

	ctx := context.Background()

	telem, err := telemetry.New(ctx, cfg.Telemetry, cfg.Server.Env, logger.Component(log, "telemetry"))
	if err != nil {
		log.Fatal("Failed to initialize telemetry", zap.Error(err))
	}

	backend, err := store.Open(ctx, cfg, logger.Component(log, "store"))
	if err != nil {
		log.Fatal("Failed to open store", zap.Error(err))
	}

	var remote *mirror.Mongo
	if cfg.Mirror.Enabled() {
		remote, err = mirror.Connect(ctx, cfg.Mirror, logger.Component(log, "mirror"))
		if err != nil {
			// the local store is authoritative while the mirror is unreachable
			log.Warn("Remote mirror unavailable, running local only", zap.Error(err))
			remote = nil
		}
	}

	srv := server.NewServer(cfg, log, telem, backend, remote)

	done := make(chan bool, 1)
	go gracefulShutdown(srv, telem, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
