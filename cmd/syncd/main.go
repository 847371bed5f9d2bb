package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"listacompras/infrastructure/config"
	"listacompras/infrastructure/di"
	"listacompras/infrastructure/localstore"
	"listacompras/interfaces/syncserver"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := di.ProvideLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	// Documents are persisted as JSON files, one per list
	store := localstore.New(cfg.SyncServerDataDir, logger)
	defer store.Close()

	server := syncserver.NewServer(store, logger)

	srv := &http.Server{
		Addr:         cfg.SyncServerAddress,
		Handler:      server.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting sync server",
			zap.String("address", cfg.SyncServerAddress),
			zap.String("dataDir", cfg.SyncServerDataDir),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Sync server failed to start", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down sync server...")
	server.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Sync server shutdown error", zap.Error(err))
	}

	log.Println("Sync server stopped")
}
