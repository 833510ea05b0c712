package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/di"
	"github.com/phishnet/phish-detector/internal/ports"
	"go.uber.org/dig"
	"go.uber.org/zap"
)

func main() {
	container, err := di.BuildContainer()
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Application error: %v\n", err)
		os.Exit(1)
	}
}

type deps struct {
	dig.In

	Logger     *zap.Logger
	Frontend   ports.Frontend
	Service    *core.DetectionService
	Classifier core.Classifier
	Cache      ports.CacheBackend
	Store      core.RecordStore
}

// run is the main application function that gets all dependencies injected
func run(d deps) error {
	logger := d.Logger
	defer logger.Sync()

	if err := d.Frontend.Start(); err != nil {
		logger.Error("Failed to start frontend", zap.Error(err))
		return err
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	<-sigCh
	logger.Info("Shutting down...")

	if err := d.Frontend.Stop(); err != nil {
		logger.Error("Failed to stop frontend", zap.Error(err))
	}

	// drains background record writes and alerts
	if err := d.Service.Close(); err != nil {
		logger.Error("Failed to close detection service", zap.Error(err))
	}

	if d.Cache != nil {
		d.Cache.Stop()
	}

	if err := d.Store.Close(); err != nil {
		logger.Error("Failed to close record store", zap.Error(err))
	}

	if closer, ok := d.Classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	logger.Info("Shutdown complete")
	return nil
}
