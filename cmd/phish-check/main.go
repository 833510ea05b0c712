package main

import (
	"fmt"
	"os"

	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/di"
	"github.com/phishnet/phish-detector/internal/ports"
	"go.uber.org/zap"
)

func main() {
	flags := di.ParseFlags()
	if flags.URL == "" {
		fmt.Fprintln(os.Stderr, "usage: phish-check -url <url> [-file page.html] [flags]")
		os.Exit(2)
	}

	container, err := di.BuildCLIContainer(flags)
	if err != nil {
		fmt.Printf("Failed to build dependency container: %v\n", err)
		os.Exit(1)
	}

	if err := container.Invoke(run); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}

func run(
	logger *zap.Logger,
	frontend ports.Frontend,
	service *core.DetectionService,
	classifier core.Classifier,
) error {
	defer logger.Sync()

	runErr := frontend.Start()

	// wait for the analysis record write before exiting
	service.Close()

	if closer, ok := classifier.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Error("Failed to close classifier", zap.Error(err))
		}
	}

	return runErr
}
