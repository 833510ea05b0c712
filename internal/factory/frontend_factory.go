package factory

import (
	"fmt"
	"os"

	"github.com/phishnet/phish-detector/internal/adapters/frontend"
	"github.com/phishnet/phish-detector/internal/config"
	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/dom"
	"github.com/phishnet/phish-detector/internal/ports"
	"go.uber.org/zap"
)

// FrontendFactory creates frontends based on configuration
type FrontendFactory struct {
	cfg     *config.Config
	logger  *zap.Logger
	service *core.DetectionService
}

// NewFrontendFactory creates a new frontend factory
func NewFrontendFactory(cfg *config.Config, logger *zap.Logger, service *core.DetectionService) *FrontendFactory {
	return &FrontendFactory{
		cfg:     cfg,
		logger:  logger,
		service: service,
	}
}

// CreateFrontend creates a frontend based on the configuration
func (f *FrontendFactory) CreateFrontend() (ports.Frontend, error) {
	serverCfg := f.cfg.GetServer()
	extractor := dom.NewExtractor(f.logger)

	switch serverCfg.Frontend {
	case "http":
		return frontend.NewHTTPFrontend(
			f.service,
			extractor,
			f.logger,
			serverCfg.ListenAddress,
			serverCfg.ReadTimeout,
			serverCfg.WriteTimeout,
			serverCfg.MaxBodyBytes,
		), nil
	case "cli":
		cli, err := frontend.NewCLIFrontend(
			f.service,
			extractor,
			f.logger,
			os.Stdout,
			f.cfg.GetString("cli.url"),
			f.cfg.GetString("cli.file"),
			f.cfg.GetBool("cli.verbose"),
		)
		if err != nil {
			return nil, err
		}
		return cli, nil
	default:
		return nil, fmt.Errorf("unsupported frontend type: %s", serverCfg.Frontend)
	}
}
