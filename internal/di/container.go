package di

import (
	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/phishnet/phish-detector/internal/allowlist"
	"github.com/phishnet/phish-detector/internal/config"
	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/factory"
	"github.com/phishnet/phish-detector/internal/logging"
	"github.com/phishnet/phish-detector/internal/ports"
	"github.com/phishnet/phish-detector/internal/utils"
)

// BuildContainer creates and configures a dependency injection container
func BuildContainer() (*dig.Container, error) {
	container := dig.New()

	// Register configuration
	if err := container.Provide(config.New); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(logging.InitLogger); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// Register result cache, nil when caching is disabled
	if err := container.Provide(func(f *factory.CacheFactory, logger *zap.Logger) (ports.CacheBackend, error) {
		if !f.IsCacheEnabled() {
			logger.Info("Result cache disabled")
			return nil, nil
		}
		return f.CreateResultCache()
	}); err != nil {
		return nil, err
	}

	// Register record store
	if err := container.Provide(func(f *factory.StoreFactory) (core.RecordStore, error) {
		return f.CreateRecordStore()
	}); err != nil {
		return nil, err
	}

	// Register alerter
	if err := container.Provide(func(f *factory.AlertFactory) (core.Alerter, error) {
		return f.CreateAlerter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// provideCommon registers what the server and the CLI build the same way
func provideCommon(container *dig.Container) error {
	// Register factories
	for _, ctor := range []interface{}{
		factory.NewLLMFactory,
		factory.NewCacheFactory,
		factory.NewStoreFactory,
		factory.NewAlertFactory,
		factory.NewFrontendFactory,
	} {
		if err := container.Provide(ctor); err != nil {
			return err
		}
	}

	// Register text processor
	if err := container.Provide(utils.NewTextProcessor); err != nil {
		return err
	}

	// Register classifier
	if err := container.Provide(func(f *factory.LLMFactory) (core.Classifier, error) {
		return f.CreateClassifier()
	}); err != nil {
		return err
	}

	// Register trusted domains
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) *allowlist.Checker {
		domains := cfg.GetAnalysis().TrustedDomains
		if len(domains) > 0 {
			logger.Info("Loaded trusted domains", zap.Strings("domains", domains))
		}
		return allowlist.NewChecker(domains, logger)
	}); err != nil {
		return err
	}

	// Register service options
	if err := container.Provide(func(cfg *config.Config) core.ServiceOptions {
		analysis := cfg.GetAnalysis()
		return core.ServiceOptions{
			CacheEnabled:      cfg.GetBool("cache.enabled"),
			ClassifierTimeout: cfg.GetGuard().Timeout,
			PersistTimeout:    analysis.PersistTimeout,
			MaxContentChars:   analysis.MaxContentChars,
		}
	}); err != nil {
		return err
	}

	// Register detection service
	if err := container.Provide(func(
		classifier core.Classifier,
		cache ports.CacheBackend,
		store core.RecordStore,
		alerter core.Alerter,
		textProcessor *utils.TextProcessor,
		checker *allowlist.Checker,
		logger *zap.Logger,
		opts core.ServiceOptions,
	) *core.DetectionService {
		var resultCache core.ResultCache
		if cache != nil {
			resultCache = cache
		}
		return core.NewDetectionService(classifier, resultCache, store, alerter, textProcessor, checker, logger, opts)
	}); err != nil {
		return err
	}

	// Register frontend
	return container.Provide(func(f *factory.FrontendFactory) (ports.Frontend, error) {
		return f.CreateFrontend()
	})
}
