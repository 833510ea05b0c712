package factory

import (
	"fmt"

	"github.com/phishnet/phish-detector/internal/adapters/guard"
	"github.com/phishnet/phish-detector/internal/config"
	"github.com/phishnet/phish-detector/internal/core"
	"go.uber.org/zap"
)

// LLMFactory creates classifier clients
type LLMFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewLLMFactory creates a new LLM factory
func NewLLMFactory(cfg *config.Config, logger *zap.Logger) *LLMFactory {
	return &LLMFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifier creates the configured provider client, guarded by a
// circuit breaker unless the breaker is disabled.
func (f *LLMFactory) CreateClassifier() (core.Classifier, error) {
	provider := f.cfg.GetLLM().Provider

	var (
		client core.Classifier
		err    error
	)
	switch provider {
	case "gemini":
		client, err = NewGeminiFactory(f.cfg, f.logger).CreateClassifier()
	case "openai":
		client, err = NewOpenAIFactory(f.cfg, f.logger).CreateClassifier()
	case "bedrock":
		client, err = NewBedrockFactory(f.cfg, f.logger).CreateClassifier()
	case "anthropic":
		client, err = NewAnthropicFactory(f.cfg, f.logger).CreateClassifier()
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", provider)
	}
	if err != nil {
		return nil, err
	}

	guardCfg := f.cfg.GetGuard()
	if !guardCfg.BreakerEnabled {
		return client, nil
	}

	f.logger.Info("Classifier circuit breaker enabled",
		zap.String("provider", provider),
		zap.Uint32("consecutive_failures", guardCfg.ConsecutiveFailures),
		zap.Duration("open_timeout", guardCfg.OpenTimeout))

	return guard.NewClassifier(client, guard.Settings{
		Name:                provider,
		MaxRequests:         guardCfg.MaxRequests,
		Interval:            guardCfg.Interval,
		OpenTimeout:         guardCfg.OpenTimeout,
		ConsecutiveFailures: guardCfg.ConsecutiveFailures,
	}, f.logger), nil
}
