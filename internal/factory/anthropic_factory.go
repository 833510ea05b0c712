package factory

import (
	"fmt"

	"github.com/phishnet/phish-detector/internal/adapters/anthropic"
	"github.com/phishnet/phish-detector/internal/config"
	"github.com/phishnet/phish-detector/internal/core"
	"go.uber.org/zap"
)

// AnthropicFactory creates Anthropic classifier clients
type AnthropicFactory struct {
	cfg    *config.Config
	logger *zap.Logger
}

// NewAnthropicFactory creates a new Anthropic factory
func NewAnthropicFactory(cfg *config.Config, logger *zap.Logger) *AnthropicFactory {
	return &AnthropicFactory{
		cfg:    cfg,
		logger: logger,
	}
}

// CreateClassifier creates an Anthropic classifier
func (f *AnthropicFactory) CreateClassifier() (core.Classifier, error) {
	anthropicCfg := f.cfg.GetAnthropic()

	if anthropicCfg.APIKey == "" {
		return nil, fmt.Errorf("anthropic API key is required")
	}

	return anthropic.NewClaudeClient(
		anthropicCfg.APIKey,
		anthropicCfg.ModelName,
		anthropicCfg.MaxTokens,
		anthropicCfg.Temperature,
		f.logger,
	), nil
}
