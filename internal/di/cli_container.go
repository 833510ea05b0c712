package di

import (
	"flag"
	"os"
	"strings"

	"go.uber.org/dig"
	"go.uber.org/zap"

	"github.com/phishnet/phish-detector/internal/adapters/cache"
	"github.com/phishnet/phish-detector/internal/adapters/store"
	"github.com/phishnet/phish-detector/internal/config"
	"github.com/phishnet/phish-detector/internal/core"
	"github.com/phishnet/phish-detector/internal/factory"
	"github.com/phishnet/phish-detector/internal/logging"
	"github.com/phishnet/phish-detector/internal/ports"
)

// CLIFlags contains all command line flags for the CLI application
type CLIFlags struct {
	// Target
	URL      string
	PageFile string

	// LLM provider flags
	Provider    string
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	TopP        float64

	// Bedrock flags
	BedrockRegion string

	// OpenAI-compatible endpoint
	OpenAIBaseURL string

	// Analysis flags
	Timeout        string
	TrustedDomains string

	Verbose    bool
	JSONLog    bool
	ConfigFile string
}

// ParseFlags parses command line flags and returns a CLIFlags struct
func ParseFlags() *CLIFlags {
	flags, _ := ParseFlagSet(flag.CommandLine, os.Args[1:])
	return flags
}

// ParseFlagSet registers the CLI flags on fs and parses args
func ParseFlagSet(fs *flag.FlagSet, args []string) (*CLIFlags, error) {
	flags := &CLIFlags{}

	fs.StringVar(&flags.URL, "url", "", "URL to check (required)")
	fs.StringVar(&flags.PageFile, "file", "", "Saved HTML page to analyze as content")

	fs.StringVar(&flags.Provider, "provider", "gemini", "LLM provider (gemini, openai, bedrock, anthropic)")
	fs.StringVar(&flags.APIKey, "api-key", "", "API key for the selected provider")
	fs.StringVar(&flags.Model, "model", "", "Model name or id (provider default if empty)")
	fs.IntVar(&flags.MaxTokens, "max-tokens", 1024, "Maximum tokens for the classifier response")
	fs.Float64Var(&flags.Temperature, "temperature", 0.1, "Temperature for generation")
	fs.Float64Var(&flags.TopP, "top-p", 0.9, "Top-p for generation")
	fs.StringVar(&flags.BedrockRegion, "bedrock-region", "us-east-1", "AWS region for Bedrock")
	fs.StringVar(&flags.OpenAIBaseURL, "openai-base-url", "", "Base URL of an OpenAI-compatible endpoint")

	fs.StringVar(&flags.Timeout, "timeout", "30s", "Classifier call timeout")
	fs.StringVar(&flags.TrustedDomains, "trusted", "", "Comma-separated list of trusted domains")

	fs.BoolVar(&flags.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&flags.JSONLog, "json-log", false, "Output logs in JSON format")
	fs.StringVar(&flags.ConfigFile, "config", "", "Path to config file (overrides provider flags)")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	return flags, nil
}

// BuildCLIContainer creates and configures a dependency injection container for the CLI application
func BuildCLIContainer(flags *CLIFlags) (*dig.Container, error) {
	container := dig.New()

	// Register flags
	if err := container.Provide(func() *CLIFlags { return flags }); err != nil {
		return nil, err
	}

	// Register logger
	if err := container.Provide(func(flags *CLIFlags) (*zap.Logger, error) {
		return logging.InitConsoleLogger(flags.Verbose, flags.JSONLog)
	}); err != nil {
		return nil, err
	}

	// Register configuration
	if err := container.Provide(func(flags *CLIFlags, logger *zap.Logger) (*config.Config, error) {
		if flags.ConfigFile != "" {
			cfg, err := config.NewWithFile(flags.ConfigFile)
			if err != nil {
				return nil, err
			}
			logger.Info("Loaded configuration from file", zap.String("file", cfg.GetViper().ConfigFileUsed()))
			applyCLIOverrides(cfg, flags)
			return cfg, nil
		}
		return createConfigFromFlags(flags), nil
	}); err != nil {
		return nil, err
	}

	if err := provideCommon(container); err != nil {
		return nil, err
	}

	// One-shot runs keep everything in memory
	if err := container.Provide(func(cfg *config.Config, logger *zap.Logger) ports.CacheBackend {
		return cache.NewMemoryCache(logger, cfg.GetCache().TTL, 0)
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func() core.RecordStore {
		return store.NewMemoryStore()
	}); err != nil {
		return nil, err
	}
	if err := container.Provide(func(f *factory.AlertFactory) (core.Alerter, error) {
		return f.CreateAlerter()
	}); err != nil {
		return nil, err
	}

	return container, nil
}

// applyCLIOverrides sets what only the command line can say
func applyCLIOverrides(cfg *config.Config, flags *CLIFlags) {
	cfg.Set("server.frontend", "cli")
	cfg.Set("cli.url", flags.URL)
	cfg.Set("cli.file", flags.PageFile)
	cfg.Set("cli.verbose", flags.Verbose)
	if flags.TrustedDomains != "" {
		cfg.Set("analysis.trusted_domains", splitList(flags.TrustedDomains))
	}
}

// createConfigFromFlags creates a configuration from command line flags
func createConfigFromFlags(flags *CLIFlags) *config.Config {
	v := config.NewEmptyViper()

	v.Set("llm.provider", flags.Provider)
	v.Set("classifier.timeout", flags.Timeout)
	v.Set("alert.type", "log")

	switch flags.Provider {
	case "gemini":
		v.Set("gemini.api_key", flags.APIKey)
		setIfNotEmpty(v.Set, "gemini.model_name", flags.Model)
		v.Set("gemini.max_tokens", flags.MaxTokens)
		v.Set("gemini.temperature", flags.Temperature)
		v.Set("gemini.top_p", flags.TopP)
	case "openai":
		v.Set("openai.api_key", flags.APIKey)
		v.Set("openai.base_url", flags.OpenAIBaseURL)
		setIfNotEmpty(v.Set, "openai.model_name", flags.Model)
		v.Set("openai.max_tokens", flags.MaxTokens)
		v.Set("openai.temperature", flags.Temperature)
		v.Set("openai.top_p", flags.TopP)
	case "bedrock":
		v.Set("bedrock.region", flags.BedrockRegion)
		setIfNotEmpty(v.Set, "bedrock.model_id", flags.Model)
		v.Set("bedrock.max_tokens", flags.MaxTokens)
		v.Set("bedrock.temperature", flags.Temperature)
		v.Set("bedrock.top_p", flags.TopP)
	case "anthropic":
		v.Set("anthropic.api_key", flags.APIKey)
		setIfNotEmpty(v.Set, "anthropic.model_name", flags.Model)
		v.Set("anthropic.max_tokens", flags.MaxTokens)
		v.Set("anthropic.temperature", flags.Temperature)
	}

	cfg := config.NewFromViper(v)
	applyCLIOverrides(cfg, flags)
	return cfg
}

func setIfNotEmpty(set func(string, interface{}), key, value string) {
	if value != "" {
		set(key, value)
	}
}

func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
