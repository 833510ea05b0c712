package config

import "time"

// LLMConfig selects the classifier provider
type LLMConfig struct {
	Provider string
}

// GuardConfig bounds and guards every classifier call
type GuardConfig struct {
	Timeout             time.Duration
	BreakerEnabled      bool
	MaxRequests         uint32
	Interval            time.Duration
	OpenTimeout         time.Duration
	ConsecutiveFailures uint32
}

// BedrockConfig represents the configuration for Amazon Bedrock
type BedrockConfig struct {
	Region      string
	ModelID     string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// GeminiConfig represents the configuration for Google Gemini
type GeminiConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// OpenAIConfig represents the configuration for OpenAI or a compatible endpoint
type OpenAIConfig struct {
	APIKey      string
	BaseURL     string
	ModelName   string
	MaxTokens   int
	Temperature float32
	TopP        float32
}

// AnthropicConfig represents the configuration for the Anthropic API
type AnthropicConfig struct {
	APIKey      string
	ModelName   string
	MaxTokens   int
	Temperature float32
}

// AnalysisConfig controls request shaping and persistence of analyses
type AnalysisConfig struct {
	MaxContentChars int
	TrustedDomains  []string
	PersistTimeout  time.Duration
}

// CacheConfig selects and tunes the result cache
type CacheConfig struct {
	Enabled          bool
	Type             string
	TTL              time.Duration
	CleanupFrequency time.Duration
	SQLitePath       string
	MySQLDSN         string
	RedisAddress     string
	RedisPassword    string
	RedisDB          int
}

// StoreConfig selects the record store
type StoreConfig struct {
	Type        string
	SQLitePath  string
	PostgresDSN string
}

// SMTPConfig describes the alert relay
type SMTPConfig struct {
	Address  string
	From     string
	To       []string
	Username string
	Password string
	Timeout  time.Duration
}

// ServerConfig represents the frontend configuration
type ServerConfig struct {
	Frontend      string
	ListenAddress string
	ReadTimeout   time.Duration
	WriteTimeout  time.Duration
	MaxBodyBytes  int64
}

// GetLLM returns the LLM configuration
func (c *Config) GetLLM() LLMConfig {
	return LLMConfig{
		Provider: c.GetString("llm.provider"),
	}
}

// GetGuard returns the classifier timeout and breaker configuration
func (c *Config) GetGuard() GuardConfig {
	return GuardConfig{
		Timeout:             c.durationOr("classifier.timeout", 30*time.Second),
		BreakerEnabled:      c.GetBool("classifier.breaker.enabled"),
		MaxRequests:         uint32(c.GetInt("classifier.breaker.max_requests")),
		Interval:            c.durationOr("classifier.breaker.interval", time.Minute),
		OpenTimeout:         c.durationOr("classifier.breaker.open_timeout", 30*time.Second),
		ConsecutiveFailures: uint32(c.GetInt("classifier.breaker.consecutive_failures")),
	}
}

// GetBedrock returns the Bedrock configuration
func (c *Config) GetBedrock() BedrockConfig {
	return BedrockConfig{
		Region:      c.GetString("bedrock.region"),
		ModelID:     c.GetString("bedrock.model_id"),
		MaxTokens:   c.GetInt("bedrock.max_tokens"),
		Temperature: float32(c.GetFloat64("bedrock.temperature")),
		TopP:        float32(c.GetFloat64("bedrock.top_p")),
	}
}

// GetGemini returns the Gemini configuration
func (c *Config) GetGemini() GeminiConfig {
	return GeminiConfig{
		APIKey:      c.GetString("gemini.api_key"),
		ModelName:   c.GetString("gemini.model_name"),
		MaxTokens:   c.GetInt("gemini.max_tokens"),
		Temperature: float32(c.GetFloat64("gemini.temperature")),
		TopP:        float32(c.GetFloat64("gemini.top_p")),
	}
}

// GetOpenAI returns the OpenAI configuration
func (c *Config) GetOpenAI() OpenAIConfig {
	return OpenAIConfig{
		APIKey:      c.GetString("openai.api_key"),
		BaseURL:     c.GetString("openai.base_url"),
		ModelName:   c.GetString("openai.model_name"),
		MaxTokens:   c.GetInt("openai.max_tokens"),
		Temperature: float32(c.GetFloat64("openai.temperature")),
		TopP:        float32(c.GetFloat64("openai.top_p")),
	}
}

// GetAnthropic returns the Anthropic configuration
func (c *Config) GetAnthropic() AnthropicConfig {
	return AnthropicConfig{
		APIKey:      c.GetString("anthropic.api_key"),
		ModelName:   c.GetString("anthropic.model_name"),
		MaxTokens:   c.GetInt("anthropic.max_tokens"),
		Temperature: float32(c.GetFloat64("anthropic.temperature")),
	}
}

// GetAnalysis returns the analysis configuration
func (c *Config) GetAnalysis() AnalysisConfig {
	return AnalysisConfig{
		MaxContentChars: c.GetInt("analysis.max_content_chars"),
		TrustedDomains:  c.GetStringSlice("analysis.trusted_domains"),
		PersistTimeout:  c.durationOr("analysis.persist_timeout", 10*time.Second),
	}
}

// GetCache returns the result cache configuration
func (c *Config) GetCache() CacheConfig {
	return CacheConfig{
		Enabled:          c.GetBool("cache.enabled"),
		Type:             c.GetString("cache.type"),
		TTL:              c.durationOr("cache.ttl", time.Hour),
		CleanupFrequency: c.durationOr("cache.cleanup_frequency", 10*time.Minute),
		SQLitePath:       c.GetString("cache.sqlite_path"),
		MySQLDSN:         c.GetString("cache.mysql_dsn"),
		RedisAddress:     c.GetString("cache.redis.address"),
		RedisPassword:    c.GetString("cache.redis.password"),
		RedisDB:          c.GetInt("cache.redis.db"),
	}
}

// GetStore returns the record store configuration
func (c *Config) GetStore() StoreConfig {
	return StoreConfig{
		Type:        c.GetString("store.type"),
		SQLitePath:  c.GetString("store.sqlite_path"),
		PostgresDSN: c.GetString("store.postgres_dsn"),
	}
}

// GetSMTP returns the alert relay configuration
func (c *Config) GetSMTP() SMTPConfig {
	return SMTPConfig{
		Address:  c.GetString("alert.smtp.address"),
		From:     c.GetString("alert.smtp.from"),
		To:       c.GetStringSlice("alert.smtp.to"),
		Username: c.GetString("alert.smtp.username"),
		Password: c.GetString("alert.smtp.password"),
		Timeout:  c.durationOr("alert.smtp.timeout", 10*time.Second),
	}
}

// GetServer returns the frontend configuration
func (c *Config) GetServer() ServerConfig {
	return ServerConfig{
		Frontend:      c.GetString("server.frontend"),
		ListenAddress: c.GetString("server.listen_address"),
		ReadTimeout:   c.durationOr("server.read_timeout", 15*time.Second),
		WriteTimeout:  c.durationOr("server.write_timeout", 60*time.Second),
		MaxBodyBytes:  c.GetInt64("server.max_body_bytes"),
	}
}
