package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())

	assert.Equal(t, "gemini", cfg.GetLLM().Provider)

	guard := cfg.GetGuard()
	assert.Equal(t, 30*time.Second, guard.Timeout)
	assert.True(t, guard.BreakerEnabled)
	assert.Equal(t, uint32(5), guard.ConsecutiveFailures)

	analysis := cfg.GetAnalysis()
	assert.Equal(t, 10000, analysis.MaxContentChars)
	assert.Empty(t, analysis.TrustedDomains)
	assert.Equal(t, 10*time.Second, analysis.PersistTimeout)

	cache := cfg.GetCache()
	assert.True(t, cache.Enabled)
	assert.Equal(t, "memory", cache.Type)
	assert.Equal(t, time.Hour, cache.TTL)

	server := cfg.GetServer()
	assert.Equal(t, "http", server.Frontend)
	assert.Equal(t, ":3000", server.ListenAddress)

	assert.Equal(t, "log", cfg.GetString("alert.type"))
	assert.Equal(t, "sqlite", cfg.GetStore().Type)
}

func TestNewWithFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phishnet.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
llm:
  provider: anthropic
anthropic:
  api_key: sk-test
classifier:
  timeout: 5s
analysis:
  trusted_domains:
    - example.com
    - example.org
cache:
  type: redis
  ttl: 30m
  redis:
    address: cache:6379
alert:
  type: smtp
  smtp:
    to: [soc@example.com]
`), 0o600))

	cfg, err := NewWithFile(path)
	require.NoError(t, err)

	assert.Equal(t, "anthropic", cfg.GetLLM().Provider)
	assert.Equal(t, "sk-test", cfg.GetAnthropic().APIKey)
	assert.Equal(t, 5*time.Second, cfg.GetGuard().Timeout)
	assert.Equal(t, []string{"example.com", "example.org"}, cfg.GetAnalysis().TrustedDomains)
	assert.Equal(t, "redis", cfg.GetCache().Type)
	assert.Equal(t, 30*time.Minute, cfg.GetCache().TTL)
	assert.Equal(t, "cache:6379", cfg.GetCache().RedisAddress)
	assert.Equal(t, []string{"soc@example.com"}, cfg.GetSMTP().To)

	// untouched keys keep their defaults
	assert.Equal(t, 10000, cfg.GetAnalysis().MaxContentChars)
}

func TestNewWithFile_Missing(t *testing.T) {
	_, err := NewWithFile(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvironmentOverrides(t *testing.T) {
	t.Setenv("PHISHNET_LLM_PROVIDER", "openai")
	t.Setenv("PHISHNET_SERVER_LISTEN_ADDRESS", ":8088")

	cfg, err := NewWithFile("")
	require.NoError(t, err)

	assert.Equal(t, "openai", cfg.GetLLM().Provider)
	assert.Equal(t, ":8088", cfg.GetServer().ListenAddress)
}

func TestGetDuration_Invalid(t *testing.T) {
	cfg := NewFromViper(NewEmptyViper())
	cfg.Set("classifier.timeout", "soon")

	_, err := cfg.GetDuration("classifier.timeout")
	assert.Error(t, err)
	assert.Equal(t, 30*time.Second, cfg.GetGuard().Timeout)
}
