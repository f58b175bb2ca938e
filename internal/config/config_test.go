package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsMatchTierWindows(t *testing.T) {
	cfg := Default()

	assert.Equal(t, time.Hour, cfg.Server.StaleWindow)
	assert.Equal(t, 20*time.Minute, cfg.Client.StaleWindow)
	assert.Equal(t, "lacarteLastFetch", cfg.Server.CookieName)
	assert.Equal(t, 3, cfg.Chat.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.Chat.DefaultDelay)
	assert.InDelta(t, 0.499999, cfg.Enrichment.DefaultTone, 1e-9)
	assert.InDelta(t, 0.5, cfg.Embedding.Fallback, 1e-9)
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "lacarte.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  staleWindow: 30m
chat:
  model: file-model
  maxAttempts: 5
embedding:
  provider: openai
  model: text-embedding-3-small
logging:
  format: json
`), 0o600))

	t.Setenv(configPathEnv, path)
	t.Setenv(chatModelEnv, "env-model")
	t.Setenv(openAIKeyEnv, "sk-test")
	t.Setenv(legacyRedditTokenEnv, "legacy")
	t.Setenv(redditTokenEnv, "")
	t.Setenv(redditRPSEnv, "2.5")

	cfg := Load()

	assert.Equal(t, 30*time.Minute, cfg.Server.StaleWindow)
	assert.Equal(t, "env-model", cfg.Chat.Model)
	assert.Equal(t, 5, cfg.Chat.MaxAttempts)
	assert.Equal(t, "sk-test", cfg.Chat.APIKey)
	assert.Equal(t, ProviderOpenAI, cfg.Embedding.Provider)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, "legacy", cfg.Reddit.Token)
	assert.InDelta(t, 2.5, cfg.Reddit.RequestsPerSecond, 1e-9)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 20*time.Minute, cfg.Client.StaleWindow)
}

func TestLoadIgnoresBrokenFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.yaml")
	require.NoError(t, os.WriteFile(path, []byte("server: [nope"), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Equal(t, Default().Server.ListenAddr, cfg.Server.ListenAddr)
}

func TestLoadAcceptsZeroForFallbackAndDefaultTone(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "zero.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding:
  fallback: 0
enrichment:
  defaultTone: 0
`), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.Zero(t, cfg.Embedding.Fallback)
	assert.Zero(t, cfg.Enrichment.DefaultTone)
}

func TestLoadKeepsDefaultsWhenFloatsAbsent(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "partial.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
embedding:
  provider: openai
`), 0o600))
	t.Setenv(configPathEnv, path)

	cfg := Load()

	assert.InDelta(t, 0.5, cfg.Embedding.Fallback, 1e-9)
	assert.InDelta(t, 0.499999, cfg.Enrichment.DefaultTone, 1e-9)
}
