package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate keeps user config and stray provider env vars out of the test.
func isolate(t *testing.T) {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(home, ".config"))
	t.Setenv(GeminiAPIKeyEnv, "")
	for _, kv := range os.Environ() {
		key, _, _ := strings.Cut(kv, "=")
		if strings.HasPrefix(key, "COINLENS_") {
			t.Setenv(key, "")
			require.NoError(t, os.Unsetenv(key))
		}
	}
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load(context.Background(), Options{})
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 90*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.ShutdownTimeout)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.True(t, cfg.Metrics.Enabled)
	assert.True(t, cfg.Health.Enabled)

	assert.Equal(t, 60*time.Second, cfg.Estimate.Timeout)
	assert.Equal(t, 8<<20, cfg.Estimate.MaxImageBytes)
	assert.Equal(t, 1024, cfg.Estimate.MaxImageEdge)
	assert.Equal(t, 40_000_000, cfg.Estimate.MaxImagePixels)
	assert.Equal(t, "coin-estimate", cfg.Estimate.PromptRole)

	require.Contains(t, cfg.AILink.Providers, DefaultProviderID)
	gemini := cfg.AILink.Providers[DefaultProviderID]
	assert.True(t, gemini.Enabled)
	assert.Equal(t, "gemini", gemini.AIProvider)
	assert.Equal(t, DefaultModel, gemini.Models["default"])
	assert.True(t, gemini.Capabilities.Images)
	assert.Empty(t, gemini.Credentials)
	assert.Equal(t, DefaultProviderID, cfg.AILink.Routing["coin-estimate"])
	assert.Equal(t, 60*time.Second, cfg.AILink.DefaultTimeout)

	assert.Same(t, cfg, GetConfig())
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	isolate(t)
	t.Setenv("COINLENS_SERVER_PORT", "9999")
	t.Setenv("COINLENS_LOGGING_LEVEL", "debug")
	t.Setenv("COINLENS_ESTIMATE_TIMEOUT", "15s")

	cfg, err := Load(context.Background(), Options{})
	require.NoError(t, err)
	assert.Equal(t, 9999, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 15*time.Second, cfg.Estimate.Timeout)
}

func TestLoadGeminiAPIKey(t *testing.T) {
	isolate(t)
	t.Setenv(GeminiAPIKeyEnv, "g-secret")

	cfg, err := Load(context.Background(), Options{})
	require.NoError(t, err)

	creds := cfg.AILink.Providers[DefaultProviderID].Credentials
	require.Len(t, creds, 1)
	assert.Equal(t, "g-secret", creds[0].APIKey)
	assert.True(t, creds[0].Enabled)
}

func TestLoadDynamicAILinkOverrides(t *testing.T) {
	isolate(t)
	t.Setenv(GeminiAPIKeyEnv, "ignored")
	t.Setenv("COINLENS_AILINK_PROVIDERS_GEMINI_CREDENTIALS_0_API_KEY", "from-env")
	t.Setenv("COINLENS_AILINK_PROVIDERS_GEMINI_CREDENTIALS_0_ENABLED", "true")
	t.Setenv("COINLENS_AILINK_PROVIDERS_LOCAL_LLAVA_ENABLED", "true")
	t.Setenv("COINLENS_AILINK_PROVIDERS_LOCAL_LLAVA_AI_PROVIDER", "openai")
	t.Setenv("COINLENS_AILINK_PROVIDERS_LOCAL_LLAVA_BASE_URL", "http://localhost:11434/v1")
	t.Setenv("COINLENS_AILINK_PROVIDERS_LOCAL_LLAVA_MODELS_DEFAULT", "llava")
	t.Setenv("COINLENS_AILINK_PROVIDERS_LOCAL_LLAVA_CREDENTIALS_0_API_KEY", "ollama")
	t.Setenv("COINLENS_AILINK_PROVIDERS_LOCAL_LLAVA_CREDENTIALS_0_ENABLED", "true")
	t.Setenv("COINLENS_AILINK_ROUTING_COIN_ESTIMATE", "local-llava")

	cfg, err := Load(context.Background(), Options{})
	require.NoError(t, err)

	gemini := cfg.AILink.Providers[DefaultProviderID]
	require.Len(t, gemini.Credentials, 1)
	assert.Equal(t, "from-env", gemini.Credentials[0].APIKey)
	assert.Equal(t, DefaultModel, gemini.Models["default"])

	local := cfg.AILink.Providers["local-llava"]
	assert.True(t, local.Enabled)
	assert.Equal(t, "openai", local.AIProvider)
	assert.Equal(t, "http://localhost:11434/v1", local.BaseURL)
	assert.Equal(t, "llava", local.Models["default"])
	require.Len(t, local.Credentials, 1)
	assert.Equal(t, "local-llava", cfg.AILink.Routing["coin-estimate"])
}

func TestLoadConfigFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), "coinlens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 7070
estimate:
  timeout: 45s
  model: gemini-1.5-pro
ailink:
  providers:
    openai:
      enabled: true
      ai_provider: openai
      models:
        default: gpt-4o-mini
      credentials:
        - label: main
          enabled: true
          api_key: sk-test
  routing:
    coin-estimate: openai
`), 0o600))

	cfg, err := Load(context.Background(), Options{ConfigFile: path})
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
	assert.Equal(t, 45*time.Second, cfg.Estimate.Timeout)
	assert.Equal(t, "gemini-1.5-pro", cfg.Estimate.Model)
	assert.Equal(t, "openai", cfg.AILink.Routing["coin-estimate"])
	assert.Equal(t, "sk-test", cfg.AILink.Providers["openai"].Credentials[0].APIKey)
	assert.Contains(t, cfg.AILink.Providers, DefaultProviderID)
}

func TestLoadMissingExplicitFile(t *testing.T) {
	isolate(t)
	_, err := Load(context.Background(), Options{ConfigFile: filepath.Join(t.TempDir(), "nope.yaml")})
	require.Error(t, err)
}

func TestLoadRuntimeOverrides(t *testing.T) {
	isolate(t)
	cfg, err := Load(context.Background(), Options{Overrides: []map[string]any{
		{"server": map[string]any{"host": "0.0.0.0"}},
		{"server": map[string]any{"port": 8181}},
	}})
	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8181, cfg.Server.Port)
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	isolate(t)

	_, err := Load(context.Background(), Options{Overrides: []map[string]any{
		{"estimate": map[string]any{"timeout": "0s"}},
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Timeout")

	_, err = Load(context.Background(), Options{Overrides: []map[string]any{
		{"ailink": map[string]any{"routing": map[string]any{"coin-estimate": "missing"}}},
	}})
	require.ErrorIs(t, err, ErrInvalid)
	assert.Contains(t, err.Error(), "unknown provider")

	_, err = Load(context.Background(), Options{Overrides: []map[string]any{
		{"logging": map[string]any{"level": "loud"}},
	}})
	require.Error(t, err)
}

func TestLoadDotEnv(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	envPath := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(envPath, []byte("COINLENS_SERVER_HOST=127.0.0.2\n"), 0o600))

	t.Setenv("COINLENS_SERVER_HOST", "")
	require.NoError(t, os.Unsetenv("COINLENS_SERVER_HOST"))

	cfg, err := Load(context.Background(), Options{EnvFiles: []string{filepath.Join(dir, "missing.env"), envPath}})
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.2", cfg.Server.Host)
}

func TestValidateNil(t *testing.T) {
	require.Error(t, Validate(nil))
}
