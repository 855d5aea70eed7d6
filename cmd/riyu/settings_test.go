package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cyberwithvishal/riyu/pkg/config"
)

const testManifest = `apiVersion: riyu.cyberwithvishal.dev/v1alpha1
kind: RiyuConfig
metadata:
  name: test
spec:
  gemini:
    voice: Kore
  store:
    backend: memory
  agent: cyber-blue
`

func writeManifest(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "riyu.yaml")
	require.NoError(t, os.WriteFile(path, []byte(testManifest), 0o600))
	return path
}

func clearKeyEnv(t *testing.T) {
	t.Helper()
	for _, name := range apiKeyEnv {
		t.Setenv(name, "")
	}
}

func TestLoadSettingsDefaults(t *testing.T) {
	clearKeyEnv(t)
	cfg, err := loadSettings(configureViper(viper.New()))
	require.NoError(t, err)

	assert.Equal(t, config.StoreFile, cfg.Spec.Store.Backend)
	assert.Equal(t, config.DefaultAgent, cfg.Spec.Agent)
	assert.Empty(t, cfg.Spec.Gemini.APIKey)
}

func TestLoadSettingsFromManifest(t *testing.T) {
	clearKeyEnv(t)
	v := configureViper(viper.New())
	v.Set(flagConfig, writeManifest(t))

	cfg, err := loadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "Kore", cfg.Spec.Gemini.Voice)
	assert.Equal(t, config.StoreMemory, cfg.Spec.Store.Backend)
	assert.Equal(t, "cyber-blue", cfg.Spec.Agent)
}

func TestLoadSettingsEnvOverridesManifest(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("RIYU_AGENT", "code-master")
	t.Setenv("RIYU_GEMINI_VOICE", "Charon")
	t.Setenv("RIYU_SERVER_ADDR", ":9100")
	t.Setenv("RIYU_FLUSH_ON_INTERRUPT", "false")

	v := configureViper(viper.New())
	v.Set(flagConfig, writeManifest(t))

	cfg, err := loadSettings(v)
	require.NoError(t, err)
	assert.Equal(t, "code-master", cfg.Spec.Agent)
	assert.Equal(t, "Charon", cfg.Spec.Gemini.Voice)
	assert.Equal(t, ":9100", cfg.Spec.Server.Addr)
	assert.False(t, cfg.Spec.ShouldFlushOnInterrupt())
}

func TestLoadSettingsInvalidOverride(t *testing.T) {
	clearKeyEnv(t)
	t.Setenv("RIYU_STORE_BACKEND", "etcd")

	_, err := loadSettings(configureViper(viper.New()))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.backend")
}

func TestLoadSettingsMissingManifest(t *testing.T) {
	v := configureViper(viper.New())
	v.Set(flagConfig, filepath.Join(t.TempDir(), "absent.yaml"))

	_, err := loadSettings(v)
	assert.Error(t, err)
}

func TestAPIKeyFallsBackToAPIKeyVariable(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	t.Setenv("API_KEY", "from-api-key")

	cfg, err := loadSettings(configureViper(viper.New()))
	require.NoError(t, err)
	assert.Equal(t, "from-api-key", cfg.Spec.Gemini.APIKey)

	t.Setenv("GEMINI_API_KEY", "from-gemini")
	cfg, err = loadSettings(configureViper(viper.New()))
	require.NoError(t, err)
	assert.Equal(t, "from-gemini", cfg.Spec.Gemini.APIKey)
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	assert.NoError(t, loadDotEnv(filepath.Join(dir, "missing.env")))

	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("RIYU_DOTENV_PROBE=loaded\n"), 0o600))
	t.Setenv("RIYU_DOTENV_PROBE", "")
	require.NoError(t, os.Unsetenv("RIYU_DOTENV_PROBE"))

	require.NoError(t, loadDotEnv(path))
	assert.Equal(t, "loaded", os.Getenv("RIYU_DOTENV_PROBE"))
}
