package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "https://api.perplexity.ai", cfg.Perplexity.BaseURL)
	assert.Equal(t, "sonar-pro", cfg.Perplexity.Model)
	assert.Equal(t, 24, cfg.Cache.TTLHours)
	assert.Equal(t, 50, cfg.Merge.MinNarrativeChars)
	assert.Equal(t, 20, cfg.Pipeline.CooldownEvery)
	assert.Equal(t, 60, cfg.Pipeline.CooldownSecs)
	assert.Equal(t, 60, cfg.Pipeline.CooldownCeilingSecs)
	assert.Equal(t, 500, cfg.Pipeline.CourtesyDelayMS)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("CATALOG_LOG_LEVEL", "debug")
	t.Setenv("CATALOG_STORE_DRIVER", "postgres")
	t.Setenv("CATALOG_PIPELINE_COOLDOWN_EVERY", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 5, cfg.Pipeline.CooldownEvery)
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	content := []byte(`
store:
  driver: postgres
  database_url: postgres://localhost/catalog
pipeline:
  cooldown_every: 10
`)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), content, 0o644))
	t.Chdir(dir)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "postgres://localhost/catalog", cfg.Store.DatabaseURL)
	assert.Equal(t, 10, cfg.Pipeline.CooldownEvery)
	// Untouched keys keep their defaults.
	assert.Equal(t, 60, cfg.Pipeline.CooldownSecs)
}

func TestInitLoggerRejectsBadLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "shouty", Format: "json"})
	require.Error(t, err)
}

func TestInitLogger(t *testing.T) {
	require.NoError(t, InitLogger(LogConfig{Level: "info", Format: "console"}))
}
