package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "http://export.arxiv.org/api/query", cfg.Source.BaseURL)
	assert.Equal(t, 100, cfg.Source.PageSize)
	assert.Equal(t, 3*time.Second, cfg.Source.RequestInterval)

	assert.Equal(t, "day", cfg.Harvest.Granularity)
	assert.Equal(t, 1000, cfg.Harvest.DayMaxResults)
	assert.Equal(t, 5000, cfg.Harvest.ChunkMaxResults)
	assert.Equal(t, 3*time.Second, cfg.Harvest.InterUnitDelayMin)
	assert.Equal(t, 5*time.Second, cfg.Harvest.InterUnitDelayMax)

	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
	assert.Equal(t, 60*time.Second, cfg.Retry.Backoff)

	assert.Equal(t, "file", cfg.Storage.Backend)
	assert.Equal(t, "info", cfg.Logging.Level)

	require.NoError(t, cfg.Validate())
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PAPERHARVEST_CHECKPOINT_DIR", "/tmp/ckpt")
	t.Setenv("PAPERHARVEST_MAX_ATTEMPTS", "4")
	t.Setenv("PAPERHARVEST_RETRY_BACKOFF", "90s")
	t.Setenv("PAPERHARVEST_STORAGE_BACKEND", "redis")
	t.Setenv("PAPERHARVEST_LOG_LEVEL", "debug")

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromEnv())

	assert.Equal(t, "/tmp/ckpt", cfg.Storage.CheckpointDir)
	assert.Equal(t, 4, cfg.Retry.MaxAttempts)
	assert.Equal(t, 90*time.Second, cfg.Retry.Backoff)
	assert.Equal(t, "redis", cfg.Storage.Backend)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadFromEnvReportsBadValues(t *testing.T) {
	t.Setenv("PAPERHARVEST_MAX_ATTEMPTS", "two")
	t.Setenv("PAPERHARVEST_RETRY_BACKOFF", "soon")

	cfg := DefaultConfig()
	err := cfg.LoadFromEnv()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAPERHARVEST_MAX_ATTEMPTS")
	assert.Contains(t, err.Error(), "PAPERHARVEST_RETRY_BACKOFF")
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
harvest:
  granularity: chunk
  chunk_days: 14
  inter_unit_delay_min: 1s
  inter_unit_delay_max: 2s
retry:
  backoff: 30s
storage:
  checkpoint_dir: /data/scraping
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg := DefaultConfig()
	require.NoError(t, cfg.LoadFromFile(path))

	assert.Equal(t, "chunk", cfg.Harvest.Granularity)
	assert.Equal(t, 14, cfg.Harvest.ChunkDays)
	assert.Equal(t, time.Second, cfg.Harvest.InterUnitDelayMin)
	assert.Equal(t, 30*time.Second, cfg.Retry.Backoff)
	assert.Equal(t, "/data/scraping", cfg.Storage.CheckpointDir)
	// untouched keys keep their defaults
	assert.Equal(t, 2, cfg.Retry.MaxAttempts)
}

func TestLoadFromFileMissing(t *testing.T) {
	cfg := DefaultConfig()
	err := cfg.LoadFromFile(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"bad granularity", func(c *Config) { c.Harvest.Granularity = "week" }, "granularity"},
		{"chunk too small", func(c *Config) { c.Harvest.ChunkDays = 1 }, "chunk days"},
		{"zero attempts", func(c *Config) { c.Retry.MaxAttempts = 0 }, "max attempts"},
		{"inverted delays", func(c *Config) { c.Harvest.InterUnitDelayMax = time.Second }, "inter-unit delay"},
		{"unknown backend", func(c *Config) { c.Storage.Backend = "s3" }, "storage backend"},
		{"relative url", func(c *Config) { c.Source.BaseURL = "export.arxiv.org" }, "absolute URL"},
		{"log level", func(c *Config) { c.Logging.Level = "verbose" }, "log level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateJoinsErrors(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Retry.MaxAttempts = 0
	cfg.Storage.OutputDir = ""

	err := cfg.Validate()
	require.Error(t, err)
	assert.Len(t, strings.Split(err.Error(), "\n"), 2)
}

func TestMergeCommandLineFlags(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MergeCommandLineFlags(map[string]interface{}{
		"log-level":  "warn",
		"chunk-days": 10,
		"output-dir": "",
		"no-color":   true,
	})

	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "chunk", cfg.Harvest.Granularity)
	assert.Equal(t, 10, cfg.Harvest.ChunkDays)
	assert.Equal(t, "./public/data", cfg.Storage.OutputDir)
	assert.True(t, cfg.Logging.NoColor)
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "config.yaml")
	cfg := DefaultConfig()
	cfg.Harvest.ChunkDays = 9

	require.NoError(t, cfg.Save(path))

	loaded := DefaultConfig()
	require.NoError(t, loaded.LoadFromFile(path))
	assert.Equal(t, cfg, loaded)
}

func TestLoadPrecedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logging:\n  level: error\nretry:\n  max_attempts: 5\n"), 0644))

	t.Setenv("HOME", dir)
	t.Setenv("PAPERHARVEST_LOG_LEVEL", "warn")

	cfg, err := Load(path, map[string]interface{}{"log-level": "debug"})
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
}
