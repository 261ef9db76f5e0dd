package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8787", cfg.Server.Address)
	assert.Equal(t, "cache/videos", cfg.Paths.VideoCache)
	assert.Equal(t, "cache/images", cfg.Paths.ImageCache)
	assert.Equal(t, 5, cfg.FileStore.PollIntervalSec)
	assert.Equal(t, 60, cfg.FileStore.PollAttempts)
	assert.Equal(t, "yt-dlp", cfg.Download.Binary)
	assert.Equal(t, 7, cfg.Retention.Days)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := []byte("server:\n  address: \":9000\"\nretention:\n  days: 14\nfile_store:\n  poll_attempts: 10\n")
	require.NoError(t, os.WriteFile(path, data, 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 14, cfg.Retention.Days)
	assert.Equal(t, 10, cfg.FileStore.PollAttempts)
	// untouched sections still get defaults
	assert.Equal(t, "gemini-2.0-flash", cfg.Generate.Model)
}

func TestRetentionEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("retention:\n  days: 14\n"), 0644))
	t.Setenv("RETENTION_DAYS", "3")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 3, cfg.Retention.Days)
}

func TestRetentionEnvInvalidIgnored(t *testing.T) {
	t.Setenv("RETENTION_DAYS", "soon")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.Retention.Days)
}
