package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	configContent := `
server:
  port: 9090
  host: "0.0.0.0"

joomla:
  base_url: "https://cms.example.org/index.php"
  token: "test-token"
  timeout_seconds: 45

redis:
  enabled: true
  addr: "localhost:6380"
  snapshot_ttl_hours: 24

directory:
  refresh_interval_seconds: 120
  default_page_size: 24
`
	err := os.WriteFile(configPath, []byte(configContent), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "0.0.0.0", cfg.Server.Host)

	assert.Equal(t, "https://cms.example.org/index.php", cfg.Joomla.BaseURL)
	assert.Equal(t, "test-token", cfg.Joomla.Token)
	assert.Equal(t, 45*time.Second, cfg.Joomla.Timeout())
	// Component not set in file, should default
	assert.Equal(t, "com_bie_membersf", cfg.Joomla.Component)

	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "localhost:6380", cfg.Redis.Addr)
	assert.Equal(t, 24*time.Hour, cfg.Redis.SnapshotTTL())

	assert.Equal(t, 2*time.Minute, cfg.Directory.RefreshInterval())
	assert.Equal(t, 24, cfg.Directory.DefaultPageSize)
}

func TestLoadDefaults(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("joomla:\n  base_url: \"http://cms.local\"\n"), 0644)
	require.NoError(t, err)

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "localhost", cfg.Server.Host)
	assert.Equal(t, 30*time.Second, cfg.Joomla.Timeout())
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, 72*time.Hour, cfg.Redis.SnapshotTTL())
	assert.Equal(t, 5*time.Minute, cfg.Directory.RefreshInterval())
	assert.Equal(t, 12, cfg.Directory.DefaultPageSize)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	assert.Error(t, err)
}

func TestLoadFromEnvOverrides(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")

	err := os.WriteFile(configPath, []byte("joomla:\n  base_url: \"http://cms.local\"\n"), 0644)
	require.NoError(t, err)

	t.Setenv("JOOMLA_BASE_URL", "https://cms.override.org/index.php")
	t.Setenv("JOOMLA_API_TOKEN", "env-token")
	t.Setenv("REDIS_ADDR", "redis.override:6379")

	cfg, err := LoadFromEnv(configPath)
	require.NoError(t, err)

	assert.Equal(t, "https://cms.override.org/index.php", cfg.Joomla.BaseURL)
	assert.Equal(t, "env-token", cfg.Joomla.Token)
	assert.Equal(t, "redis.override:6379", cfg.Redis.Addr)
	assert.True(t, cfg.Redis.Enabled)
}
