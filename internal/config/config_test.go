package config

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSaveToAndLoadFrom(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg", "config.toml")

	cfg := Default()
	cfg.Pages = []string{"https://example.com/a", "https://example.com/b"}
	cfg.ReadState.Backend = BackendRedis
	cfg.ReadState.RedisURL = "redis://localhost:6379/2"
	require.NoError(t, cfg.SaveTo(path))

	loaded, err := LoadFrom(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestLoadFrom_PartialFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	content := `
pages = ["https://example.com/post"]

[read_state]
storage_key = "custom_key"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))

	cfg, err := LoadFrom(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"https://example.com/post"}, cfg.Pages)
	assert.Equal(t, "custom_key", cfg.ReadState.StorageKey)
	assert.Equal(t, BackendSQLite, cfg.ReadState.Backend)
	assert.True(t, cfg.ReadState.MarkReadOnAnalyze)
	assert.Equal(t, 500, cfg.Scraping.MaxContentLength)
}

func TestLoadFrom_Missing(t *testing.T) {
	_, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
	require.Error(t, err)
	assert.True(t, os.IsNotExist(err))
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("THREADREADER_REDIS_URL", "redis://cache:6379/0")
	t.Setenv("THREADREADER_SMTP_PASS", "hunter2")
	t.Setenv("THREADREADER_LOG_LEVEL", "debug")

	cfg := Default()
	cfg.ApplyEnv()

	assert.Equal(t, "redis://cache:6379/0", cfg.ReadState.RedisURL)
	assert.Equal(t, "hunter2", cfg.Email.SMTPPass)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestDatabasePath(t *testing.T) {
	cfg := Default()
	cfg.ReadState.DatabasePath = "/tmp/x.db"

	path, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", path)
}

func TestOpenTarget(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cache := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", cache)

	path, err := OpenTarget("config")
	require.NoError(t, err)
	want, err := ConfigPath()
	require.NoError(t, err)
	assert.Equal(t, want, path)

	_, err = OpenTarget("logs")
	assert.Error(t, err)
}

func TestOpenTarget_CreatesCacheDir(t *testing.T) {
	if runtime.GOOS != "linux" {
		t.Skip("XDG_CACHE_HOME only drives os.UserCacheDir on Linux")
	}
	t.Setenv("XDG_CACHE_HOME", t.TempDir())

	path, err := OpenTarget("cache")
	require.NoError(t, err)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	assert.Equal(t, "threadreader", filepath.Base(path))
}
