package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GAMEOPS_URL", "")
	t.Setenv("GAMEOPS_TOKEN_FILE", "")
	t.Setenv("GAMEOPS_POLL_INTERVAL", "")

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "http://127.0.0.1:7777", cfg.APIURL)
	assert.Equal(t, 1500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 20, cfg.PageSize)
	assert.Equal(t, filepath.Join(Dir(), "token"), cfg.TokenFile)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: http://ops.internal:8080\npollInterval: 3s\npageSize: 50\n"), 0644))
	t.Setenv("GAMEOPS_URL", "")
	t.Setenv("GAMEOPS_POLL_INTERVAL", "")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://ops.internal:8080", cfg.APIURL)
	assert.Equal(t, 3*time.Second, cfg.PollInterval)
	assert.Equal(t, 50, cfg.PageSize)

	t.Setenv("GAMEOPS_URL", "http://override:1")
	t.Setenv("GAMEOPS_POLL_INTERVAL", "250ms")
	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, "http://override:1", cfg.APIURL)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
}

func TestLoadRejectsBadInterval(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("GAMEOPS_POLL_INTERVAL", "soon")

	_, err := Load("")
	assert.Error(t, err)
}

func TestLoadRejectsBadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("api: [unclosed"), 0644))

	_, err := Load(path)
	assert.Error(t, err)
}
