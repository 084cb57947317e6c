package model

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSeed(t *testing.T) {
	seed := DefaultSeed()
	assert.Len(t, seed.Accounts, 1)
	assert.Len(t, seed.Users, 5)
	require.NotNil(t, seed.Pending)
	assert.True(t, seed.Pending.HasSchemaChange)
	for _, key := range []string{"upload", "build", "restart"} {
		assert.NotEmpty(t, seed.Logs[key], key)
	}
}

func TestLoadSeedOverlaysDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
accounts:
  - username: ops
    password: hunter22
    name: 值班运维
failStep: restart
pending: null
`), 0o600))

	seed, err := LoadSeed(path)
	require.NoError(t, err)
	require.Len(t, seed.Accounts, 1)
	assert.Equal(t, "ops", seed.Accounts[0].Username)
	assert.Equal(t, "restart", seed.FailStep)
	assert.Nil(t, seed.Pending)
	assert.Len(t, seed.Users, 5, "untouched sections keep their defaults")
	assert.NotEmpty(t, seed.Logs["upload"])
}

func TestLoadSeedErrors(t *testing.T) {
	_, err := LoadSeed(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("users: [unterminated"), 0o600))
	_, err = LoadSeed(path)
	assert.Error(t, err)
}
