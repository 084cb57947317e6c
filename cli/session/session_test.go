package session

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "token")
	store := FileStore{Path: path}

	tok, err := store.Load()
	require.NoError(t, err)
	assert.Empty(t, tok, "missing file means no token")

	require.NoError(t, store.Save("abc.def"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	tok, err = store.Load()
	require.NoError(t, err)
	assert.Equal(t, "abc.def", tok)

	require.NoError(t, store.Clear())
	require.NoError(t, store.Clear(), "clearing twice is fine")
}

func TestSessionLoadsStoredToken(t *testing.T) {
	store := &MemoryStore{}
	require.NoError(t, store.Save("persisted"))

	s, err := New(store)
	require.NoError(t, err)
	assert.True(t, s.Authenticated())
	assert.Equal(t, "persisted", s.Token())
}

func TestExpireNotifiesSubscribers(t *testing.T) {
	store := &MemoryStore{}
	s, err := New(store)
	require.NoError(t, err)
	require.NoError(t, s.SetToken("t1"))

	var calls int
	unsub := s.OnExpired(func() { calls++ })

	require.NoError(t, s.Expire())
	assert.Equal(t, 1, calls)
	assert.False(t, s.Authenticated())
	stored, _ := store.Load()
	assert.Empty(t, stored)

	unsub()
	require.NoError(t, s.Expire())
	assert.Equal(t, 1, calls, "unsubscribed callback must not run")
}

func TestClearDoesNotNotify(t *testing.T) {
	s, err := New(&MemoryStore{})
	require.NoError(t, err)
	require.NoError(t, s.SetToken("t1"))

	notified := false
	s.OnExpired(func() { notified = true })
	require.NoError(t, s.Clear())

	assert.False(t, notified)
	assert.Empty(t, s.Token())
}
