package auth

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileStore(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	return newStoreWithMirror(newFileMirror(dir)), dir
}

func TestStoreSetGet(t *testing.T) {
	store, _ := fileStore(t)

	_, ok := store.Get()
	assert.False(t, ok, "fresh store should be empty")

	store.Set("tok-1")
	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "tok-1", got)

	store.Set("tok-2")
	got, _ = store.Get()
	assert.Equal(t, "tok-2", got, "Set replaces the credential")
}

func TestStoreRoundTripPersistence(t *testing.T) {
	store, dir := fileStore(t)
	store.Set("persisted-token")

	// Verify file permissions
	info, err := os.Stat(filepath.Join(dir, "credentials.json"))
	require.NoError(t, err, "credentials file not created")
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	// A fresh store over the same directory simulates a new process.
	fresh := newStoreWithMirror(newFileMirror(dir))
	_, ok := fresh.Get()
	assert.False(t, ok, "Get must not perform I/O")

	got, ok := fresh.Hydrate()
	require.True(t, ok, "Hydrate should find the mirrored credential")
	assert.Equal(t, "persisted-token", got)

	got, ok = fresh.Get()
	require.True(t, ok)
	assert.Equal(t, "persisted-token", got)
}

func TestStoreClearThenHydrateEmpty(t *testing.T) {
	store, dir := fileStore(t)
	store.Set("short-lived")
	store.Clear()

	_, ok := store.Get()
	assert.False(t, ok)

	fresh := newStoreWithMirror(newFileMirror(dir))
	_, ok = fresh.Hydrate()
	assert.False(t, ok, "Hydrate after Clear should find nothing")
}

func TestStoreHydrateIdempotent(t *testing.T) {
	store, dir := fileStore(t)
	store.Set("tok")

	fresh := newStoreWithMirror(newFileMirror(dir))
	for i := 0; i < 3; i++ {
		got, ok := fresh.Hydrate()
		require.True(t, ok)
		assert.Equal(t, "tok", got)
	}
}

func TestStoreHydrateKeepsMemoryWhenMirrorEmpty(t *testing.T) {
	store, _ := fileStore(t)
	store.mu.Lock()
	store.token = "memory-only"
	store.mu.Unlock()

	got, ok := store.Hydrate()
	require.True(t, ok)
	assert.Equal(t, "memory-only", got)
}

// brokenMirror fails every durable operation.
type brokenMirror struct{}

func (brokenMirror) load() (string, error) { return "", errors.New("storage denied") }
func (brokenMirror) save(string) error     { return errors.New("storage denied") }
func (brokenMirror) remove() error         { return errors.New("storage denied") }
func (brokenMirror) filePath() string      { return "" }

func TestStorePersistenceFailureIsSilent(t *testing.T) {
	store := newStoreWithMirror(brokenMirror{})

	// Set must not fail or lose the in-memory value when persistence fails.
	store.Set("survives")
	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "survives", got)

	store.Clear()
	_, ok = store.Get()
	assert.False(t, ok)
}

func TestWatchRehydratesOnExternalRotation(t *testing.T) {
	store, dir := fileStore(t)
	store.Set("old-token")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changed, err := store.Watch(ctx)
	require.NoError(t, err)

	// Another process rotates the credential.
	other := newStoreWithMirror(newFileMirror(dir))
	other.Set("rotated-token")

	select {
	case <-changed:
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not observe the rotation")
	}

	got, ok := store.Get()
	require.True(t, ok)
	assert.Equal(t, "rotated-token", got)
}

func TestWatchUnsupportedForKeyring(t *testing.T) {
	store := newStoreWithMirror(keyringMirror{})
	_, err := store.Watch(context.Background())
	assert.ErrorIs(t, err, ErrWatchUnsupported)
}
