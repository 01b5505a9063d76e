package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileLock_LockUnlock(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	lock := NewFileLock(dir)
	assert.Equal(t, filepath.Join(dir, LockFileName), lock.Path())

	require.NoError(t, lock.Lock())
	assert.True(t, lock.IsLocked())
	assert.FileExists(t, lock.Path())

	require.NoError(t, lock.Unlock())
	assert.False(t, lock.IsLocked())

	// Unlocking twice is a no-op
	assert.NoError(t, lock.Unlock())
}

func TestFileLock_TryLockContended(t *testing.T) {
	// Given: one holder of the lock
	dir := t.TempDir()
	holder := NewFileLock(dir)
	require.NoError(t, holder.Lock())
	defer holder.Unlock()

	// When: a second lock on the same file tries to acquire
	other := NewFileLock(dir)
	acquired, err := other.TryLock()

	// Then: it fails without blocking
	require.NoError(t, err)
	assert.False(t, acquired)
	assert.False(t, other.IsLocked())
}

func TestFileLock_TryLockFree(t *testing.T) {
	lock := NewFileLock(t.TempDir())

	acquired, err := lock.TryLock()
	require.NoError(t, err)
	assert.True(t, acquired)
	require.NoError(t, lock.Unlock())
}
