package worker

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLockManager(t *testing.T, timeout time.Duration) *LockManager {
	t.Helper()
	return NewLockManager(filepath.Join(t.TempDir(), "sweep.lock"), timeout, "test")
}

func TestAcquireAndReleaseLock(t *testing.T) {
	lm := newTestLockManager(t, time.Minute)

	lock, err := lm.AcquireLock("worker-a")
	require.NoError(t, err)
	assert.Equal(t, "worker-a", lock.Owner)
	assert.Equal(t, "test", lock.Environment)

	require.NoError(t, lm.ReleaseLock(lock))

	// Released lock is free for the next owner.
	_, err = lm.AcquireLock("worker-b")
	assert.NoError(t, err)
}

func TestLockDeniedWhileHeld(t *testing.T) {
	lm := newTestLockManager(t, time.Minute)

	_, err := lm.AcquireLock("worker-a")
	require.NoError(t, err)

	_, err = lm.AcquireLock("worker-b")
	assert.ErrorContains(t, err, "lock held by worker-a")
}

func TestOwnerExtendsOwnLock(t *testing.T) {
	lm := newTestLockManager(t, time.Minute)

	first, err := lm.AcquireLock("worker-a")
	require.NoError(t, err)

	extended, err := lm.AcquireLock("worker-a")
	require.NoError(t, err)
	assert.Equal(t, first.ID, extended.ID)
	assert.False(t, extended.ExpiresAt.Before(first.ExpiresAt))
}

func TestExpiredLockIsReclaimed(t *testing.T) {
	lm := newTestLockManager(t, -time.Second)

	_, err := lm.AcquireLock("worker-a")
	require.NoError(t, err)

	// The negative timeout expired worker-a's lock immediately.
	lm.LockTimeout = time.Minute
	lock, err := lm.AcquireLock("worker-b")
	require.NoError(t, err)
	assert.Equal(t, "worker-b", lock.Owner)
}

func TestCleanupExpiredLocks(t *testing.T) {
	lm := newTestLockManager(t, -time.Second)

	_, err := lm.AcquireLock("worker-a")
	require.NoError(t, err)
	require.NoError(t, lm.CleanupExpiredLocks())

	_, err = lm.readLockFile()
	assert.Error(t, err)
}

func TestReleaseLockOwnedByAnother(t *testing.T) {
	lm := newTestLockManager(t, time.Minute)

	lock, err := lm.AcquireLock("worker-a")
	require.NoError(t, err)

	err = lm.ReleaseLock(&LockInfo{Owner: "worker-b"})
	assert.ErrorContains(t, err, "cannot release lock owned by worker-a")

	require.NoError(t, lm.ReleaseLock(lock))
}
