package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven/mocks"
)

func TestLease_RunsAndReleases(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	l := newLease(lock, time.Minute, time.Millisecond, discardLogger())

	ran := false
	err := l.with(context.Background(), "tree:s1", func(ctx context.Context) error {
		ran = true
		assert.True(t, lock.IsHeld("tree:s1"))
		return nil
	})
	require.NoError(t, err)
	assert.True(t, ran)
	assert.False(t, lock.IsHeld("tree:s1"))
}

func TestLease_ReleasesOnError(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	l := newLease(lock, time.Minute, time.Millisecond, discardLogger())

	boom := errors.New("boom")
	err := l.with(context.Background(), "tree:s1", func(ctx context.Context) error { return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, lock.IsHeld("tree:s1"))
}

func TestLease_AcquireError(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.AcquireFn = func(name string, ttl time.Duration) (bool, error) {
		return false, errors.New("backend down")
	}
	l := newLease(lock, time.Minute, time.Millisecond, discardLogger())

	err := l.with(context.Background(), "tree:s1", func(ctx context.Context) error {
		t.Fatal("section must not run")
		return nil
	})
	assert.ErrorContains(t, err, "backend down")
}

func TestLease_NilLockRunsUnguarded(t *testing.T) {
	l := newLease(nil, 0, 0, nil)
	called := false
	require.NoError(t, l.with(context.Background(), "x", func(ctx context.Context) error {
		called = true
		return nil
	}))
	assert.True(t, called)
	assert.Equal(t, defaultLeaseTTL, l.ttl)
}

func TestLeaseNames(t *testing.T) {
	assert.Equal(t, "publish:s1:guide", publishLeaseName("s1", "guide"))
	assert.Equal(t, "tree:s1", treeLeaseName("s1"))
}

func TestLease_RenewsWhileSectionRuns(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	l := newLease(lock, 30*time.Millisecond, time.Millisecond, discardLogger())

	err := l.with(context.Background(), "publish:s1:guide", func(ctx context.Context) error {
		// Run well past the TTL; the heartbeat must keep the lease alive
		deadline := time.Now().Add(150 * time.Millisecond)
		for time.Now().Before(deadline) {
			if !lock.IsHeld("publish:s1:guide") {
				return errors.New("lease expired during section")
			}
			time.Sleep(5 * time.Millisecond)
		}
		return nil
	})
	require.NoError(t, err)
	assert.Greater(t, lock.Extended("publish:s1:guide"), 0)
	assert.False(t, lock.IsHeld("publish:s1:guide"))
}

func TestLease_LostLeaseCancelsSection(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	lock.ExtendFn = func(name string, ttl time.Duration) error {
		return errors.New("lock " + name + " not held")
	}
	l := newLease(lock, 15*time.Millisecond, time.Millisecond, discardLogger())

	err := l.with(context.Background(), "publish:s1:guide", func(ctx context.Context) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second):
			return nil
		}
	})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestLease_StaleHolderCannotReleaseNewHolder(t *testing.T) {
	lock := mocks.NewMockDistributedLock()
	ctx := context.Background()

	ok, err := lock.Acquire(ctx, "tree:s1", "first", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, lock.Release(ctx, "tree:s1", "first"))

	ok, err = lock.Acquire(ctx, "tree:s1", "second", time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, lock.Release(ctx, "tree:s1", "first"))
	assert.True(t, lock.IsHeld("tree:s1"))
	assert.Error(t, lock.Extend(ctx, "tree:s1", "first", time.Minute))
}
