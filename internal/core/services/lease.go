package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docspace/internal/core/domain"
	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

const (
	defaultLeaseTTL     = 30 * time.Second
	defaultLeasePoll    = 25 * time.Millisecond
	maxLeasePollBackoff = time.Second
)

// errLeaseLost is the cancellation cause of a section whose lease could not be renewed
var errLeaseLost = errors.New("lease lost")

// lease serializes critical sections on a DistributedLock.
// A nil lock runs the section unguarded.
type lease struct {
	lock   driven.DistributedLock
	ttl    time.Duration
	poll   time.Duration
	logger *slog.Logger
}

func newLease(lock driven.DistributedLock, ttl, poll time.Duration, logger *slog.Logger) *lease {
	if ttl <= 0 {
		ttl = defaultLeaseTTL
	}
	if poll <= 0 {
		poll = defaultLeasePoll
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &lease{lock: lock, ttl: ttl, poll: poll, logger: logger}
}

// publishLeaseName scopes a publish to one (space, slug) pair
func publishLeaseName(spaceID, slug string) string {
	return "publish:" + spaceID + ":" + slug
}

// treeLeaseName scopes structural mutations to one space
func treeLeaseName(spaceID string) string {
	return "tree:" + spaceID
}

// with waits for the named lock, runs fn while renewing the lease, then releases.
// Waiting stops with ctx.Err() when the context is done. If a renewal fails, fn's
// context is cancelled and a failing fn is reported as a ConflictError.
func (l *lease) with(ctx context.Context, name string, fn func(ctx context.Context) error) error {
	if l.lock == nil {
		return fn(ctx)
	}

	token := uuid.NewString()
	wait := l.poll
	for {
		acquired, err := l.lock.Acquire(ctx, name, token, l.ttl)
		if err != nil {
			return fmt.Errorf("acquire lease %s: %w", name, err)
		}
		if acquired {
			break
		}
		l.logger.Debug("waiting for lease", "name", name, "retry_in", wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
		if wait *= 2; wait > maxLeasePollBackoff {
			wait = maxLeasePollBackoff
		}
	}

	sectionCtx, cancel := context.WithCancelCause(ctx)
	heartbeatDone := make(chan struct{})
	go l.heartbeat(sectionCtx, name, token, cancel, heartbeatDone)

	defer func() {
		cancel(nil)
		<-heartbeatDone
		if err := l.lock.Release(context.WithoutCancel(ctx), name, token); err != nil {
			l.logger.Warn("failed to release lease", "name", name, "error", err)
		}
	}()

	err := fn(sectionCtx)
	if err != nil && errors.Is(context.Cause(sectionCtx), errLeaseLost) {
		return &domain.ConflictError{
			Message:      fmt.Sprintf("lease %s was lost before the operation finished", name),
			ResourceType: "lease",
			ResourceID:   name,
		}
	}
	return err
}

// heartbeat renews the lease every third of its TTL until ctx is done
func (l *lease) heartbeat(ctx context.Context, name, token string, lost context.CancelCauseFunc, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(max(l.ttl/3, time.Millisecond))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := l.lock.Extend(ctx, name, token, l.ttl); err != nil {
				if ctx.Err() != nil {
					return
				}
				l.logger.Warn("lease lost", "name", name, "error", err)
				lost(fmt.Errorf("%w: %s: %v", errLeaseLost, name, err))
				return
			}
		}
	}
}
