package driven

import (
	"context"
	"time"
)

// DistributedLock provides named leases for serializing publish and tree mutations across instances.
//
// Every call carries the holder token minted by the caller for one acquisition, so a holder
// whose lease expired can neither release nor extend a lease someone else now holds.
type DistributedLock interface {
	// Acquire attempts to acquire a named lock with the given TTL on behalf of token.
	// Returns true if the lock was acquired, false if already held by another holder.
	// The lock will automatically expire after TTL (implementation dependent).
	Acquire(ctx context.Context, name, token string, ttl time.Duration) (acquired bool, err error)

	// Release releases a named lock if token still holds it.
	// Safe to call even if the lock is not held or has expired.
	Release(ctx context.Context, name, token string) error

	// Extend extends the TTL of a lock token currently holds.
	// Returns error if the lock is not held by token.
	// Note: PostgreSQL advisory locks have no TTL, so Extend only verifies ownership there.
	Extend(ctx context.Context, name, token string, ttl time.Duration) error

	// Ping checks if the lock backend is healthy.
	Ping(ctx context.Context) error
}
