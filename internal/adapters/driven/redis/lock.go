package redis

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/custodia-labs/docspace/internal/core/ports/driven"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Verify interface compliance
var _ driven.DistributedLock = (*Lock)(nil)

const lockPrefix = "docspace:lease:"

// Lock serializes publish and tree mutations across instances.
// Keys hold "<ownerID>/<token>" so only the acquiring call can release or extend a lease.
type Lock struct {
	client  redis.UniversalClient
	ownerID string
}

// NewLock creates a Redis-backed lease with a fresh owner token
func NewLock(client redis.UniversalClient) *Lock {
	hostname, _ := os.Hostname()
	return &Lock{
		client:  client,
		ownerID: fmt.Sprintf("%s:%d:%s", hostname, os.Getpid(), uuid.NewString()),
	}
}

func (l *Lock) value(token string) string {
	return l.ownerID + "/" + token
}

// Acquire takes the lease with SET NX PX. Returns false while anyone holds it.
func (l *Lock) Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	ok, err := l.client.SetNX(ctx, lockPrefix+name, l.value(token), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	return ok, nil
}

// compareAndDelete removes KEYS[1] only when it still holds ARGV[1]
var compareAndDelete = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("del", KEYS[1])
	end
	return 0
`)

// Release drops the lease if token still owns it
func (l *Lock) Release(ctx context.Context, name, token string) error {
	err := compareAndDelete.Run(ctx, l.client, []string{lockPrefix + name}, l.value(token)).Err()
	if err != nil && !errors.Is(err, redis.Nil) {
		return fmt.Errorf("release lease %s: %w", name, err)
	}
	return nil
}

var compareAndExpire = redis.NewScript(`
	if redis.call("get", KEYS[1]) == ARGV[1] then
		return redis.call("pexpire", KEYS[1], ARGV[2])
	end
	return 0
`)

// Extend pushes the expiry of a held lease
func (l *Lock) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	n, err := compareAndExpire.Run(ctx, l.client, []string{lockPrefix + name}, l.value(token), ttl.Milliseconds()).Int64()
	if err != nil {
		return fmt.Errorf("extend lease %s: %w", name, err)
	}
	if n == 0 {
		return fmt.Errorf("lease %s not held by %s", name, l.value(token))
	}
	return nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return l.client.Ping(ctx).Err()
}

// OwnerID identifies this instance in lease values
func (l *Lock) OwnerID() string {
	return l.ownerID
}
