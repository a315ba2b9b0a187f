package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*Lock)(nil)

type heldLease struct {
	token  string
	expiry time.Time
}

// Lock is a process-local DistributedLock for single-instance deployments.
// Each lease remembers the token that took it; only that token may release or extend it.
type Lock struct {
	mu     sync.Mutex
	leases map[string]heldLease
	now    func() time.Time
}

// NewLock creates a process-local lock
func NewLock() *Lock {
	return &Lock{leases: make(map[string]heldLease), now: time.Now}
}

func (l *Lock) Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.leases[name]; ok && l.now().Before(held.expiry) {
		return false, nil
	}
	l.leases[name] = heldLease{token: token, expiry: l.now().Add(ttl)}
	return true, nil
}

// Release is a no-op unless token holds the lease
func (l *Lock) Release(ctx context.Context, name, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if held, ok := l.leases[name]; ok && held.token == token {
		delete(l.leases, name)
	}
	return nil
}

func (l *Lock) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	held, ok := l.leases[name]
	if !ok || held.token != token || !l.now().Before(held.expiry) {
		return fmt.Errorf("lock %s not held", name)
	}
	held.expiry = l.now().Add(ttl)
	l.leases[name] = held
	return nil
}

func (l *Lock) Ping(ctx context.Context) error {
	return nil
}
