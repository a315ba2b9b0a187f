package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

// Verify interface compliance
var _ driven.DistributedLock = (*AdvisoryLock)(nil)

// AdvisoryLock implements DistributedLock with session-level advisory locks.
//
// Advisory locks belong to the connection that took them, so each held name
// pins one pooled connection until Release. TTL is not enforced; a crashed
// instance frees its leases when its connections drop.
type AdvisoryLock struct {
	db *DB

	mu    sync.Mutex
	conns map[string]pinnedLease
}

// pinnedLease is a held advisory lock: its pinned connection and holder token
type pinnedLease struct {
	conn  *sql.Conn
	token string
}

// NewAdvisoryLock creates a PostgreSQL advisory lock adapter
func NewAdvisoryLock(db *DB) *AdvisoryLock {
	return &AdvisoryLock{db: db, conns: make(map[string]pinnedLease)}
}

// lockKey maps a lease name to the 64-bit key space of pg advisory locks
func lockKey(name string) int64 {
	h := fnv.New64a()
	h.Write([]byte("docspace:lease:" + name))
	return int64(h.Sum64())
}

func (l *AdvisoryLock) Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, held := l.conns[name]; held {
		return false, nil
	}

	conn, err := l.db.Conn(ctx)
	if err != nil {
		return false, fmt.Errorf("acquire lease %s: %w", name, err)
	}

	var acquired bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_try_advisory_lock($1)", lockKey(name)).Scan(&acquired); err != nil {
		conn.Close()
		return false, fmt.Errorf("acquire lease %s: %w", name, err)
	}
	if !acquired {
		conn.Close()
		return false, nil
	}

	l.conns[name] = pinnedLease{conn: conn, token: token}
	return true, nil
}

// Release unlocks and returns the pinned connection to the pool.
// Releasing a name token does not hold is a no-op.
func (l *AdvisoryLock) Release(ctx context.Context, name, token string) error {
	l.mu.Lock()
	pinned, held := l.conns[name]
	if !held || pinned.token != token {
		l.mu.Unlock()
		return nil
	}
	delete(l.conns, name)
	l.mu.Unlock()

	conn := pinned.conn
	defer conn.Close()

	var released bool
	if err := conn.QueryRowContext(ctx, "SELECT pg_advisory_unlock($1)", lockKey(name)).Scan(&released); err != nil {
		// Closing a session that still holds the lock would return it to the pool locked.
		_ = conn.Raw(func(any) error { return driver.ErrBadConn })
		return fmt.Errorf("release lease %s: %w", name, err)
	}
	return nil
}

// Extend only checks that the lease is still held
func (l *AdvisoryLock) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if pinned, held := l.conns[name]; !held || pinned.token != token {
		return fmt.Errorf("lease %s not held", name)
	}
	return nil
}

func (l *AdvisoryLock) Ping(ctx context.Context) error {
	return l.db.PingContext(ctx)
}

// Close releases every lease this instance still holds
func (l *AdvisoryLock) Close() error {
	l.mu.Lock()
	held := make(map[string]string, len(l.conns))
	for name, pinned := range l.conns {
		held[name] = pinned.token
	}
	l.mu.Unlock()

	var firstErr error
	for name, token := range held {
		if err := l.Release(context.Background(), name, token); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
