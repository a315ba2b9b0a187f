package mocks

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/custodia-labs/docspace/internal/core/ports/driven"
)

var _ driven.DistributedLock = (*MockDistributedLock)(nil)

// heldElsewhere is the token SetLockHeld records for a foreign holder
const heldElsewhere = "held-elsewhere"

type mockLease struct {
	token  string
	expiry time.Time
}

// MockDistributedLock is an in-memory DistributedLock that records every lease name it grants.
type MockDistributedLock struct {
	mu       sync.Mutex
	leases   map[string]mockLease
	acquired []string
	denied   map[string]int
	extended map[string]int

	// Custom behavior hooks (optional)
	AcquireFn func(name string, ttl time.Duration) (bool, error)
	ReleaseFn func(name string) error
	ExtendFn  func(name string, ttl time.Duration) error
	PingFn    func() error
}

// NewMockDistributedLock creates a new mock distributed lock.
func NewMockDistributedLock() *MockDistributedLock {
	return &MockDistributedLock{
		leases:   make(map[string]mockLease),
		denied:   make(map[string]int),
		extended: make(map[string]int),
	}
}

func (m *MockDistributedLock) Acquire(ctx context.Context, name, token string, ttl time.Duration) (bool, error) {
	if m.AcquireFn != nil {
		return m.AcquireFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if l, held := m.leases[name]; held && time.Now().Before(l.expiry) {
		m.denied[name]++
		return false, nil
	}
	m.leases[name] = mockLease{token: token, expiry: time.Now().Add(ttl)}
	m.acquired = append(m.acquired, name)
	return true, nil
}

func (m *MockDistributedLock) Release(ctx context.Context, name, token string) error {
	if m.ReleaseFn != nil {
		return m.ReleaseFn(name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.leases[name].token == token {
		delete(m.leases, name)
	}
	return nil
}

func (m *MockDistributedLock) Extend(ctx context.Context, name, token string, ttl time.Duration) error {
	if m.ExtendFn != nil {
		return m.ExtendFn(name, ttl)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	l, held := m.leases[name]
	if !held || l.token != token || time.Now().After(l.expiry) {
		return fmt.Errorf("lock %s not held", name)
	}
	l.expiry = time.Now().Add(ttl)
	m.leases[name] = l
	m.extended[name]++
	return nil
}

func (m *MockDistributedLock) Ping(ctx context.Context) error {
	if m.PingFn != nil {
		return m.PingFn()
	}
	return nil
}

// IsHeld checks if a lock is currently held (for test assertions).
func (m *MockDistributedLock) IsHeld(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	l, held := m.leases[name]
	return held && time.Now().Before(l.expiry)
}

// SetLockHeld forces a lock to be held by someone else (for test setup).
func (m *MockDistributedLock) SetLockHeld(name string, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.leases[name] = mockLease{token: heldElsewhere, expiry: time.Now().Add(ttl)}
}

// ReleaseHeld frees a lock taken with SetLockHeld.
func (m *MockDistributedLock) ReleaseHeld(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.leases[name].token == heldElsewhere {
		delete(m.leases, name)
	}
}

// Acquired returns every lease name granted so far, in order.
func (m *MockDistributedLock) Acquired() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.acquired...)
}

// Denied returns how many times name was refused because it was held.
func (m *MockDistributedLock) Denied(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.denied[name]
}

// Extended returns how many successful renewals name has seen.
func (m *MockDistributedLock) Extended(name string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.extended[name]
}
