package lock

import (
	"context"
	"sync"
	"time"

	"github.com/stockledger/backend/internal/domain/shared"
)

type keyedEntry struct {
	ch   chan struct{}
	refs int
}

// KeyedManager is an in-process Manager backed by one channel-based
// mutex per key. Entries are reference counted and removed once the
// last holder or waiter releases, so the map does not grow with the
// number of distinct keys ever seen.
type KeyedManager struct {
	mu      sync.Mutex
	entries map[string]*keyedEntry
}

// NewKeyedManager creates an in-process lock manager.
func NewKeyedManager() *KeyedManager {
	return &KeyedManager{entries: make(map[string]*keyedEntry)}
}

// Acquire takes the lock for key, waiting up to timeout.
func (m *KeyedManager) Acquire(ctx context.Context, key string, timeout time.Duration) (Release, error) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if !ok {
		e = &keyedEntry{ch: make(chan struct{}, 1)}
		m.entries[key] = e
	}
	e.refs++
	m.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case e.ch <- struct{}{}:
		return func() {
			<-e.ch
			m.release(key, e)
		}, nil
	case <-timer.C:
		m.release(key, e)
		return nil, shared.NewDomainError("BUSY", "resource is locked by another operation: "+key)
	case <-ctx.Done():
		m.release(key, e)
		return nil, ctx.Err()
	}
}

func (m *KeyedManager) release(key string, e *keyedEntry) {
	m.mu.Lock()
	e.refs--
	if e.refs == 0 {
		delete(m.entries, key)
	}
	m.mu.Unlock()
}
