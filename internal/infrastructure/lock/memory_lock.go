package lock

import (
	"context"
	gosync "sync"
	"time"

	"github.com/google/uuid"
)

type leaseEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryCatalogLocker implements CatalogLocker in process memory. Used in
// tests and single-instance development setups.
type MemoryCatalogLocker struct {
	mu     gosync.Mutex
	leases map[uuid.UUID]leaseEntry
	now    func() time.Time
}

// NewMemoryCatalogLocker creates an in-memory locker
func NewMemoryCatalogLocker() *MemoryCatalogLocker {
	return &MemoryCatalogLocker{
		leases: make(map[uuid.UUID]leaseEntry),
		now:    time.Now,
	}
}

// Acquire takes the lease unless a live one exists for the catalog
func (l *MemoryCatalogLocker) Acquire(_ context.Context, catalogID uuid.UUID, ttl time.Duration) (func(), error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if lease, ok := l.leases[catalogID]; ok && l.now().Before(lease.expiresAt) {
		return nil, ErrLockHeld
	}

	token := uuid.NewString()
	l.leases[catalogID] = leaseEntry{token: token, expiresAt: l.now().Add(ttl)}

	release := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if lease, ok := l.leases[catalogID]; ok && lease.token == token {
			delete(l.leases, catalogID)
		}
	}
	return release, nil
}

// Ensure MemoryCatalogLocker implements CatalogLocker
var _ CatalogLocker = (*MemoryCatalogLocker)(nil)
