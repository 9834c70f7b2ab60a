// Package lock provides the catalog-level advisory lock that keeps sync and
// bulk import from writing the same product rows concurrently.
package lock

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// CatalogLocker serializes writer pipelines per catalog. Acquire returns a
// release function on success and ErrLockHeld when another writer owns the
// catalog. The TTL bounds how long a crashed holder can block others.
type CatalogLocker interface {
	Acquire(ctx context.Context, catalogID uuid.UUID, ttl time.Duration) (release func(), err error)
}
