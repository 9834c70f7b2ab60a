package conflict

import (
	"context"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Filter narrows conflict queries
type Filter struct {
	ProductID *uuid.UUID
	Status    *Status
	Source    *Source
}

// ConflictRepository defines the interface for conflict persistence
type ConflictRepository interface {
	// FindByID finds a conflict by ID within a catalog
	FindByID(ctx context.Context, catalogID, id uuid.UUID) (*Conflict, error)

	// FindAllForCatalog returns conflicts of a catalog, newest first
	FindAllForCatalog(ctx context.Context, catalogID uuid.UUID, filter Filter, page shared.Filter) ([]Conflict, int64, error)

	// FindPendingForProductField returns the pending conflict for one
	// (product, field) pair, or shared.ErrNotFound
	FindPendingForProductField(ctx context.Context, productID uuid.UUID, field string) (*Conflict, error)

	// Save saves a conflict (create or update)
	Save(ctx context.Context, c *Conflict) error

	// DeleteByCatalog removes all conflicts of a catalog. Only used by the
	// catalog delete cascade; individual conflicts are never deleted.
	DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error
}
