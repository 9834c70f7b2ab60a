package feed

import (
	"context"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FeedRepository defines the interface for feed persistence
type FeedRepository interface {
	// FindByID finds a feed by ID within a catalog
	FindByID(ctx context.Context, catalogID, id uuid.UUID) (*Feed, error)

	// FindAllForCatalog returns feeds of a catalog, newest first
	FindAllForCatalog(ctx context.Context, catalogID uuid.UUID, filter shared.Filter) ([]Feed, error)

	// Save saves a feed (create or update)
	Save(ctx context.Context, feed *Feed) error

	// DeleteByCatalog removes all feeds of a catalog
	DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error
}
