package sync

import (
	"context"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SyncJobRepository defines the interface for sync job persistence
type SyncJobRepository interface {
	// FindByID finds a sync job by ID within a catalog
	FindByID(ctx context.Context, catalogID, id uuid.UUID) (*SyncJob, error)

	// FindLatest returns the most recently created job for a catalog
	FindLatest(ctx context.Context, catalogID uuid.UUID) (*SyncJob, error)

	// FindActive returns the running (or cancelling) job for a catalog,
	// or shared.ErrNotFound
	FindActive(ctx context.Context, catalogID uuid.UUID) (*SyncJob, error)

	// FindAllForCatalog returns jobs of a catalog, newest first
	FindAllForCatalog(ctx context.Context, catalogID uuid.UUID, filter shared.Filter) ([]SyncJob, error)

	// Save saves a sync job (create or update)
	Save(ctx context.Context, job *SyncJob) error

	// DeleteByCatalog removes all sync jobs of a catalog
	DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error
}
