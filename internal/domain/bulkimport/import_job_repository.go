package bulkimport

import (
	"context"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ImportJobRepository defines the interface for bulk import job persistence
type ImportJobRepository interface {
	// FindByID finds an import job by ID within a catalog
	FindByID(ctx context.Context, catalogID, id uuid.UUID) (*BulkImportJob, error)

	// FindActive returns the running (or cancelling) job for a catalog,
	// or shared.ErrNotFound
	FindActive(ctx context.Context, catalogID uuid.UUID) (*BulkImportJob, error)

	// FindAllForCatalog returns jobs of a catalog, newest first
	FindAllForCatalog(ctx context.Context, catalogID uuid.UUID, filter shared.Filter) ([]BulkImportJob, error)

	// Save saves an import job (create or update)
	Save(ctx context.Context, job *BulkImportJob) error

	// DeleteByCatalog removes all import jobs of a catalog
	DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error
}
