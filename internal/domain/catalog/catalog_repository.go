package catalog

import (
	"context"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CatalogRepository defines the interface for catalog persistence
type CatalogRepository interface {
	// FindByID finds a catalog by ID within a merchant
	FindByID(ctx context.Context, merchantID, id uuid.UUID) (*ProductCatalog, error)

	// FindAllForMerchant returns all catalogs owned by a merchant
	FindAllForMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]ProductCatalog, error)

	// Save saves a catalog (create or update)
	Save(ctx context.Context, c *ProductCatalog) error

	// Delete deletes a catalog. Products, jobs, conflicts, feeds, and
	// customizations of the catalog are removed by the application layer
	// before the row itself goes away.
	Delete(ctx context.Context, merchantID, id uuid.UUID) error
}
