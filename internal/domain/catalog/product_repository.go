package catalog

import (
	"context"

	"github.com/google/uuid"
)

// ProductPage is one keyset-paginated slice of a catalog. AfterID of the
// next call is the ID of the last product in Items; HasMore is false on
// the final page.
type ProductPage struct {
	Items   []Product
	HasMore bool
}

// ProductRepository defines the interface for product persistence
type ProductRepository interface {
	// FindByID finds a product by ID within a catalog
	FindByID(ctx context.Context, catalogID, id uuid.UUID) (*Product, error)

	// FindByCoreProductID finds the product synced from a core platform record
	FindByCoreProductID(ctx context.Context, catalogID uuid.UUID, coreProductID string) (*Product, error)

	// FindBySKU finds a product by SKU within a catalog
	FindBySKU(ctx context.Context, catalogID uuid.UUID, sku string) (*Product, error)

	// FindPage returns products ordered by ID, strictly after afterID
	// (nil for the first page), limited to limit items. Keyset pagination
	// keeps feed generation memory bounded for catalogs of any size.
	FindPage(ctx context.Context, catalogID uuid.UUID, afterID *uuid.UUID, limit int) (*ProductPage, error)

	// CountByCatalog returns the number of products in a catalog
	CountByCatalog(ctx context.Context, catalogID uuid.UUID) (int64, error)

	// Save saves a product (create or update)
	Save(ctx context.Context, p *Product) error

	// DeleteByCatalog removes all products of a catalog
	DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error
}

// CustomizationRepository defines the interface for per-network customizations
type CustomizationRepository interface {
	// FindByProduct returns all customizations for one product
	FindByProduct(ctx context.Context, catalogID, productID uuid.UUID) ([]ProductCustomization, error)

	// FindForProducts returns the customizations of one ad network for a
	// batch of products, keyed by product ID. Used by feed generation one
	// page at a time.
	FindForProducts(ctx context.Context, catalogID uuid.UUID, adNetworkID string, productIDs []uuid.UUID) (map[uuid.UUID]*ProductCustomization, error)

	// Save saves a customization (create or update)
	Save(ctx context.Context, c *ProductCustomization) error

	// DeleteByCatalog removes all customizations of a catalog
	DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error
}
