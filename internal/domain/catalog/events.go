package catalog

import (
	"github.com/adfeed/backend/internal/domain/shared"
)

// Event types for the catalog context
const (
	EventCatalogCreated  = "catalog.created"
	EventCatalogArchived = "catalog.archived"
	EventProductCreated  = "catalog.product.created"
	EventProductUpdated  = "catalog.product.updated"
)

// CatalogCreatedEvent is raised when a new catalog is created
type CatalogCreatedEvent struct {
	shared.BaseDomainEvent
	Name           string `json:"name"`
	SourcePlatform string `json:"source_platform"`
}

// NewCatalogCreatedEvent creates a new CatalogCreatedEvent
func NewCatalogCreatedEvent(c *ProductCatalog) *CatalogCreatedEvent {
	return &CatalogCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventCatalogCreated, "ProductCatalog", c.ID, c.MerchantID),
		Name:            c.Name,
		SourcePlatform:  c.SourcePlatform,
	}
}

// ProductCreatedEvent is raised when a product is added to a catalog
type ProductCreatedEvent struct {
	shared.BaseDomainEvent
	SKU string `json:"sku"`
}

// NewProductCreatedEvent creates a new ProductCreatedEvent
func NewProductCreatedEvent(p *Product) *ProductCreatedEvent {
	return &ProductCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventProductCreated, "Product", p.ID, p.MerchantID),
		SKU:             p.SKU,
	}
}

// ProductUpdatedEvent is raised when product fields change
type ProductUpdatedEvent struct {
	shared.BaseDomainEvent
	SKU string `json:"sku"`
}

// NewProductUpdatedEvent creates a new ProductUpdatedEvent
func NewProductUpdatedEvent(p *Product) *ProductUpdatedEvent {
	return &ProductUpdatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventProductUpdated, "Product", p.ID, p.MerchantID),
		SKU:             p.SKU,
	}
}
