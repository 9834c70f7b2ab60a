package catalogapp

import (
	"time"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/google/uuid"
)

// CreateCatalogRequest is the payload for creating a catalog
type CreateCatalogRequest struct {
	Name           string `json:"name" binding:"required,max=200"`
	SourcePlatform string `json:"source_platform" binding:"required,max=50"`
}

// UpdateCatalogRequest is the payload for renaming a catalog
type UpdateCatalogRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// SetStrategyRequest changes the catalog conflict resolution strategy
type SetStrategyRequest struct {
	Strategy string `json:"strategy" binding:"required,oneof=overwrite skip merge manual"`
}

// CatalogListFilter narrows catalog listing
type CatalogListFilter struct {
	Status   string `form:"status"`
	Search   string `form:"search"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// CatalogResponse is the API representation of a catalog
type CatalogResponse struct {
	ID               uuid.UUID  `json:"id"`
	MerchantID       uuid.UUID  `json:"merchant_id"`
	Name             string     `json:"name"`
	Status           string     `json:"status"`
	SourcePlatform   string     `json:"source_platform"`
	ConflictStrategy string     `json:"conflict_strategy"`
	LastSyncedAt     *time.Time `json:"last_synced_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ToCatalogResponse converts a catalog to its API representation
func ToCatalogResponse(c *catalog.ProductCatalog) CatalogResponse {
	return CatalogResponse{
		ID:               c.ID,
		MerchantID:       c.MerchantID,
		Name:             c.Name,
		Status:           string(c.Status),
		SourcePlatform:   c.SourcePlatform,
		ConflictStrategy: string(c.ConflictStrategy),
		LastSyncedAt:     c.LastSyncedAt,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

// CreateProductRequest creates a merchant-authored product
type CreateProductRequest struct {
	SKU    string            `json:"sku" binding:"required,max=100"`
	Title  string            `json:"title" binding:"required,max=500"`
	Fields map[string]string `json:"fields"`
}

// CustomizeFieldsRequest edits the ad-specific fields of a product
type CustomizeFieldsRequest struct {
	Fields map[string]string `json:"fields" binding:"required"`
}

// ProductListRequest pages through a catalog with a keyset cursor
type ProductListRequest struct {
	AfterID *uuid.UUID `form:"after_id"`
	Limit   int        `form:"limit"`
}

// ProductResponse is the API representation of a product
type ProductResponse struct {
	ID               uuid.UUID         `json:"id"`
	CatalogID        uuid.UUID         `json:"catalog_id"`
	CoreProductID    *string           `json:"core_product_id,omitempty"`
	SKU              string            `json:"sku"`
	Title            string            `json:"title"`
	Description      string            `json:"description,omitempty"`
	Price            string            `json:"price"`
	ImageURL         string            `json:"image_url,omitempty"`
	StockLevel       int               `json:"stock_level"`
	AdTitle          string            `json:"ad_title,omitempty"`
	AdDescription    string            `json:"ad_description,omitempty"`
	CustomAttributes map[string]string `json:"custom_attributes"`
	IsOverride       bool              `json:"is_override"`
	UpdatedAt        time.Time         `json:"updated_at"`
}

// ProductPageResponse is one keyset page of products
type ProductPageResponse struct {
	Items   []ProductResponse `json:"items"`
	HasMore bool              `json:"has_more"`
}

// ToProductResponse converts a product to its API representation
func ToProductResponse(p *catalog.Product) ProductResponse {
	attrs, err := p.Attributes()
	if err != nil {
		attrs = map[string]string{}
	}
	return ProductResponse{
		ID:               p.ID,
		CatalogID:        p.CatalogID,
		CoreProductID:    p.CoreProductID,
		SKU:              p.SKU,
		Title:            p.Title,
		Description:      p.Description,
		Price:            p.Price.String(),
		ImageURL:         p.ImageURL,
		StockLevel:       p.StockLevel,
		AdTitle:          p.AdTitle,
		AdDescription:    p.AdDescription,
		CustomAttributes: attrs,
		IsOverride:       p.IsOverride,
		UpdatedAt:        p.UpdatedAt,
	}
}

// UpsertCustomizationRequest sets per-network overrides for one product
type UpsertCustomizationRequest struct {
	Title       string            `json:"title" binding:"max=500"`
	Description string            `json:"description"`
	ImageURL    string            `json:"image_url" binding:"max=2000"`
	Attributes  map[string]string `json:"attributes"`
}

// CustomizationResponse is the API representation of a customization
type CustomizationResponse struct {
	ID          uuid.UUID         `json:"id"`
	ProductID   uuid.UUID         `json:"product_id"`
	AdNetworkID string            `json:"ad_network_id"`
	Title       string            `json:"title,omitempty"`
	Description string            `json:"description,omitempty"`
	ImageURL    string            `json:"image_url,omitempty"`
	Attributes  map[string]string `json:"attributes"`
	UpdatedAt   time.Time         `json:"updated_at"`
}

// ToCustomizationResponse converts a customization to its API representation
func ToCustomizationResponse(c *catalog.ProductCustomization) CustomizationResponse {
	overrides := c.FieldOverrides()
	attrs := map[string]string{}
	for field, value := range overrides {
		if key := catalog.AttrKey(field); key != "" {
			attrs[key] = value
		}
	}
	return CustomizationResponse{
		ID:          c.ID,
		ProductID:   c.ProductID,
		AdNetworkID: c.AdNetworkID,
		Title:       c.Title,
		Description: c.Description,
		ImageURL:    c.ImageURL,
		Attributes:  attrs,
		UpdatedAt:   c.UpdatedAt,
	}
}

// ConflictListFilter narrows conflict listing
type ConflictListFilter struct {
	ProductID *uuid.UUID `form:"product_id"`
	Status    string     `form:"status"`
	Source    string     `form:"source"`
	Page      int        `form:"page"`
	PageSize  int        `form:"page_size"`
}

// ResolveConflictRequest decides a pending conflict. Choice is one of
// incoming, current, or custom; CustomValue is required for custom.
type ResolveConflictRequest struct {
	Choice      string `json:"choice" binding:"required,oneof=incoming current custom"`
	CustomValue string `json:"custom_value"`
	ResolvedBy  string `json:"resolved_by" binding:"required,max=100"`
}

// IgnoreConflictRequest dismisses a pending conflict
type IgnoreConflictRequest struct {
	ResolvedBy string `json:"resolved_by" binding:"required,max=100"`
}

// ConflictResponse is the API representation of a conflict record
type ConflictResponse struct {
	ID               uuid.UUID  `json:"id"`
	CatalogID        uuid.UUID  `json:"catalog_id"`
	ProductID        uuid.UUID  `json:"product_id"`
	Field            string     `json:"field"`
	IncomingValue    string     `json:"incoming_value"`
	CurrentValue     string     `json:"current_value"`
	SourceOfIncoming string     `json:"source_of_incoming"`
	Status           string     `json:"status"`
	ResolutionChosen string     `json:"resolution_chosen,omitempty"`
	ResolvedValue    string     `json:"resolved_value,omitempty"`
	ResolvedAt       *time.Time `json:"resolved_at,omitempty"`
	ResolvedBy       string     `json:"resolved_by,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// ToConflictResponse converts a conflict to its API representation
func ToConflictResponse(c *conflict.Conflict) ConflictResponse {
	return ConflictResponse{
		ID:               c.ID,
		CatalogID:        c.CatalogID,
		ProductID:        c.ProductID,
		Field:            c.Field,
		IncomingValue:    c.IncomingValue,
		CurrentValue:     c.CurrentValue,
		SourceOfIncoming: string(c.SourceOfIncoming),
		Status:           string(c.Status),
		ResolutionChosen: string(c.ResolutionChosen),
		ResolvedValue:    c.ResolvedValue,
		ResolvedAt:       c.ResolvedAt,
		ResolvedBy:       c.ResolvedBy,
		CreatedAt:        c.CreatedAt,
	}
}
