package persistence

import (
	"context"
	"errors"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormProductRepository implements ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

// FindByID finds a product by ID within a catalog
func (r *GormProductRepository) FindByID(ctx context.Context, catalogID, id uuid.UUID) (*catalog.Product, error) {
	var p catalog.Product
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND id = ?", catalogID, id).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindByCoreProductID finds the product synced from a core platform record
func (r *GormProductRepository) FindByCoreProductID(ctx context.Context, catalogID uuid.UUID, coreProductID string) (*catalog.Product, error) {
	if coreProductID == "" {
		return nil, shared.NewDomainError("INVALID_CORE_PRODUCT_ID", "Core product ID cannot be empty")
	}
	var p catalog.Product
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND core_product_id = ?", catalogID, coreProductID).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindBySKU finds a product by SKU within a catalog
func (r *GormProductRepository) FindBySKU(ctx context.Context, catalogID uuid.UUID, sku string) (*catalog.Product, error) {
	if sku == "" {
		return nil, shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	var p catalog.Product
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND sku = ?", catalogID, sku).
		First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// FindPage returns one keyset-paginated slice of a catalog ordered by ID.
// Fetches limit+1 rows to compute HasMore without a separate count.
func (r *GormProductRepository) FindPage(ctx context.Context, catalogID uuid.UUID, afterID *uuid.UUID, limit int) (*catalog.ProductPage, error) {
	if limit < 1 {
		return nil, shared.NewDomainError("INVALID_PAGE_SIZE", "Page size must be positive")
	}

	query := r.db.WithContext(ctx).
		Where("catalog_id = ?", catalogID).
		Order("id ASC").
		Limit(limit + 1)
	if afterID != nil {
		query = query.Where("id > ?", *afterID)
	}

	var products []catalog.Product
	if err := query.Find(&products).Error; err != nil {
		return nil, err
	}

	page := &catalog.ProductPage{Items: products}
	if len(products) > limit {
		page.Items = products[:limit]
		page.HasMore = true
	}
	return page, nil
}

// CountByCatalog returns the number of products in a catalog
func (r *GormProductRepository) CountByCatalog(ctx context.Context, catalogID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&catalog.Product{}).
		Where("catalog_id = ?", catalogID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Save creates or updates a product
func (r *GormProductRepository) Save(ctx context.Context, p *catalog.Product) error {
	return r.db.WithContext(ctx).Save(p).Error
}

// DeleteByCatalog removes all products of a catalog
func (r *GormProductRepository) DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&catalog.Product{}, "catalog_id = ?", catalogID).Error
}

// Ensure GormProductRepository implements ProductRepository
var _ catalog.ProductRepository = (*GormProductRepository)(nil)

// GormCustomizationRepository implements CustomizationRepository using GORM
type GormCustomizationRepository struct {
	db *gorm.DB
}

// NewGormCustomizationRepository creates a new GormCustomizationRepository
func NewGormCustomizationRepository(db *gorm.DB) *GormCustomizationRepository {
	return &GormCustomizationRepository{db: db}
}

// FindByProduct returns all customizations for one product
func (r *GormCustomizationRepository) FindByProduct(ctx context.Context, catalogID, productID uuid.UUID) ([]catalog.ProductCustomization, error) {
	var customizations []catalog.ProductCustomization
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND product_id = ?", catalogID, productID).
		Order("ad_network_id ASC").
		Find(&customizations).Error; err != nil {
		return nil, err
	}
	return customizations, nil
}

// FindForProducts returns the customizations of one ad network for a batch
// of products, keyed by product ID
func (r *GormCustomizationRepository) FindForProducts(ctx context.Context, catalogID uuid.UUID, adNetworkID string, productIDs []uuid.UUID) (map[uuid.UUID]*catalog.ProductCustomization, error) {
	result := make(map[uuid.UUID]*catalog.ProductCustomization, len(productIDs))
	if len(productIDs) == 0 {
		return result, nil
	}

	var customizations []catalog.ProductCustomization
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND ad_network_id = ? AND product_id IN ?", catalogID, adNetworkID, productIDs).
		Find(&customizations).Error; err != nil {
		return nil, err
	}

	for i := range customizations {
		result[customizations[i].ProductID] = &customizations[i]
	}
	return result, nil
}

// Save creates or updates a customization
func (r *GormCustomizationRepository) Save(ctx context.Context, c *catalog.ProductCustomization) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// DeleteByCatalog removes all customizations of a catalog
func (r *GormCustomizationRepository) DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&catalog.ProductCustomization{}, "catalog_id = ?", catalogID).Error
}

// Ensure GormCustomizationRepository implements CustomizationRepository
var _ catalog.CustomizationRepository = (*GormCustomizationRepository)(nil)
