package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormCatalogRepository implements CatalogRepository using GORM
type GormCatalogRepository struct {
	db *gorm.DB
}

// NewGormCatalogRepository creates a new GormCatalogRepository
func NewGormCatalogRepository(db *gorm.DB) *GormCatalogRepository {
	return &GormCatalogRepository{db: db}
}

// FindByID finds a catalog by ID within a merchant
func (r *GormCatalogRepository) FindByID(ctx context.Context, merchantID, id uuid.UUID) (*catalog.ProductCatalog, error) {
	var c catalog.ProductCatalog
	if err := r.db.WithContext(ctx).
		Where("merchant_id = ? AND id = ?", merchantID, id).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindAllForMerchant returns all catalogs owned by a merchant
func (r *GormCatalogRepository) FindAllForMerchant(ctx context.Context, merchantID uuid.UUID, filter shared.Filter) ([]catalog.ProductCatalog, error) {
	var catalogs []catalog.ProductCatalog
	query := r.db.WithContext(ctx).
		Model(&catalog.ProductCatalog{}).
		Where("merchant_id = ?", merchantID)

	if filter.Search != "" {
		query = query.Where("name ILIKE ?", "%"+filter.Search+"%")
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	query = query.Offset(filter.Offset()).Limit(filter.Limit())
	if filter.OrderBy != "" {
		dir := "ASC"
		if strings.EqualFold(filter.OrderDir, "desc") {
			dir = "DESC"
		}
		query = query.Order(filter.OrderBy + " " + dir)
	} else {
		query = query.Order("created_at DESC")
	}

	if err := query.Find(&catalogs).Error; err != nil {
		return nil, err
	}
	return catalogs, nil
}

// Save creates or updates a catalog
func (r *GormCatalogRepository) Save(ctx context.Context, c *catalog.ProductCatalog) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// Delete deletes a catalog row
func (r *GormCatalogRepository) Delete(ctx context.Context, merchantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Delete(&catalog.ProductCatalog{}, "merchant_id = ? AND id = ?", merchantID, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Ensure GormCatalogRepository implements CatalogRepository
var _ catalog.CatalogRepository = (*GormCatalogRepository)(nil)
