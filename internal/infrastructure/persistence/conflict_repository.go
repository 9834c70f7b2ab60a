package persistence

import (
	"context"
	"errors"

	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormConflictRepository implements ConflictRepository using GORM
type GormConflictRepository struct {
	db *gorm.DB
}

// NewGormConflictRepository creates a new GormConflictRepository
func NewGormConflictRepository(db *gorm.DB) *GormConflictRepository {
	return &GormConflictRepository{db: db}
}

// FindByID finds a conflict by ID within a catalog
func (r *GormConflictRepository) FindByID(ctx context.Context, catalogID, id uuid.UUID) (*conflict.Conflict, error) {
	var c conflict.Conflict
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND id = ?", catalogID, id).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// FindAllForCatalog returns conflicts of a catalog, newest first, with the
// total count before pagination
func (r *GormConflictRepository) FindAllForCatalog(ctx context.Context, catalogID uuid.UUID, filter conflict.Filter, page shared.Filter) ([]conflict.Conflict, int64, error) {
	var total int64
	if err := r.filteredQuery(ctx, catalogID, filter).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var conflicts []conflict.Conflict
	if err := r.filteredQuery(ctx, catalogID, filter).
		Order("created_at DESC").
		Offset(page.Offset()).
		Limit(page.Limit()).
		Find(&conflicts).Error; err != nil {
		return nil, 0, err
	}
	return conflicts, total, nil
}

func (r *GormConflictRepository) filteredQuery(ctx context.Context, catalogID uuid.UUID, filter conflict.Filter) *gorm.DB {
	query := r.db.WithContext(ctx).
		Model(&conflict.Conflict{}).
		Where("catalog_id = ?", catalogID)

	if filter.ProductID != nil {
		query = query.Where("product_id = ?", *filter.ProductID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Source != nil {
		query = query.Where("source_of_incoming = ?", *filter.Source)
	}
	return query
}

// FindPendingForProductField returns the pending conflict for one
// (product, field) pair, or shared.ErrNotFound. Used to keep re-runs from
// stacking duplicate pending records.
func (r *GormConflictRepository) FindPendingForProductField(ctx context.Context, productID uuid.UUID, field string) (*conflict.Conflict, error) {
	var c conflict.Conflict
	if err := r.db.WithContext(ctx).
		Where("product_id = ? AND field = ? AND status = ?", productID, field, conflict.StatusPending).
		First(&c).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

// Save creates or updates a conflict
func (r *GormConflictRepository) Save(ctx context.Context, c *conflict.Conflict) error {
	return r.db.WithContext(ctx).Save(c).Error
}

// DeleteByCatalog removes all conflicts of a catalog
func (r *GormConflictRepository) DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&conflict.Conflict{}, "catalog_id = ?", catalogID).Error
}

// Ensure GormConflictRepository implements ConflictRepository
var _ conflict.ConflictRepository = (*GormConflictRepository)(nil)
