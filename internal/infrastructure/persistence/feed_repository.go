package persistence

import (
	"context"
	"errors"

	"github.com/adfeed/backend/internal/domain/feed"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormFeedRepository implements FeedRepository using GORM
type GormFeedRepository struct {
	db *gorm.DB
}

// NewGormFeedRepository creates a new GormFeedRepository
func NewGormFeedRepository(db *gorm.DB) *GormFeedRepository {
	return &GormFeedRepository{db: db}
}

// FindByID finds a feed by ID within a catalog
func (r *GormFeedRepository) FindByID(ctx context.Context, catalogID, id uuid.UUID) (*feed.Feed, error) {
	var f feed.Feed
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND id = ?", catalogID, id).
		First(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &f, nil
}

// FindAllForCatalog returns feeds of a catalog, newest first
func (r *GormFeedRepository) FindAllForCatalog(ctx context.Context, catalogID uuid.UUID, filter shared.Filter) ([]feed.Feed, error) {
	query := r.db.WithContext(ctx).
		Model(&feed.Feed{}).
		Where("catalog_id = ?", catalogID)

	if network, ok := filter.Filters["ad_network_id"]; ok {
		query = query.Where("ad_network_id = ?", network)
	}
	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var feeds []feed.Feed
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&feeds).Error; err != nil {
		return nil, err
	}
	return feeds, nil
}

// Save creates or updates a feed
func (r *GormFeedRepository) Save(ctx context.Context, f *feed.Feed) error {
	return r.db.WithContext(ctx).Save(f).Error
}

// DeleteByCatalog removes all feeds of a catalog
func (r *GormFeedRepository) DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&feed.Feed{}, "catalog_id = ?", catalogID).Error
}

// Ensure GormFeedRepository implements FeedRepository
var _ feed.FeedRepository = (*GormFeedRepository)(nil)
