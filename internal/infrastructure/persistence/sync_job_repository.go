package persistence

import (
	"context"
	"errors"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/domain/sync"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormSyncJobRepository implements SyncJobRepository using GORM
type GormSyncJobRepository struct {
	db *gorm.DB
}

// NewGormSyncJobRepository creates a new GormSyncJobRepository
func NewGormSyncJobRepository(db *gorm.DB) *GormSyncJobRepository {
	return &GormSyncJobRepository{db: db}
}

// FindByID finds a sync job by ID within a catalog
func (r *GormSyncJobRepository) FindByID(ctx context.Context, catalogID, id uuid.UUID) (*sync.SyncJob, error) {
	var job sync.SyncJob
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND id = ?", catalogID, id).
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindLatest returns the most recently created job for a catalog
func (r *GormSyncJobRepository) FindLatest(ctx context.Context, catalogID uuid.UUID) (*sync.SyncJob, error) {
	var job sync.SyncJob
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ?", catalogID).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindActive returns the running (or cancelling) job for a catalog
func (r *GormSyncJobRepository) FindActive(ctx context.Context, catalogID uuid.UUID) (*sync.SyncJob, error) {
	var job sync.SyncJob
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND status IN ?", catalogID,
			[]sync.JobStatus{sync.JobStatusRunning, sync.JobStatusCancelling}).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindAllForCatalog returns jobs of a catalog, newest first
func (r *GormSyncJobRepository) FindAllForCatalog(ctx context.Context, catalogID uuid.UUID, filter shared.Filter) ([]sync.SyncJob, error) {
	query := r.db.WithContext(ctx).
		Model(&sync.SyncJob{}).
		Where("catalog_id = ?", catalogID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var jobs []sync.SyncJob
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Save creates or updates a sync job
func (r *GormSyncJobRepository) Save(ctx context.Context, job *sync.SyncJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// DeleteByCatalog removes all sync jobs of a catalog
func (r *GormSyncJobRepository) DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&sync.SyncJob{}, "catalog_id = ?", catalogID).Error
}

// Ensure GormSyncJobRepository implements SyncJobRepository
var _ sync.SyncJobRepository = (*GormSyncJobRepository)(nil)
