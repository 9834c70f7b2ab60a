package persistence

import (
	"context"
	"errors"

	"github.com/adfeed/backend/internal/domain/bulkimport"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormImportJobRepository implements ImportJobRepository using GORM
type GormImportJobRepository struct {
	db *gorm.DB
}

// NewGormImportJobRepository creates a new GormImportJobRepository
func NewGormImportJobRepository(db *gorm.DB) *GormImportJobRepository {
	return &GormImportJobRepository{db: db}
}

// FindByID finds an import job by ID within a catalog
func (r *GormImportJobRepository) FindByID(ctx context.Context, catalogID, id uuid.UUID) (*bulkimport.BulkImportJob, error) {
	var job bulkimport.BulkImportJob
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

// FindActive returns the running (or cancelling) import job for a catalog
func (r *GormImportJobRepository) FindActive(ctx context.Context, catalogID uuid.UUID) (*bulkimport.BulkImportJob, error) {
	var job bulkimport.BulkImportJob
	if err := r.db.WithContext(ctx).
		Where("catalog_id = ? AND status IN ?", catalogID,
			[]bulkimport.JobStatus{bulkimport.JobStatusRunning, bulkimport.JobStatusCancelling}).
		Order("created_at DESC").
		First(&job).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return &job, nil
}

// FindAllForCatalog returns import jobs of a catalog, newest first
func (r *GormImportJobRepository) FindAllForCatalog(ctx context.Context, catalogID uuid.UUID, filter shared.Filter) ([]bulkimport.BulkImportJob, error) {
	query := r.db.WithContext(ctx).
		Model(&bulkimport.BulkImportJob{}).
		Where("catalog_id = ?", catalogID)

	if status, ok := filter.Filters["status"]; ok {
		query = query.Where("status = ?", status)
	}

	var jobs []bulkimport.BulkImportJob
	if err := query.
		Order("created_at DESC").
		Offset(filter.Offset()).
		Limit(filter.Limit()).
		Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}

// Save creates or updates an import job
func (r *GormImportJobRepository) Save(ctx context.Context, job *bulkimport.BulkImportJob) error {
	return r.db.WithContext(ctx).Save(job).Error
}

// DeleteByCatalog removes all import jobs of a catalog
func (r *GormImportJobRepository) DeleteByCatalog(ctx context.Context, catalogID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Delete(&bulkimport.BulkImportJob{}, "catalog_id = ?", catalogID).Error
}

// Ensure GormImportJobRepository implements ImportJobRepository
var _ bulkimport.ImportJobRepository = (*GormImportJobRepository)(nil)
