// Package syncapp orchestrates catalog pulls from the core commerce
// platform. A sync streams pages of source records through conflict
// detection and resolution, checkpoints its cursor after every page, and
// survives crashes by resuming from the last checkpoint.
package syncapp

import (
	"context"
	"errors"
	"fmt"
	gosync "sync"
	"time"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/domain/sync"
	"github.com/adfeed/backend/internal/infrastructure/config"
	"github.com/adfeed/backend/internal/infrastructure/lock"
	"github.com/adfeed/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncService drives catalog sync jobs
type SyncService struct {
	catalogRepo  catalog.CatalogRepository
	productRepo  catalog.ProductRepository
	conflictRepo conflict.ConflictRepository
	jobRepo      sync.SyncJobRepository
	source       sync.ProductSource
	locker       lock.CatalogLocker
	cfg          config.SyncConfig
	baseLogger   *zap.Logger

	wg gosync.WaitGroup
}

// NewSyncService creates a new SyncService
func NewSyncService(
	catalogRepo catalog.CatalogRepository,
	productRepo catalog.ProductRepository,
	conflictRepo conflict.ConflictRepository,
	jobRepo sync.SyncJobRepository,
	source sync.ProductSource,
	locker lock.CatalogLocker,
	cfg config.SyncConfig,
	baseLogger *zap.Logger,
) *SyncService {
	if baseLogger == nil {
		baseLogger = zap.NewNop()
	}
	return &SyncService{
		catalogRepo:  catalogRepo,
		productRepo:  productRepo,
		conflictRepo: conflictRepo,
		jobRepo:      jobRepo,
		source:       source,
		locker:       locker,
		cfg:          cfg,
		baseLogger:   baseLogger,
	}
}

// Start begins a sync for a catalog. The pipeline runs in the background;
// the returned job is the handle for polling progress. Only one sync or
// import may run per catalog at a time.
func (s *SyncService) Start(ctx context.Context, merchantID, catalogID uuid.UUID, req StartSyncRequest) (*SyncJobResponse, error) {
	c, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, shared.NewDomainError("CATALOG_NOT_ACTIVE", "Only an active catalog can be synced")
	}

	release, err := s.locker.Acquire(ctx, catalogID, s.cfg.LockTTL)
	if err != nil {
		return nil, err
	}

	job, err := s.newJob(ctx, c, req)
	if err != nil {
		release()
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		release()
		return nil, err
	}

	s.wg.Add(1)
	go s.runDetached(c, job, release)

	response := ToSyncJobResponse(job)
	return &response, nil
}

// Wait blocks until all background sync jobs finish. Used by graceful
// shutdown and tests.
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// Cancel requests cancellation of the active sync. The pipeline notices
// at the next page boundary and finishes with partial counters kept.
func (s *SyncService) Cancel(ctx context.Context, catalogID uuid.UUID) (*SyncJobResponse, error) {
	job, err := s.jobRepo.FindActive(ctx, catalogID)
	if err != nil {
		return nil, err
	}

	if err := job.RequestCancel(); err != nil {
		return nil, err
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		return nil, err
	}

	response := ToSyncJobResponse(job)
	return &response, nil
}

// GetJob retrieves one sync job
func (s *SyncService) GetJob(ctx context.Context, catalogID, jobID uuid.UUID) (*SyncJobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, catalogID, jobID)
	if err != nil {
		return nil, err
	}
	response := ToSyncJobResponse(job)
	return &response, nil
}

// ListJobs lists the sync jobs of a catalog, newest first
func (s *SyncService) ListJobs(ctx context.Context, catalogID uuid.UUID, filter JobListFilter) ([]SyncJobResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	jobs, err := s.jobRepo.FindAllForCatalog(ctx, catalogID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]SyncJobResponse, len(jobs))
	for i := range jobs {
		responses[i] = ToSyncJobResponse(&jobs[i])
	}
	return responses, nil
}

// newJob creates the pending job, resuming from the previous checkpoint
// when the last run failed mid-stream
func (s *SyncService) newJob(ctx context.Context, c *catalog.ProductCatalog, req StartSyncRequest) (*sync.SyncJob, error) {
	if !req.FullResync {
		latest, err := s.jobRepo.FindLatest(ctx, c.ID)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, err
		}
		if latest != nil && latest.Status == sync.JobStatusFailed &&
			latest.FailureReason != sync.FailureReasonCancelled && latest.Cursor != "" {
			return sync.NewResumedSyncJob(c.MerchantID, c.ID, latest.Cursor), nil
		}
	}
	return sync.NewSyncJob(c.MerchantID, c.ID), nil
}

// runDetached is the goroutine body. It owns the catalog lock and always
// leaves the job in a terminal state, even on panic.
func (s *SyncService) runDetached(c *catalog.ProductCatalog, job *sync.SyncJob, release func()) {
	defer s.wg.Done()
	defer release()

	ctx := logger.WithContext(context.Background(), s.baseLogger)
	ctx, _ = logger.WithCatalogID(ctx, s.baseLogger, c.ID.String())
	ctx, log := logger.WithJobID(ctx, logger.FromContext(ctx), job.ID.String())

	defer func() {
		if r := recover(); r != nil {
			log.Error("sync pipeline panicked", zap.Any("panic", r))
			s.failJob(ctx, job, fmt.Sprintf("internal error: %v", r))
		}
	}()

	s.run(ctx, c, job)
}

// run executes the sync pipeline to a terminal job state
func (s *SyncService) run(ctx context.Context, c *catalog.ProductCatalog, job *sync.SyncJob) {
	log := logger.L(ctx)

	if err := job.Start(); err != nil {
		log.Error("failed to start sync job", zap.Error(err))
		return
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		log.Error("failed to persist running sync job", zap.Error(err))
		return
	}
	log.Info("sync started", zap.String("cursor", job.Cursor))

	for {
		page, err := s.source.FetchPage(ctx, sync.SourceRequest{
			MerchantID:     c.MerchantID,
			SourcePlatform: c.SourcePlatform,
			Cursor:         job.Cursor,
			Limit:          s.cfg.PageSize,
		})
		if err != nil {
			log.Warn("source fetch failed", zap.Error(err))
			s.failJob(ctx, job, "source fetch failed: "+err.Error())
			return
		}

		for _, record := range page.Records {
			s.processRecord(ctx, c, job, record)

			if s.cfg.ErrorThreshold > 0 && job.Failed >= s.cfg.ErrorThreshold {
				log.Warn("error threshold exceeded", zap.Int("failed", job.Failed))
				s.failJob(ctx, job, fmt.Sprintf("aborted after %d record failures", job.Failed))
				return
			}
		}

		// Reload before writing the checkpoint so a cancellation flagged by
		// another request is not clobbered by this save
		cancelled, err := s.cancelRequested(ctx, job)
		if err != nil {
			log.Error("failed to reload sync job", zap.Error(err))
			return
		}

		job.Checkpoint(page.NextCursor)
		if cancelled {
			log.Info("sync cancelled", zap.Int("processed", job.Processed))
			if err := job.ConfirmCancelled(); err == nil {
				_ = s.jobRepo.Save(ctx, job)
			}
			return
		}
		if err := s.jobRepo.Save(ctx, job); err != nil {
			log.Error("failed to checkpoint sync job", zap.Error(err))
			return
		}

		if !page.HasMore {
			break
		}
	}

	if err := job.Complete(); err != nil {
		logger.L(ctx).Error("failed to complete sync job", zap.Error(err))
		return
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		logger.L(ctx).Error("failed to persist completed sync job", zap.Error(err))
		return
	}

	c.MarkSynced(time.Now())
	if err := s.catalogRepo.Save(ctx, c); err != nil {
		logger.L(ctx).Warn("failed to stamp catalog last sync time", zap.Error(err))
	}

	logger.L(ctx).Info("sync finished",
		zap.String("status", string(job.Status)),
		zap.Int("processed", job.Processed),
		zap.Int("created", job.Created),
		zap.Int("updated", job.Updated),
		zap.Int("conflicted", job.Conflicted),
		zap.Int("failed", job.Failed))
}

// processRecord routes one source record through conflict detection and
// resolution. Record-level problems become counters, never pipeline errors.
func (s *SyncService) processRecord(ctx context.Context, c *catalog.ProductCatalog, job *sync.SyncJob, record sync.SourceRecord) {
	log := logger.L(ctx)

	if record.CoreProductID == "" {
		job.RecordFailed()
		log.Warn("source record missing core product id", zap.String("sku", record.SKU))
		return
	}

	stored, err := s.productRepo.FindByCoreProductID(ctx, c.ID, record.CoreProductID)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		job.RecordFailed()
		log.Warn("product lookup failed", zap.String("core_product_id", record.CoreProductID), zap.Error(err))
		return
	}

	det := conflict.Detect(stored, record.Fields)
	res, err := conflict.Resolve(stored, det, c.ConflictStrategy, conflict.SourceSync)
	if err != nil {
		job.RecordFailed()
		log.Warn("conflict resolution failed", zap.String("core_product_id", record.CoreProductID), zap.Error(err))
		return
	}
	if res.StrategyDefaulted {
		log.Warn("unknown conflict strategy, defaulted to manual",
			zap.String("strategy", string(c.ConflictStrategy)))
	}

	if det.IsCreate {
		if _, err := s.createProduct(ctx, c, record, res.Applied); err != nil {
			job.RecordFailed()
			log.Warn("product create failed", zap.String("sku", record.SKU), zap.Error(err))
			return
		}
		job.RecordCreated()
		return
	}

	if err := stored.ApplyFields(res.Applied); err != nil {
		job.RecordFailed()
		log.Warn("field apply failed", zap.String("sku", stored.SKU), zap.Error(err))
		return
	}
	if err := s.productRepo.Save(ctx, stored); err != nil {
		job.RecordFailed()
		log.Warn("product save failed", zap.String("sku", stored.SKU), zap.Error(err))
		return
	}

	if len(res.Records) > 0 {
		if err := s.saveConflicts(ctx, res.Records); err != nil {
			job.RecordFailed()
			log.Warn("conflict save failed", zap.String("sku", stored.SKU), zap.Error(err))
			return
		}
		job.RecordConflicted()
		return
	}

	job.RecordUpdated()
}

// saveConflicts persists resolution records. A pending record reuses the
// existing pending row for its (product, field) pair, so re-running a sync
// under the manual strategy never stacks duplicate pending conflicts.
func (s *SyncService) saveConflicts(ctx context.Context, records []*conflict.Conflict) error {
	for _, rec := range records {
		if rec.IsPending() {
			existing, err := s.conflictRepo.FindPendingForProductField(ctx, rec.ProductID, rec.Field)
			if err == nil {
				if err := existing.RefreshIncoming(rec.IncomingValue, rec.SourceOfIncoming); err != nil {
					return err
				}
				if err := s.conflictRepo.Save(ctx, existing); err != nil {
					return err
				}
				continue
			}
			if !errors.Is(err, shared.ErrNotFound) {
				return err
			}
		}
		if err := s.conflictRepo.Save(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// createProduct builds a platform-sourced product from the applied field set
func (s *SyncService) createProduct(ctx context.Context, c *catalog.ProductCatalog, record sync.SourceRecord, applied catalog.FieldSet) (*catalog.Product, error) {
	title := applied[catalog.FieldTitle]
	product, err := catalog.NewProductFromSource(c.MerchantID, c.ID, record.CoreProductID, record.SKU, title)
	if err != nil {
		return nil, err
	}

	fields := applied.Clone()
	delete(fields, catalog.FieldTitle)
	if err := product.ApplyFields(fields); err != nil {
		return nil, err
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	return product, nil
}

// cancelRequested reloads the job row to pick up a cancellation flag set
// by another request while the pipeline was processing a page
func (s *SyncService) cancelRequested(ctx context.Context, job *sync.SyncJob) (bool, error) {
	current, err := s.jobRepo.FindByID(ctx, job.CatalogID, job.ID)
	if err != nil {
		return false, err
	}
	if current.IsCancelRequested() {
		job.Status = sync.JobStatusCancelling
		return true, nil
	}
	return false, nil
}

func (s *SyncService) failJob(ctx context.Context, job *sync.SyncJob, reason string) {
	if job.IsTerminal() {
		return
	}
	if err := job.Fail(reason); err != nil {
		logger.L(ctx).Error("failed to mark sync job failed", zap.Error(err))
		return
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		logger.L(ctx).Error("failed to persist failed sync job", zap.Error(err))
	}
}
