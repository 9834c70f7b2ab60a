// Package importapp runs merchant file uploads through the bulk import
// pipeline. The uploaded file is parked in the artifact store first, then a
// background worker streams it row by row through conflict detection and
// resolution under the same per-catalog lock the sync pipeline uses.
package importapp

import (
	"context"
	"errors"
	"fmt"
	"io"
	gosync "sync"
	"time"

	"github.com/adfeed/backend/internal/domain/bulkimport"
	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/infrastructure/config"
	"github.com/adfeed/backend/internal/infrastructure/importfile"
	"github.com/adfeed/backend/internal/infrastructure/lock"
	"github.com/adfeed/backend/internal/infrastructure/logger"
	"github.com/adfeed/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// importLockTTL bounds how long a crashed import keeps a catalog locked
const importLockTTL = 30 * time.Minute

// ImportService drives bulk import jobs
type ImportService struct {
	catalogRepo  catalog.CatalogRepository
	productRepo  catalog.ProductRepository
	conflictRepo conflict.ConflictRepository
	jobRepo      bulkimport.ImportJobRepository
	store        storage.ArtifactStore
	locker       lock.CatalogLocker
	cfg          config.ImportConfig
	baseLogger   *zap.Logger

	wg gosync.WaitGroup
}

// NewImportService creates a new ImportService
func NewImportService(
	catalogRepo catalog.CatalogRepository,
	productRepo catalog.ProductRepository,
	conflictRepo conflict.ConflictRepository,
	jobRepo bulkimport.ImportJobRepository,
	store storage.ArtifactStore,
	locker lock.CatalogLocker,
	cfg config.ImportConfig,
	baseLogger *zap.Logger,
) *ImportService {
	if baseLogger == nil {
		baseLogger = zap.NewNop()
	}
	return &ImportService{
		catalogRepo:  catalogRepo,
		productRepo:  productRepo,
		conflictRepo: conflictRepo,
		jobRepo:      jobRepo,
		store:        store,
		locker:       locker,
		cfg:          cfg,
		baseLogger:   baseLogger,
	}
}

// Start uploads the file to the artifact store and begins processing it in
// the background. The returned job is the handle for polling progress.
func (s *ImportService) Start(ctx context.Context, merchantID, catalogID uuid.UUID, req StartImportRequest, file io.Reader) (*ImportJobResponse, error) {
	c, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID)
	if err != nil {
		return nil, err
	}
	if !c.IsActive() {
		return nil, shared.NewDomainError("CATALOG_NOT_ACTIVE", "Only an active catalog accepts imports")
	}

	mode := c.ConflictStrategy
	if req.ConflictMode != "" {
		mode = catalog.ConflictResolutionStrategy(req.ConflictMode)
	}
	fileName := req.FileName
	if fileName == "" {
		fileName = "upload." + req.Format
	}

	job, err := bulkimport.NewBulkImportJob(merchantID, catalogID, fileName, bulkimport.FileFormat(req.Format), mode)
	if err != nil {
		return nil, err
	}

	key := artifactKey(catalogID, job.ID, job.FileFormat)
	if err := s.stash(ctx, key, job.FileFormat, file); err != nil {
		return nil, err
	}

	release, err := s.locker.Acquire(ctx, catalogID, importLockTTL)
	if err != nil {
		_ = s.store.Delete(ctx, key)
		return nil, err
	}

	if err := s.jobRepo.Save(ctx, job); err != nil {
		release()
		_ = s.store.Delete(ctx, key)
		return nil, err
	}

	s.wg.Add(1)
	go s.runDetached(c, job, key, release)

	response := ToImportJobResponse(job)
	return &response, nil
}

// Wait blocks until all background import jobs finish
func (s *ImportService) Wait() {
	s.wg.Wait()
}

// Cancel requests cancellation of the active import
func (s *ImportService) Cancel(ctx context.Context, catalogID uuid.UUID) (*ImportJobResponse, error) {
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

	response := ToImportJobResponse(job)
	return &response, nil
}

// GetJob retrieves one import job
func (s *ImportService) GetJob(ctx context.Context, catalogID, jobID uuid.UUID) (*ImportJobResponse, error) {
	job, err := s.jobRepo.FindByID(ctx, catalogID, jobID)
	if err != nil {
		return nil, err
	}
	response := ToImportJobResponse(job)
	return &response, nil
}

// ListJobs lists the import jobs of a catalog, newest first
func (s *ImportService) ListJobs(ctx context.Context, catalogID uuid.UUID, filter JobListFilter) ([]ImportJobResponse, error) {
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

	responses := make([]ImportJobResponse, len(jobs))
	for i := range jobs {
		responses[i] = ToImportJobResponse(&jobs[i])
	}
	return responses, nil
}

func artifactKey(catalogID, jobID uuid.UUID, format bulkimport.FileFormat) string {
	return fmt.Sprintf("imports/%s/%s.%s", catalogID, jobID, format)
}

// stash copies the upload into the artifact store, enforcing the size cap
func (s *ImportService) stash(ctx context.Context, key string, format bulkimport.FileFormat, file io.Reader) error {
	contentType := "text/csv"
	if format == bulkimport.FormatXML {
		contentType = "application/xml"
	}

	limited := &limitedReader{r: file, remaining: s.cfg.MaxFileSize}
	if err := s.store.Put(ctx, key, contentType, limited); err != nil {
		if errors.Is(err, errFileTooLarge) {
			return shared.NewDomainError("FILE_TOO_LARGE",
				fmt.Sprintf("Import file exceeds the %d byte limit", s.cfg.MaxFileSize))
		}
		return err
	}
	return nil
}

var errFileTooLarge = errors.New("import file too large")

// limitedReader fails with errFileTooLarge instead of silently truncating
type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, errFileTooLarge
	}
	// Allow one byte past the limit so an exactly-at-limit file still
	// reaches its EOF instead of tripping the cap
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, errFileTooLarge
	}
	return n, err
}

// runDetached is the goroutine body. It owns the catalog lock and the
// stored upload, and always leaves the job in a terminal state.
func (s *ImportService) runDetached(c *catalog.ProductCatalog, job *bulkimport.BulkImportJob, key string, release func()) {
	defer s.wg.Done()
	defer release()

	ctx := logger.WithContext(context.Background(), s.baseLogger)
	ctx, _ = logger.WithCatalogID(ctx, s.baseLogger, c.ID.String())
	ctx, log := logger.WithJobID(ctx, logger.FromContext(ctx), job.ID.String())

	defer func() {
		if r := recover(); r != nil {
			log.Error("import pipeline panicked", zap.Any("panic", r))
			s.failJob(ctx, job, fmt.Sprintf("internal error: %v", r), nil)
		}
	}()

	defer func() {
		if err := s.store.Delete(ctx, key); err != nil {
			log.Warn("failed to delete import upload", zap.String("key", key), zap.Error(err))
		}
	}()

	s.run(ctx, c, job, key)
}

// run executes the import pipeline to a terminal job state
func (s *ImportService) run(ctx context.Context, c *catalog.ProductCatalog, job *bulkimport.BulkImportJob, key string) {
	log := logger.L(ctx)

	body, err := s.store.Get(ctx, key)
	if err != nil {
		s.failJob(ctx, job, "stored upload unreadable: "+err.Error(), nil)
		return
	}
	defer body.Close()

	reader, err := importfile.NewRecordReader(job.FileFormat, body)
	if err != nil {
		// File-level problems fail the whole job with zero rows processed
		log.Warn("import file rejected", zap.Error(err))
		s.failJob(ctx, job, err.Error(), nil)
		return
	}

	if err := job.Start(); err != nil {
		log.Error("failed to start import job", zap.Error(err))
		return
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		log.Error("failed to persist running import job", zap.Error(err))
		return
	}
	log.Info("import started", zap.String("file", job.FileName), zap.String("mode", string(job.ConflictMode)))

	var rowErrors []bulkimport.RowError
	sinceSave := 0

	for {
		record, rowErr, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			s.failJob(ctx, job, "read failed: "+err.Error(), rowErrors)
			return
		}

		if rowErr != nil {
			job.RecordFailed()
			rowErrors = appendRowError(rowErrors, *rowErr, s.cfg.MaxRowErrors)
		} else if applyErr := s.processRecord(ctx, c, job, record); applyErr != nil {
			job.RecordFailed()
			rowErrors = appendRowError(rowErrors, bulkimport.RowError{
				Row:     record.Line,
				Code:    importfile.CodeMalformedRow,
				Message: applyErr.Error(),
			}, s.cfg.MaxRowErrors)
		}

		sinceSave++
		if sinceSave >= s.cfg.ChunkSize {
			sinceSave = 0
			cancelled, err := s.cancelRequested(ctx, job)
			if err != nil {
				log.Error("failed to reload import job", zap.Error(err))
				return
			}
			if cancelled {
				log.Info("import cancelled", zap.Int("rows", job.TotalRows))
				if err := job.Fail("cancelled", rowErrors); err == nil {
					_ = s.jobRepo.Save(ctx, job)
				}
				return
			}
			if err := s.jobRepo.Save(ctx, job); err != nil {
				log.Error("failed to persist import progress", zap.Error(err))
				return
			}
		}
	}

	if err := job.Complete(rowErrors); err != nil {
		log.Error("failed to complete import job", zap.Error(err))
		return
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		log.Error("failed to persist completed import job", zap.Error(err))
		return
	}

	log.Info("import finished",
		zap.String("status", string(job.Status)),
		zap.Int("total", job.TotalRows),
		zap.Int("created", job.CreatedRows),
		zap.Int("updated", job.UpdatedRows),
		zap.Int("conflicted", job.Conflicted),
		zap.Int("failed", job.FailedRows))
}

// processRecord routes one parsed row through conflict detection and
// resolution, keyed by SKU. A row for an unknown SKU creates a
// merchant-authored product.
func (s *ImportService) processRecord(ctx context.Context, c *catalog.ProductCatalog, job *bulkimport.BulkImportJob, record *importfile.ProductRecord) error {
	stored, err := s.productRepo.FindBySKU(ctx, c.ID, record.SKU)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	det := conflict.Detect(stored, record.Fields)
	res, err := conflict.Resolve(stored, det, job.ConflictMode, conflict.SourceBulkImport)
	if err != nil {
		return err
	}

	if det.IsCreate {
		title := res.Applied[catalog.FieldTitle]
		product, err := catalog.NewProduct(c.MerchantID, c.ID, record.SKU, title)
		if err != nil {
			return err
		}
		fields := res.Applied.Clone()
		delete(fields, catalog.FieldTitle)
		if err := product.ApplyFields(fields); err != nil {
			return err
		}
		if err := s.productRepo.Save(ctx, product); err != nil {
			return err
		}
		job.RecordCreated()
		return nil
	}

	if err := stored.ApplyFields(res.Applied); err != nil {
		return err
	}
	if err := s.productRepo.Save(ctx, stored); err != nil {
		return err
	}

	if len(res.Records) > 0 {
		if err := s.saveConflicts(ctx, res.Records); err != nil {
			return err
		}
		job.RecordConflicted()
		return nil
	}

	job.RecordUpdated()
	return nil
}

// saveConflicts persists resolution records. A pending record reuses the
// existing pending row for its (product, field) pair, so re-importing the
// same file under the manual strategy never stacks duplicate pending
// conflicts.
func (s *ImportService) saveConflicts(ctx context.Context, records []*conflict.Conflict) error {
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

// cancelRequested reloads the job row to pick up a cancellation flag
func (s *ImportService) cancelRequested(ctx context.Context, job *bulkimport.BulkImportJob) (bool, error) {
	current, err := s.jobRepo.FindByID(ctx, job.CatalogID, job.ID)
	if err != nil {
		return false, err
	}
	if current.IsCancelRequested() {
		job.Status = bulkimport.JobStatusCancelling
		return true, nil
	}
	return false, nil
}

func appendRowError(list []bulkimport.RowError, e bulkimport.RowError, max int) []bulkimport.RowError {
	if max > 0 && len(list) >= max {
		return list
	}
	return append(list, e)
}

func (s *ImportService) failJob(ctx context.Context, job *bulkimport.BulkImportJob, reason string, rowErrors []bulkimport.RowError) {
	if job.IsTerminal() {
		return
	}
	if err := job.Fail(reason, rowErrors); err != nil {
		logger.L(ctx).Error("failed to mark import job failed", zap.Error(err))
		return
	}
	if err := s.jobRepo.Save(ctx, job); err != nil {
		logger.L(ctx).Error("failed to persist failed import job", zap.Error(err))
	}
}
