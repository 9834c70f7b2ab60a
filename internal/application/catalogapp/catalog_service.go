// Package catalogapp implements the catalog management use cases: catalog
// CRUD, merchant product edits, per-network customizations, and conflict
// review.
package catalogapp

import (
	"context"
	"errors"

	"github.com/adfeed/backend/internal/domain/bulkimport"
	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/adfeed/backend/internal/domain/feed"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/domain/sync"
	"github.com/adfeed/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CatalogService handles catalog lifecycle operations
type CatalogService struct {
	catalogRepo       catalog.CatalogRepository
	productRepo       catalog.ProductRepository
	customizationRepo catalog.CustomizationRepository
	conflictRepo      conflict.ConflictRepository
	syncJobRepo       sync.SyncJobRepository
	importJobRepo     bulkimport.ImportJobRepository
	feedRepo          feed.FeedRepository
}

// NewCatalogService creates a new CatalogService
func NewCatalogService(
	catalogRepo catalog.CatalogRepository,
	productRepo catalog.ProductRepository,
	customizationRepo catalog.CustomizationRepository,
	conflictRepo conflict.ConflictRepository,
	syncJobRepo sync.SyncJobRepository,
	importJobRepo bulkimport.ImportJobRepository,
	feedRepo feed.FeedRepository,
) *CatalogService {
	return &CatalogService{
		catalogRepo:       catalogRepo,
		productRepo:       productRepo,
		customizationRepo: customizationRepo,
		conflictRepo:      conflictRepo,
		syncJobRepo:       syncJobRepo,
		importJobRepo:     importJobRepo,
		feedRepo:          feedRepo,
	}
}

// Create creates a new catalog for a merchant
func (s *CatalogService) Create(ctx context.Context, merchantID uuid.UUID, req CreateCatalogRequest) (*CatalogResponse, error) {
	c, err := catalog.NewProductCatalog(merchantID, req.Name, req.SourcePlatform)
	if err != nil {
		return nil, err
	}

	if err := s.catalogRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToCatalogResponse(c)
	return &response, nil
}

// GetByID retrieves a catalog by ID
func (s *CatalogService) GetByID(ctx context.Context, merchantID, catalogID uuid.UUID) (*CatalogResponse, error) {
	c, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID)
	if err != nil {
		return nil, err
	}

	response := ToCatalogResponse(c)
	return &response, nil
}

// List retrieves the catalogs of a merchant
func (s *CatalogService) List(ctx context.Context, merchantID uuid.UUID, filter CatalogListFilter) ([]CatalogResponse, error) {
	domainFilter := shared.DefaultFilter()
	if filter.Page > 0 {
		domainFilter.Page = filter.Page
	}
	if filter.PageSize > 0 {
		domainFilter.PageSize = filter.PageSize
	}
	domainFilter.Search = filter.Search
	if filter.Status != "" {
		domainFilter.Filters["status"] = filter.Status
	}

	catalogs, err := s.catalogRepo.FindAllForMerchant(ctx, merchantID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]CatalogResponse, len(catalogs))
	for i := range catalogs {
		responses[i] = ToCatalogResponse(&catalogs[i])
	}
	return responses, nil
}

// Update renames a catalog
func (s *CatalogService) Update(ctx context.Context, merchantID, catalogID uuid.UUID, req UpdateCatalogRequest) (*CatalogResponse, error) {
	c, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID)
	if err != nil {
		return nil, err
	}

	if err := c.Update(req.Name); err != nil {
		return nil, err
	}
	if err := s.catalogRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToCatalogResponse(c)
	return &response, nil
}

// SetConflictStrategy changes the catalog conflict resolution strategy.
// The new strategy only affects future syncs and imports; existing pending
// conflicts stay pending.
func (s *CatalogService) SetConflictStrategy(ctx context.Context, merchantID, catalogID uuid.UUID, req SetStrategyRequest) (*CatalogResponse, error) {
	c, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID)
	if err != nil {
		return nil, err
	}

	if err := c.SetConflictStrategy(catalog.ConflictResolutionStrategy(req.Strategy)); err != nil {
		return nil, err
	}
	if err := s.catalogRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("catalog conflict strategy changed",
		zap.String("catalog_id", catalogID.String()),
		zap.String("strategy", req.Strategy))

	response := ToCatalogResponse(c)
	return &response, nil
}

// Pause pauses a catalog
func (s *CatalogService) Pause(ctx context.Context, merchantID, catalogID uuid.UUID) (*CatalogResponse, error) {
	return s.transition(ctx, merchantID, catalogID, (*catalog.ProductCatalog).Pause)
}

// Activate activates a paused catalog
func (s *CatalogService) Activate(ctx context.Context, merchantID, catalogID uuid.UUID) (*CatalogResponse, error) {
	return s.transition(ctx, merchantID, catalogID, (*catalog.ProductCatalog).Activate)
}

// Archive archives a catalog permanently
func (s *CatalogService) Archive(ctx context.Context, merchantID, catalogID uuid.UUID) (*CatalogResponse, error) {
	return s.transition(ctx, merchantID, catalogID, (*catalog.ProductCatalog).Archive)
}

func (s *CatalogService) transition(ctx context.Context, merchantID, catalogID uuid.UUID, op func(*catalog.ProductCatalog) error) (*CatalogResponse, error) {
	c, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID)
	if err != nil {
		return nil, err
	}

	if err := op(c); err != nil {
		return nil, err
	}
	if err := s.catalogRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToCatalogResponse(c)
	return &response, nil
}

// Delete removes a catalog and everything that hangs off it. A catalog
// with an active sync or import job cannot be deleted.
func (s *CatalogService) Delete(ctx context.Context, merchantID, catalogID uuid.UUID) error {
	if _, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID); err != nil {
		return err
	}

	if _, err := s.syncJobRepo.FindActive(ctx, catalogID); err == nil {
		return shared.ErrJobAlreadyRunning
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}
	if _, err := s.importJobRepo.FindActive(ctx, catalogID); err == nil {
		return shared.ErrJobAlreadyRunning
	} else if !errors.Is(err, shared.ErrNotFound) {
		return err
	}

	// Children first so a failure cannot orphan rows behind a missing catalog
	if err := s.customizationRepo.DeleteByCatalog(ctx, catalogID); err != nil {
		return err
	}
	if err := s.conflictRepo.DeleteByCatalog(ctx, catalogID); err != nil {
		return err
	}
	if err := s.feedRepo.DeleteByCatalog(ctx, catalogID); err != nil {
		return err
	}
	if err := s.syncJobRepo.DeleteByCatalog(ctx, catalogID); err != nil {
		return err
	}
	if err := s.importJobRepo.DeleteByCatalog(ctx, catalogID); err != nil {
		return err
	}
	if err := s.productRepo.DeleteByCatalog(ctx, catalogID); err != nil {
		return err
	}

	if err := s.catalogRepo.Delete(ctx, merchantID, catalogID); err != nil {
		return err
	}

	logger.L(ctx).Info("catalog deleted", zap.String("catalog_id", catalogID.String()))
	return nil
}
