// Package feedapp generates network-formatted feed exports of a catalog.
// Generation streams products page by page through the merge layer and a
// format writer straight into the artifact store, so memory stays bounded
// for catalogs of any size. Item-level schema violations become defects on
// the feed, never generation failures.
package feedapp

import (
	"context"
	"fmt"
	"io"
	gosync "sync"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/feed"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/infrastructure/config"
	"github.com/adfeed/backend/internal/infrastructure/logger"
	"github.com/adfeed/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// FeedService drives feed generation and validation
type FeedService struct {
	catalogRepo       catalog.CatalogRepository
	productRepo       catalog.ProductRepository
	customizationRepo catalog.CustomizationRepository
	feedRepo          feed.FeedRepository
	specs             feed.SpecRegistry
	store             storage.ArtifactStore
	cfg               config.FeedConfig
	baseLogger        *zap.Logger

	wg gosync.WaitGroup
}

// NewFeedService creates a new FeedService
func NewFeedService(
	catalogRepo catalog.CatalogRepository,
	productRepo catalog.ProductRepository,
	customizationRepo catalog.CustomizationRepository,
	feedRepo feed.FeedRepository,
	specs feed.SpecRegistry,
	store storage.ArtifactStore,
	cfg config.FeedConfig,
	baseLogger *zap.Logger,
) *FeedService {
	if baseLogger == nil {
		baseLogger = zap.NewNop()
	}
	return &FeedService{
		catalogRepo:       catalogRepo,
		productRepo:       productRepo,
		customizationRepo: customizationRepo,
		feedRepo:          feedRepo,
		specs:             specs,
		store:             store,
		cfg:               cfg,
		baseLogger:        baseLogger,
	}
}

// Networks lists the supported ad network IDs
func (s *FeedService) Networks(ctx context.Context) []string {
	return s.specs.Networks(ctx)
}

// Generate starts feed generation for one ad network. Generation only
// reads the catalog, so it runs without the catalog lock and concurrently
// with generations for other networks.
func (s *FeedService) Generate(ctx context.Context, merchantID, catalogID uuid.UUID, req GenerateFeedRequest) (*FeedResponse, error) {
	c, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID)
	if err != nil {
		return nil, err
	}
	if c.Status == catalog.CatalogStatusArchived {
		return nil, shared.NewDomainError("CATALOG_ARCHIVED", "Cannot generate feeds for an archived catalog")
	}

	spec, err := s.specs.Get(ctx, req.AdNetworkID)
	if err != nil {
		return nil, err
	}

	f, err := feed.NewFeed(merchantID, catalogID, req.AdNetworkID, feed.Format(req.Format))
	if err != nil {
		return nil, err
	}
	if err := s.feedRepo.Save(ctx, f); err != nil {
		return nil, err
	}

	s.wg.Add(1)
	go s.runDetached(f, spec)

	response := ToFeedResponse(f)
	return &response, nil
}

// Wait blocks until all background generations finish. Used by graceful
// shutdown and tests.
func (s *FeedService) Wait() {
	s.wg.Wait()
}

// GetFeed retrieves one feed
func (s *FeedService) GetFeed(ctx context.Context, catalogID, feedID uuid.UUID) (*FeedResponse, error) {
	f, err := s.feedRepo.FindByID(ctx, catalogID, feedID)
	if err != nil {
		return nil, err
	}
	response := ToFeedResponse(f)
	return &response, nil
}

// ListFeeds lists the feeds of a catalog, newest first
func (s *FeedService) ListFeeds(ctx context.Context, catalogID uuid.UUID, filter FeedListFilter) ([]FeedResponse, error) {
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
	if filter.AdNetworkID != "" {
		domainFilter.Filters["ad_network_id"] = filter.AdNetworkID
	}

	feeds, err := s.feedRepo.FindAllForCatalog(ctx, catalogID, domainFilter)
	if err != nil {
		return nil, err
	}

	responses := make([]FeedResponse, len(feeds))
	for i := range feeds {
		responses[i] = ToFeedResponse(&feeds[i])
	}
	return responses, nil
}

// Download opens a ready feed artifact for streaming to the caller. The
// caller closes the reader.
func (s *FeedService) Download(ctx context.Context, catalogID, feedID uuid.UUID) (io.ReadCloser, string, error) {
	f, err := s.feedRepo.FindByID(ctx, catalogID, feedID)
	if err != nil {
		return nil, "", err
	}
	if !f.IsDownloadable() {
		return nil, "", shared.NewDomainError("FEED_NOT_READY", "Feed is not ready for download, status: "+string(f.Status))
	}

	body, err := s.store.Get(ctx, f.FileLocation)
	if err != nil {
		return nil, "", err
	}
	return body, contentTypeOf(f.Format), nil
}

// ValidateFeed re-checks the current catalog contents against the schema
// of an existing feed's network
func (s *FeedService) ValidateFeed(ctx context.Context, merchantID, catalogID, feedID uuid.UUID) (*feed.ValidationResult, error) {
	if _, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID); err != nil {
		return nil, err
	}
	f, err := s.feedRepo.FindByID(ctx, catalogID, feedID)
	if err != nil {
		return nil, err
	}
	spec, err := s.specs.Get(ctx, f.AdNetworkID)
	if err != nil {
		return nil, err
	}

	issues, err := s.collectIssues(ctx, catalogID, spec, 0)
	if err != nil {
		return nil, err
	}
	result := feed.NewValidationResult(f.ID.String(), issues)
	return &result, nil
}

// ValidateCatalog checks catalog items against a network schema without
// generating anything. A limit bounds the sample; 0 validates everything.
func (s *FeedService) ValidateCatalog(ctx context.Context, merchantID, catalogID uuid.UUID, req ValidateRequest) (*feed.ValidationResult, error) {
	if _, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID); err != nil {
		return nil, err
	}
	spec, err := s.specs.Get(ctx, req.AdNetworkID)
	if err != nil {
		return nil, err
	}

	issues, err := s.collectIssues(ctx, catalogID, spec, req.Limit)
	if err != nil {
		return nil, err
	}
	result := feed.NewValidationResult("", issues)
	return &result, nil
}

// runDetached is the goroutine body. It always leaves the feed in a
// terminal state, even on panic.
func (s *FeedService) runDetached(f *feed.Feed, spec *feed.Spec) {
	defer s.wg.Done()

	ctx := logger.WithContext(context.Background(), s.baseLogger)
	ctx, log := logger.WithCatalogID(ctx, s.baseLogger, f.CatalogID.String())
	log = log.With(zap.String("feed_id", f.ID.String()), zap.String("ad_network_id", f.AdNetworkID))
	ctx = logger.WithContext(ctx, log)

	defer func() {
		if r := recover(); r != nil {
			log.Error("feed generation panicked", zap.Any("panic", r))
			s.failFeed(ctx, f, fmt.Sprintf("internal error: %v", r))
		}
	}()

	s.run(ctx, f, spec)
}

// run executes the generation pipeline to a terminal feed state
func (s *FeedService) run(ctx context.Context, f *feed.Feed, spec *feed.Spec) {
	log := logger.L(ctx)

	if err := f.StartGenerating(); err != nil {
		log.Error("failed to start feed generation", zap.Error(err))
		return
	}
	if err := s.feedRepo.Save(ctx, f); err != nil {
		log.Error("failed to persist generating feed", zap.Error(err))
		return
	}

	key := fmt.Sprintf("feeds/%s/%s.%s", f.CatalogID, f.ID, f.Format)
	count, defects, err := s.writeArtifact(ctx, f, spec, key)
	if err != nil {
		log.Warn("feed generation failed", zap.Error(err))
		// Best effort, a partial artifact must not be left behind
		_ = s.store.Delete(ctx, key)
		s.failFeed(ctx, f, err.Error())
		return
	}

	if err := f.MarkReady(key, count, defects); err != nil {
		log.Error("failed to mark feed ready", zap.Error(err))
		return
	}
	if err := s.feedRepo.Save(ctx, f); err != nil {
		log.Error("failed to persist ready feed", zap.Error(err))
		return
	}

	log.Info("feed generated",
		zap.Int("items", count),
		zap.Int("defects", len(defects)))
}

// writeArtifact streams every catalog item through the writer into the
// store and returns the item count and the capped defect list
func (s *FeedService) writeArtifact(ctx context.Context, f *feed.Feed, spec *feed.Spec, key string) (int, []feed.ItemDefect, error) {
	pr, pw := io.Pipe()
	putErr := make(chan error, 1)
	go func() {
		putErr <- s.store.Put(ctx, key, contentTypeOf(f.Format), pr)
	}()

	count, defects, err := s.writeRows(ctx, f, spec, pw)

	// Closing the write end with the pipeline error unblocks Put either way
	pw.CloseWithError(err)
	if storeErr := <-putErr; err == nil && storeErr != nil {
		err = fmt.Errorf("artifact write failed: %w", storeErr)
	}
	if err != nil {
		return 0, nil, err
	}
	return count, defects, nil
}

func (s *FeedService) writeRows(ctx context.Context, f *feed.Feed, spec *feed.Spec, out io.Writer) (int, []feed.ItemDefect, error) {
	writer, err := newRowWriter(f.Format, out, spec)
	if err != nil {
		return 0, nil, err
	}
	if err := writer.Start(); err != nil {
		return 0, nil, err
	}

	var (
		count   int
		defects []feed.ItemDefect
		afterID *uuid.UUID
	)
	for {
		page, err := s.productRepo.FindPage(ctx, f.CatalogID, afterID, s.pageSize())
		if err != nil {
			return 0, nil, fmt.Errorf("product page load failed: %w", err)
		}
		if len(page.Items) == 0 {
			break
		}

		ids := make([]uuid.UUID, len(page.Items))
		for i := range page.Items {
			ids[i] = page.Items[i].ID
		}
		customs, err := s.customizationRepo.FindForProducts(ctx, f.CatalogID, f.AdNetworkID, ids)
		if err != nil {
			return 0, nil, fmt.Errorf("customization load failed: %w", err)
		}

		for i := range page.Items {
			product := &page.Items[i]
			values := networkValues(spec, mergeRecord(product, customs[product.ID]))

			for _, issue := range spec.ValidateItem(product.SKU, values) {
				if s.cfg.MaxDefects > 0 && len(defects) >= s.cfg.MaxDefects {
					break
				}
				defects = append(defects, feed.ItemDefect{
					ItemID:  issue.ItemID,
					Field:   issue.Field,
					Code:    issue.Code,
					Message: issue.Message,
				})
			}

			if err := writer.WriteRow(values); err != nil {
				return 0, nil, fmt.Errorf("row write failed: %w", err)
			}
			count++
		}

		last := page.Items[len(page.Items)-1].ID
		afterID = &last
		if !page.HasMore {
			break
		}
	}

	if err := writer.Close(); err != nil {
		return 0, nil, fmt.Errorf("writer close failed: %w", err)
	}
	return count, defects, nil
}

// collectIssues runs every catalog item through the network schema. limit
// of 0 means the whole catalog.
func (s *FeedService) collectIssues(ctx context.Context, catalogID uuid.UUID, spec *feed.Spec, limit int) ([]feed.ValidationIssue, error) {
	var (
		issues    []feed.ValidationIssue
		afterID   *uuid.UUID
		validated int
	)
	for {
		page, err := s.productRepo.FindPage(ctx, catalogID, afterID, s.pageSize())
		if err != nil {
			return nil, err
		}
		if len(page.Items) == 0 {
			break
		}

		ids := make([]uuid.UUID, len(page.Items))
		for i := range page.Items {
			ids[i] = page.Items[i].ID
		}
		customs, err := s.customizationRepo.FindForProducts(ctx, catalogID, spec.AdNetworkID, ids)
		if err != nil {
			return nil, err
		}

		for i := range page.Items {
			product := &page.Items[i]
			values := networkValues(spec, mergeRecord(product, customs[product.ID]))
			issues = append(issues, spec.ValidateItem(product.SKU, values)...)

			validated++
			if limit > 0 && validated >= limit {
				return issues, nil
			}
		}

		last := page.Items[len(page.Items)-1].ID
		afterID = &last
		if !page.HasMore {
			break
		}
	}
	return issues, nil
}

func (s *FeedService) pageSize() int {
	if s.cfg.PageSize > 0 {
		return s.cfg.PageSize
	}
	return 100
}

func (s *FeedService) failFeed(ctx context.Context, f *feed.Feed, reason string) {
	if f.Status.IsTerminal() {
		return
	}
	if err := f.MarkFailed(reason); err != nil {
		logger.L(ctx).Error("failed to mark feed failed", zap.Error(err))
		return
	}
	if err := s.feedRepo.Save(ctx, f); err != nil {
		logger.L(ctx).Error("failed to persist failed feed", zap.Error(err))
	}
}

func contentTypeOf(format feed.Format) string {
	if format == feed.FormatXML {
		return "application/xml"
	}
	return "text/csv"
}
