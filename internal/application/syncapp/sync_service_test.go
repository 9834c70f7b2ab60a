package syncapp

import (
	"context"
	"testing"
	"time"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/domain/sync"
	"github.com/adfeed/backend/internal/infrastructure/config"
	"github.com/adfeed/backend/internal/infrastructure/lock"
	"github.com/adfeed/backend/internal/infrastructure/persistence"
	"github.com/adfeed/backend/internal/infrastructure/platform"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type testEnv struct {
	catalogRepo  catalog.CatalogRepository
	productRepo  catalog.ProductRepository
	conflictRepo conflict.ConflictRepository
	jobRepo      sync.SyncJobRepository
	locker       *lock.MemoryCatalogLocker
	cfg          config.SyncConfig
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&catalog.ProductCatalog{},
		&catalog.Product{},
		&conflict.Conflict{},
		&sync.SyncJob{},
	))

	return &testEnv{
		catalogRepo:  persistence.NewGormCatalogRepository(db),
		productRepo:  persistence.NewGormProductRepository(db),
		conflictRepo: persistence.NewGormConflictRepository(db),
		jobRepo:      persistence.NewGormSyncJobRepository(db),
		locker:       lock.NewMemoryCatalogLocker(),
		cfg:          config.SyncConfig{PageSize: 2, ErrorThreshold: 5, LockTTL: time.Minute},
	}
}

func (env *testEnv) newService(t *testing.T, source sync.ProductSource) *SyncService {
	t.Helper()
	return NewSyncService(
		env.catalogRepo, env.productRepo, env.conflictRepo, env.jobRepo,
		source, env.locker, env.cfg, zaptest.NewLogger(t),
	)
}

func (env *testEnv) seedCatalog(t *testing.T, strategy catalog.ConflictResolutionStrategy) *catalog.ProductCatalog {
	t.Helper()
	c, err := catalog.NewProductCatalog(uuid.New(), "Catalog", "shopify")
	require.NoError(t, err)
	require.NoError(t, c.SetConflictStrategy(strategy))
	require.NoError(t, env.catalogRepo.Save(context.Background(), c))
	return c
}

func sourceRecords(n int) []sync.SourceRecord {
	records := make([]sync.SourceRecord, n)
	for i := range records {
		id := string(rune('a' + i))
		records[i] = sync.SourceRecord{
			CoreProductID: "core-" + id,
			SKU:           "SKU-" + id,
			Fields: catalog.FieldSet{
				catalog.FieldTitle:      "Item " + id,
				catalog.FieldPrice:      "9.99",
				catalog.FieldStockLevel: "3",
			},
		}
	}
	return records
}

func startAndWait(t *testing.T, service *SyncService, c *catalog.ProductCatalog, req StartSyncRequest) *SyncJobResponse {
	t.Helper()
	started, err := service.Start(context.Background(), c.MerchantID, c.ID, req)
	require.NoError(t, err)
	service.Wait()

	final, err := service.GetJob(context.Background(), c.ID, started.ID)
	require.NoError(t, err)
	return final
}

func TestSyncService_FullPull(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t, catalog.StrategyManual)
	source := platform.NewFakeProductSource(sourceRecords(5))
	service := env.newService(t, source)

	job := startAndWait(t, service, c, StartSyncRequest{})

	assert.Equal(t, "succeeded", job.Status)
	assert.Equal(t, 5, job.Processed)
	assert.Equal(t, 5, job.Created)
	assert.Zero(t, job.Failed)
	// PageSize 2 over 5 records
	assert.Equal(t, 3, source.PagesServed())

	count, err := env.productRepo.CountByCatalog(context.Background(), c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)

	// The catalog remembers its last successful sync
	refreshed, err := env.catalogRepo.FindByID(context.Background(), c.MerchantID, c.ID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.LastSyncedAt)
}

func TestSyncService_SecondRunIsIdempotent(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t, catalog.StrategyManual)
	records := sourceRecords(3)
	service := env.newService(t, platform.NewFakeProductSource(records))

	startAndWait(t, service, c, StartSyncRequest{})

	service2 := env.newService(t, platform.NewFakeProductSource(records))
	job := startAndWait(t, service2, c, StartSyncRequest{})

	assert.Equal(t, "succeeded", job.Status)
	assert.Equal(t, 3, job.Updated)
	assert.Zero(t, job.Created)

	count, err := env.productRepo.CountByCatalog(context.Background(), c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)
}

func TestSyncService_OverrideConflictManualStrategy(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.seedCatalog(t, catalog.StrategyManual)

	records := []sync.SourceRecord{{
		CoreProductID: "core-a",
		SKU:           "SKU-a",
		Fields: catalog.FieldSet{
			catalog.FieldTitle:   "Item a",
			catalog.FieldAdTitle: "Platform Ad Title",
		},
	}}
	service := env.newService(t, platform.NewFakeProductSource(records))
	startAndWait(t, service, c, StartSyncRequest{})

	// Merchant customizes the ad title between syncs
	product, err := env.productRepo.FindByCoreProductID(ctx, c.ID, "core-a")
	require.NoError(t, err)
	require.NoError(t, product.CustomizeAdField(catalog.FieldAdTitle, "Merchant Ad Title"))
	require.NoError(t, env.productRepo.Save(ctx, product))

	records[0].Fields[catalog.FieldAdTitle] = "Newer Platform Title"
	service2 := env.newService(t, platform.NewFakeProductSource(records))
	job := startAndWait(t, service2, c, StartSyncRequest{})

	assert.Equal(t, 1, job.Conflicted)

	// The override survived and a pending conflict was recorded
	product, err = env.productRepo.FindByCoreProductID(ctx, c.ID, "core-a")
	require.NoError(t, err)
	assert.Equal(t, "Merchant Ad Title", product.AdTitle)

	pending, err := env.conflictRepo.FindPendingForProductField(ctx, product.ID, catalog.FieldAdTitle)
	require.NoError(t, err)
	assert.Equal(t, "Newer Platform Title", pending.IncomingValue)
	assert.Equal(t, conflict.SourceSync, pending.SourceOfIncoming)
}

func TestSyncService_RepeatedSyncKeepsOnePendingConflict(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.seedCatalog(t, catalog.StrategyManual)

	records := []sync.SourceRecord{{
		CoreProductID: "core-a",
		SKU:           "SKU-a",
		Fields: catalog.FieldSet{
			catalog.FieldTitle:   "Item a",
			catalog.FieldAdTitle: "Platform Ad Title",
		},
	}}
	startAndWait(t, env.newService(t, platform.NewFakeProductSource(records)), c, StartSyncRequest{})

	product, err := env.productRepo.FindByCoreProductID(ctx, c.ID, "core-a")
	require.NoError(t, err)
	require.NoError(t, product.CustomizeAdField(catalog.FieldAdTitle, "Merchant Ad Title"))
	require.NoError(t, env.productRepo.Save(ctx, product))

	// The platform keeps delivering the same disputed value across runs
	records[0].Fields[catalog.FieldAdTitle] = "Newer Platform Title"
	for i := 0; i < 2; i++ {
		job := startAndWait(t, env.newService(t, platform.NewFakeProductSource(records)), c, StartSyncRequest{})
		assert.Equal(t, 1, job.Conflicted)
	}

	// The second run refreshed the existing row instead of adding another
	all, total, err := env.conflictRepo.FindAllForCatalog(ctx, c.ID, conflict.Filter{}, shared.DefaultFilter())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, all, 1)
	assert.Equal(t, conflict.StatusPending, all[0].Status)
	assert.Equal(t, "Newer Platform Title", all[0].IncomingValue)

	// A changed value on a later run is still a single refreshed row
	records[0].Fields[catalog.FieldAdTitle] = "Third Platform Title"
	startAndWait(t, env.newService(t, platform.NewFakeProductSource(records)), c, StartSyncRequest{})

	pending, err := env.conflictRepo.FindPendingForProductField(ctx, product.ID, catalog.FieldAdTitle)
	require.NoError(t, err)
	assert.Equal(t, "Third Platform Title", pending.IncomingValue)

	_, total, err = env.conflictRepo.FindAllForCatalog(ctx, c.ID, conflict.Filter{}, shared.DefaultFilter())
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestSyncService_OverwriteStrategyAppliesIncoming(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.seedCatalog(t, catalog.StrategyOverwrite)

	records := []sync.SourceRecord{{
		CoreProductID: "core-a",
		SKU:           "SKU-a",
		Fields:        catalog.FieldSet{catalog.FieldTitle: "Item a", catalog.FieldAdTitle: "v1"},
	}}
	startAndWait(t, env.newService(t, platform.NewFakeProductSource(records)), c, StartSyncRequest{})

	product, err := env.productRepo.FindByCoreProductID(ctx, c.ID, "core-a")
	require.NoError(t, err)
	require.NoError(t, product.CustomizeAdField(catalog.FieldAdTitle, "merchant"))
	require.NoError(t, env.productRepo.Save(ctx, product))

	records[0].Fields[catalog.FieldAdTitle] = "v2"
	job := startAndWait(t, env.newService(t, platform.NewFakeProductSource(records)), c, StartSyncRequest{})
	assert.Equal(t, 1, job.Conflicted)

	product, err = env.productRepo.FindByCoreProductID(ctx, c.ID, "core-a")
	require.NoError(t, err)
	assert.Equal(t, "v2", product.AdTitle)
}

func TestSyncService_SourceOutageFailsAndResumes(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t, catalog.StrategyManual)

	source := platform.NewFakeProductSource(sourceRecords(5))
	source.FailAfterPages = 1
	job := startAndWait(t, env.newService(t, source), c, StartSyncRequest{})

	assert.Equal(t, "failed", job.Status)
	assert.Contains(t, job.FailureReason, "source fetch failed")
	assert.Equal(t, 2, job.Processed)
	assert.Equal(t, "2", job.Cursor)

	// A new run resumes from the checkpoint instead of restarting
	healthy := platform.NewFakeProductSource(sourceRecords(5))
	resumed := startAndWait(t, env.newService(t, healthy), c, StartSyncRequest{})

	assert.Equal(t, "succeeded", resumed.Status)
	assert.Equal(t, 3, resumed.Processed)

	count, err := env.productRepo.CountByCatalog(context.Background(), c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 5, count)
}

func TestSyncService_FullResyncIgnoresCheckpoint(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t, catalog.StrategyManual)

	source := platform.NewFakeProductSource(sourceRecords(5))
	source.FailAfterPages = 1
	startAndWait(t, env.newService(t, source), c, StartSyncRequest{})

	healthy := platform.NewFakeProductSource(sourceRecords(5))
	job := startAndWait(t, env.newService(t, healthy), c, StartSyncRequest{FullResync: true})

	assert.Equal(t, "succeeded", job.Status)
	assert.Equal(t, 5, job.Processed)
}

func TestSyncService_ErrorThresholdAborts(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.ErrorThreshold = 2
	c := env.seedCatalog(t, catalog.StrategyManual)

	// Records without a core product id fail one by one
	records := make([]sync.SourceRecord, 4)
	for i := range records {
		records[i] = sync.SourceRecord{SKU: "broken"}
	}
	job := startAndWait(t, env.newService(t, platform.NewFakeProductSource(records)), c, StartSyncRequest{})

	assert.Equal(t, "failed", job.Status)
	assert.Equal(t, 2, job.Failed)
	assert.Contains(t, job.FailureReason, "record failures")
}

func TestSyncService_LockBlocksConcurrentStart(t *testing.T) {
	env := newTestEnv(t)
	c := env.seedCatalog(t, catalog.StrategyManual)
	service := env.newService(t, platform.NewFakeProductSource(sourceRecords(1)))

	// Hold the catalog lock as if another pipeline were running
	release, err := env.locker.Acquire(context.Background(), c.ID, time.Minute)
	require.NoError(t, err)
	defer release()

	_, err = service.Start(context.Background(), c.MerchantID, c.ID, StartSyncRequest{})
	assert.ErrorIs(t, err, shared.ErrJobAlreadyRunning)
}

func TestSyncService_InactiveCatalogRejected(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.seedCatalog(t, catalog.StrategyManual)
	require.NoError(t, c.Pause())
	require.NoError(t, env.catalogRepo.Save(ctx, c))

	service := env.newService(t, platform.NewFakeProductSource(nil))
	_, err := service.Start(ctx, c.MerchantID, c.ID, StartSyncRequest{})
	assert.Error(t, err)
}

func TestSyncService_CancelActiveJob(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	c := env.seedCatalog(t, catalog.StrategyManual)

	// Persist a running job directly and flag it
	job := sync.NewSyncJob(c.MerchantID, c.ID)
	require.NoError(t, job.Start())
	require.NoError(t, env.jobRepo.Save(ctx, job))

	service := env.newService(t, platform.NewFakeProductSource(nil))
	cancelled, err := service.Cancel(ctx, c.ID)
	require.NoError(t, err)
	assert.Equal(t, "cancelling", cancelled.Status)

	_, err = service.Cancel(ctx, uuid.New())
	assert.ErrorIs(t, err, shared.ErrNotFound)
}
