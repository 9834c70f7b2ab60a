package catalogapp

import (
	"testing"

	"github.com/adfeed/backend/internal/domain/bulkimport"
	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/adfeed/backend/internal/domain/feed"
	"github.com/adfeed/backend/internal/domain/sync"
	"github.com/adfeed/backend/internal/infrastructure/persistence"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// testEnv wires the catalog services against an in-memory database
type testEnv struct {
	db              *gorm.DB
	catalogRepo     catalog.CatalogRepository
	productRepo     catalog.ProductRepository
	customRepo      catalog.CustomizationRepository
	conflictRepo    conflict.ConflictRepository
	syncJobRepo     sync.SyncJobRepository
	importJobRepo   bulkimport.ImportJobRepository
	feedRepo        feed.FeedRepository
	catalogService  *CatalogService
	productService  *ProductService
	conflictService *ConflictService
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
		&catalog.ProductCustomization{},
		&conflict.Conflict{},
		&sync.SyncJob{},
		&bulkimport.BulkImportJob{},
		&feed.Feed{},
	))

	env := &testEnv{
		db:            db,
		catalogRepo:   persistence.NewGormCatalogRepository(db),
		productRepo:   persistence.NewGormProductRepository(db),
		customRepo:    persistence.NewGormCustomizationRepository(db),
		conflictRepo:  persistence.NewGormConflictRepository(db),
		syncJobRepo:   persistence.NewGormSyncJobRepository(db),
		importJobRepo: persistence.NewGormImportJobRepository(db),
		feedRepo:      persistence.NewGormFeedRepository(db),
	}
	env.catalogService = NewCatalogService(
		env.catalogRepo, env.productRepo, env.customRepo, env.conflictRepo,
		env.syncJobRepo, env.importJobRepo, env.feedRepo,
	)
	env.productService = NewProductService(env.catalogRepo, env.productRepo, env.customRepo)
	env.conflictService = NewConflictService(env.conflictRepo, env.productRepo)
	return env
}
