package persistence

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockGormDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func productColumns() []string {
	return []string{"id", "merchant_id", "catalog_id", "core_product_id", "sku", "title",
		"description", "price", "image_url", "stock_level", "ad_title", "ad_description",
		"custom_attributes", "overridden_fields", "is_override"}
}

func TestGormProductRepository_FindBySKU(t *testing.T) {
	t.Run("finds product by SKU", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		productID := uuid.New()
		merchantID := uuid.New()
		catalogID := uuid.New()

		rows := sqlmock.NewRows(productColumns()).
			AddRow(productID, merchantID, catalogID, "core-1", "SKU-1", "Wool socks",
				"", decimal.RequireFromString("9.99"), "", 5, "", "", "{}", "[]", false)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE catalog_id = \$1 AND sku = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(catalogID, "SKU-1", 1).
			WillReturnRows(rows)

		product, err := repo.FindBySKU(context.Background(), catalogID, "SKU-1")

		assert.NoError(t, err)
		require.NotNil(t, product)
		assert.Equal(t, productID, product.ID)
		assert.Equal(t, "SKU-1", product.SKU)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound for missing product", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		catalogID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "products" WHERE catalog_id = \$1 AND sku = \$2 ORDER BY .* LIMIT .*`).
			WithArgs(catalogID, "SKU-X", 1).
			WillReturnError(gorm.ErrRecordNotFound)

		product, err := repo.FindBySKU(context.Background(), catalogID, "SKU-X")

		assert.Nil(t, product)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects empty SKU without querying", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		_, err := repo.FindBySKU(context.Background(), uuid.New(), "")
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormProductRepository_FindPage(t *testing.T) {
	t.Run("first page fetches limit plus one and reports more", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		merchantID := uuid.New()
		catalogID := uuid.New()
		rows := sqlmock.NewRows(productColumns())
		for _, sku := range []string{"SKU-1", "SKU-2", "SKU-3"} {
			rows.AddRow(uuid.New(), merchantID, catalogID, nil, sku, sku,
				"", decimal.RequireFromString("1.00"), "", 1, "", "", "{}", "[]", false)
		}

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE catalog_id = \$1 ORDER BY id ASC LIMIT .*`).
			WithArgs(catalogID, 3).
			WillReturnRows(rows)

		page, err := repo.FindPage(context.Background(), catalogID, nil, 2)

		require.NoError(t, err)
		assert.Len(t, page.Items, 2)
		assert.True(t, page.HasMore)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("final page has no more", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		merchantID := uuid.New()
		catalogID := uuid.New()
		afterID := uuid.New()
		rows := sqlmock.NewRows(productColumns()).
			AddRow(uuid.New(), merchantID, catalogID, nil, "SKU-9", "Last one",
				"", decimal.RequireFromString("2.50"), "", 1, "", "", "{}", "[]", false)

		mock.ExpectQuery(`SELECT \* FROM "products" WHERE catalog_id = \$1 AND id > \$2 ORDER BY id ASC LIMIT .*`).
			WithArgs(catalogID, afterID, 3).
			WillReturnRows(rows)

		page, err := repo.FindPage(context.Background(), catalogID, &afterID, 2)

		require.NoError(t, err)
		assert.Len(t, page.Items, 1)
		assert.False(t, page.HasMore)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejects non-positive limit", func(t *testing.T) {
		gormDB, _, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormProductRepository(gormDB)

		_, err := repo.FindPage(context.Background(), uuid.New(), nil, 0)
		assert.Error(t, err)
	})
}

func TestGormProductRepository_CountByCatalog(t *testing.T) {
	gormDB, mock, mockDB := newMockGormDB(t)
	defer mockDB.Close()
	repo := NewGormProductRepository(gormDB)

	catalogID := uuid.New()
	mock.ExpectQuery(`SELECT count\(\*\) FROM "products" WHERE catalog_id = \$1`).
		WithArgs(catalogID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))

	count, err := repo.CountByCatalog(context.Background(), catalogID)

	assert.NoError(t, err)
	assert.Equal(t, int64(42), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
