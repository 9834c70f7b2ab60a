package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func conflictColumns() []string {
	return []string{"id", "merchant_id", "catalog_id", "product_id", "field",
		"incoming_value", "current_value", "source_of_incoming", "status",
		"resolution_chosen", "resolved_value", "resolved_by"}
}

func TestGormConflictRepository_FindPendingForProductField(t *testing.T) {
	t.Run("finds pending conflict", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormConflictRepository(gormDB)

		conflictID := uuid.New()
		productID := uuid.New()

		rows := sqlmock.NewRows(conflictColumns()).
			AddRow(conflictID, uuid.New(), uuid.New(), productID, "ad_title",
				"New title", "Kept title", "sync", "pending", "", "", "")

		mock.ExpectQuery(`SELECT \* FROM "conflicts" WHERE product_id = \$1 AND field = \$2 AND status = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(productID, "ad_title", string(conflict.StatusPending), 1).
			WillReturnRows(rows)

		c, err := repo.FindPendingForProductField(context.Background(), productID, "ad_title")

		require.NoError(t, err)
		assert.Equal(t, conflictID, c.ID)
		assert.True(t, c.IsPending())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("returns ErrNotFound when none pending", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormConflictRepository(gormDB)

		productID := uuid.New()
		mock.ExpectQuery(`SELECT \* FROM "conflicts" WHERE product_id = \$1 AND field = \$2 AND status = \$3 ORDER BY .* LIMIT .*`).
			WithArgs(productID, "ad_title", string(conflict.StatusPending), 1).
			WillReturnError(gorm.ErrRecordNotFound)

		c, err := repo.FindPendingForProductField(context.Background(), productID, "ad_title")

		assert.Nil(t, c)
		assert.Equal(t, shared.ErrNotFound, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormConflictRepository_FindAllForCatalog(t *testing.T) {
	t.Run("filters by status and counts before pagination", func(t *testing.T) {
		gormDB, mock, mockDB := newMockGormDB(t)
		defer mockDB.Close()
		repo := NewGormConflictRepository(gormDB)

		catalogID := uuid.New()
		status := conflict.StatusPending

		mock.ExpectQuery(`SELECT count\(\*\) FROM "conflicts" WHERE catalog_id = \$1 AND status = \$2`).
			WithArgs(catalogID, string(status)).
			WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

		rows := sqlmock.NewRows(conflictColumns()).
			AddRow(uuid.New(), uuid.New(), catalogID, uuid.New(), "price",
				"10.00", "12.00", "bulk_import", "pending", "", "", "")

		mock.ExpectQuery(`SELECT \* FROM "conflicts" WHERE catalog_id = \$1 AND status = \$2 ORDER BY created_at DESC LIMIT .*`).
			WithArgs(catalogID, string(status), 20).
			WillReturnRows(rows)

		conflicts, total, err := repo.FindAllForCatalog(context.Background(), catalogID,
			conflict.Filter{Status: &status}, shared.DefaultFilter())

		require.NoError(t, err)
		assert.Equal(t, int64(7), total)
		assert.Len(t, conflicts, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
