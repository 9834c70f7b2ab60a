package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConflictResolutionStrategy_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		strategy ConflictResolutionStrategy
		want     bool
	}{
		{"overwrite", StrategyOverwrite, true},
		{"skip", StrategySkip, true},
		{"merge", StrategyMerge, true},
		{"manual", StrategyManual, true},
		{"invalid", ConflictResolutionStrategy("upsert"), false},
		{"empty", ConflictResolutionStrategy(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.strategy.IsValid())
		})
	}
}

func TestNewProductCatalog(t *testing.T) {
	t.Run("creates active catalog with manual strategy", func(t *testing.T) {
		merchantID := uuid.New()

		c, err := NewProductCatalog(merchantID, "Main Store", "shopline")
		require.NoError(t, err)

		assert.Equal(t, merchantID, c.MerchantID)
		assert.Equal(t, CatalogStatusActive, c.Status)
		assert.Equal(t, StrategyManual, c.ConflictStrategy)
		assert.Nil(t, c.LastSyncedAt)
		assert.Len(t, c.GetDomainEvents(), 1)
	})

	t.Run("rejects empty name", func(t *testing.T) {
		_, err := NewProductCatalog(uuid.New(), "", "shopline")
		assert.Error(t, err)
	})

	t.Run("rejects empty source platform", func(t *testing.T) {
		_, err := NewProductCatalog(uuid.New(), "Main Store", "")
		assert.Error(t, err)
	})
}

func TestProductCatalog_SetConflictStrategy(t *testing.T) {
	c, err := NewProductCatalog(uuid.New(), "Main Store", "shopline")
	require.NoError(t, err)

	require.NoError(t, c.SetConflictStrategy(StrategyOverwrite))
	assert.Equal(t, StrategyOverwrite, c.ConflictStrategy)

	assert.Error(t, c.SetConflictStrategy(ConflictResolutionStrategy("nope")))
	assert.Equal(t, StrategyOverwrite, c.ConflictStrategy)
}

func TestProductCatalog_StatusTransitions(t *testing.T) {
	c, err := NewProductCatalog(uuid.New(), "Main Store", "shopline")
	require.NoError(t, err)

	require.NoError(t, c.Pause())
	assert.Equal(t, CatalogStatusPaused, c.Status)
	assert.Error(t, c.Pause())

	require.NoError(t, c.Activate())
	assert.Equal(t, CatalogStatusActive, c.Status)
	assert.Error(t, c.Activate())

	require.NoError(t, c.Archive())
	assert.Equal(t, CatalogStatusArchived, c.Status)
	assert.Error(t, c.Activate())
	assert.Error(t, c.Pause())
	assert.Error(t, c.Archive())
}

func TestProductCatalog_MarkSynced(t *testing.T) {
	c, err := NewProductCatalog(uuid.New(), "Main Store", "shopline")
	require.NoError(t, err)

	at := time.Now()
	c.MarkSynced(at)

	require.NotNil(t, c.LastSyncedAt)
	assert.Equal(t, at, *c.LastSyncedAt)
}

func TestProductCustomization_FieldOverrides(t *testing.T) {
	cust, err := NewProductCustomization(uuid.New(), uuid.New(), uuid.New(), "google_shopping")
	require.NoError(t, err)

	require.NoError(t, cust.Update("Network Title", "", "", map[string]string{"gender": "unisex"}))

	fields := cust.FieldOverrides()
	assert.Equal(t, "Network Title", fields[FieldTitle])
	assert.Equal(t, "unisex", fields[AttrField("gender")])
	assert.NotContains(t, fields, FieldDescription)
	assert.NotContains(t, fields, FieldImageURL)
}
