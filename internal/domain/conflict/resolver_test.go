package conflict

import (
	"testing"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detectionWithConflict(t *testing.T) (*catalog.Product, Detection) {
	t.Helper()
	p, err := catalog.NewProduct(uuid.New(), uuid.New(), "A1", "Shoe")
	require.NoError(t, err)
	require.NoError(t, p.CustomizeAdField(catalog.FieldAdTitle, "Best Shoe Ever"))

	det := Detect(p, catalog.FieldSet{
		catalog.FieldTitle:   "Running Shoe",
		catalog.FieldAdTitle: "Shoe v2",
	})
	require.True(t, det.HasConflicts())
	return p, det
}

func TestResolve_Overwrite(t *testing.T) {
	p, det := detectionWithConflict(t)

	res, err := Resolve(p, det, catalog.StrategyOverwrite, SourceSync)
	require.NoError(t, err)

	assert.Equal(t, "Shoe v2", res.Applied[catalog.FieldAdTitle])
	assert.Equal(t, "Running Shoe", res.Applied[catalog.FieldTitle])
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, StatusResolved, rec.Status)
	assert.Equal(t, ChoiceIncoming, rec.ResolutionChosen)
	assert.Equal(t, ResolvedBySystem, rec.ResolvedBy)
}

func TestResolve_Skip(t *testing.T) {
	p, det := detectionWithConflict(t)

	res, err := Resolve(p, det, catalog.StrategySkip, SourceSync)
	require.NoError(t, err)

	assert.NotContains(t, res.Applied, catalog.FieldAdTitle)
	assert.Equal(t, "Running Shoe", res.Applied[catalog.FieldTitle])
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, StatusResolved, rec.Status)
	assert.Equal(t, ChoiceCurrent, rec.ResolutionChosen)
}

func TestResolve_Merge(t *testing.T) {
	t.Run("current wins when non-empty", func(t *testing.T) {
		p, det := detectionWithConflict(t)

		res, err := Resolve(p, det, catalog.StrategyMerge, SourceSync)
		require.NoError(t, err)

		assert.NotContains(t, res.Applied, catalog.FieldAdTitle)
		require.Len(t, res.Records, 1)
		assert.Equal(t, ChoiceCurrent, res.Records[0].ResolutionChosen)
	})

	t.Run("incoming wins when current empty", func(t *testing.T) {
		p, err := catalog.NewProduct(uuid.New(), uuid.New(), "A1", "Shoe")
		require.NoError(t, err)
		// Override recorded but value since cleared to empty
		require.NoError(t, p.CustomizeAdField(catalog.FieldAdTitle, "x"))
		require.NoError(t, p.ApplyField(catalog.FieldAdTitle, ""))

		det := Detect(p, catalog.FieldSet{catalog.FieldAdTitle: "Shoe v2"})
		require.True(t, det.HasConflicts())

		res, err := Resolve(p, det, catalog.StrategyMerge, SourceSync)
		require.NoError(t, err)

		assert.Equal(t, "Shoe v2", res.Applied[catalog.FieldAdTitle])
		require.Len(t, res.Records, 1)
		assert.Equal(t, ChoiceIncoming, res.Records[0].ResolutionChosen)
	})
}

func TestResolve_Manual(t *testing.T) {
	p, det := detectionWithConflict(t)

	res, err := Resolve(p, det, catalog.StrategyManual, SourceBulkImport)
	require.NoError(t, err)

	assert.NotContains(t, res.Applied, catalog.FieldAdTitle)
	assert.Equal(t, "Running Shoe", res.Applied[catalog.FieldTitle])
	require.Len(t, res.Records, 1)
	rec := res.Records[0]
	assert.Equal(t, StatusPending, rec.Status)
	assert.True(t, rec.IsPending())
	assert.Equal(t, SourceBulkImport, rec.SourceOfIncoming)
	assert.Empty(t, rec.ResolvedBy)
}

func TestResolve_UnknownStrategyDefaultsToManual(t *testing.T) {
	p, det := detectionWithConflict(t)

	res, err := Resolve(p, det, catalog.ConflictResolutionStrategy("bogus"), SourceSync)
	require.NoError(t, err)

	assert.True(t, res.StrategyDefaulted)
	assert.NotContains(t, res.Applied, catalog.FieldAdTitle)
	require.Len(t, res.Records, 1)
	assert.Equal(t, StatusPending, res.Records[0].Status)
}

func TestResolve_CreateAppliesEverything(t *testing.T) {
	det := Detect(nil, catalog.FieldSet{
		catalog.FieldTitle: "Shoe",
		catalog.FieldPrice: "10.00",
	})

	res, err := Resolve(nil, det, catalog.StrategyManual, SourceSync)
	require.NoError(t, err)

	assert.Len(t, res.Applied, 2)
	assert.Empty(t, res.Records)
}

func TestConflict_Lifecycle(t *testing.T) {
	c, err := NewConflict(uuid.New(), uuid.New(), uuid.New(),
		catalog.FieldAdTitle, "Shoe v2", "Best Shoe Ever", SourceSync)
	require.NoError(t, err)
	assert.True(t, c.IsPending())

	require.NoError(t, c.ResolveWithValue("Merchant Pick", "merchant-1"))
	assert.Equal(t, StatusResolved, c.Status)
	assert.Equal(t, ChoiceCustom, c.ResolutionChosen)
	assert.Equal(t, "Merchant Pick", c.ResolvedValue)
	assert.NotNil(t, c.ResolvedAt)

	// Terminal conflicts cannot transition again
	assert.Error(t, c.ResolveWithIncoming(ResolvedBySystem))
	assert.Error(t, c.Ignore("merchant-1"))
}

func TestConflict_RefreshIncoming(t *testing.T) {
	c, err := NewConflict(uuid.New(), uuid.New(), uuid.New(),
		catalog.FieldAdTitle, "Shoe v2", "Best Shoe Ever", SourceSync)
	require.NoError(t, err)

	require.NoError(t, c.RefreshIncoming("Shoe v3", SourceBulkImport))
	assert.Equal(t, "Shoe v3", c.IncomingValue)
	assert.Equal(t, SourceBulkImport, c.SourceOfIncoming)
	assert.True(t, c.IsPending())

	assert.Error(t, c.RefreshIncoming("x", Source("carrier-pigeon")))

	require.NoError(t, c.ResolveWithCurrent("merchant-1"))
	assert.Error(t, c.RefreshIncoming("Shoe v4", SourceSync))
}

func TestConflict_Ignore(t *testing.T) {
	c, err := NewConflict(uuid.New(), uuid.New(), uuid.New(),
		catalog.FieldAdTitle, "a", "b", SourceBulkImport)
	require.NoError(t, err)

	require.NoError(t, c.Ignore("merchant-1"))
	assert.Equal(t, StatusIgnored, c.Status)
	assert.Equal(t, "merchant-1", c.ResolvedBy)
}
