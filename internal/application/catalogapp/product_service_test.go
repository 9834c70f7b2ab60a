package catalogapp

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func (env *testEnv) seedCatalog(t *testing.T, merchantID uuid.UUID) uuid.UUID {
	t.Helper()
	created, err := env.catalogService.Create(context.Background(), merchantID, CreateCatalogRequest{
		Name: "Catalog", SourcePlatform: "shopify",
	})
	require.NoError(t, err)
	return created.ID
}

func TestProductService_Create(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merchantID := uuid.New()
	catalogID := env.seedCatalog(t, merchantID)

	created, err := env.productService.Create(ctx, merchantID, catalogID, CreateProductRequest{
		SKU:   "A-1",
		Title: "Wool Socks",
		Fields: map[string]string{
			"price":       "9.99",
			"stock_level": "12",
			"attr:color":  "red",
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "A-1", created.SKU)
	assert.Equal(t, "9.99", created.Price)
	assert.Equal(t, 12, created.StockLevel)
	assert.Equal(t, "red", created.CustomAttributes["color"])
	assert.Nil(t, created.CoreProductID)
	assert.False(t, created.IsOverride)
}

func TestProductService_CreateDuplicateSKU(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merchantID := uuid.New()
	catalogID := env.seedCatalog(t, merchantID)

	_, err := env.productService.Create(ctx, merchantID, catalogID, CreateProductRequest{SKU: "A-1", Title: "Socks"})
	require.NoError(t, err)

	_, err = env.productService.Create(ctx, merchantID, catalogID, CreateProductRequest{SKU: "A-1", Title: "Other"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SKU")
}

func TestProductService_ListPages(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merchantID := uuid.New()
	catalogID := env.seedCatalog(t, merchantID)

	for _, sku := range []string{"A-1", "A-2", "A-3", "A-4", "A-5"} {
		_, err := env.productService.Create(ctx, merchantID, catalogID, CreateProductRequest{SKU: sku, Title: "Item"})
		require.NoError(t, err)
	}

	var all []ProductResponse
	var afterID *uuid.UUID
	pages := 0
	for {
		page, err := env.productService.List(ctx, catalogID, ProductListRequest{AfterID: afterID, Limit: 2})
		require.NoError(t, err)
		all = append(all, page.Items...)
		pages++
		if !page.HasMore {
			break
		}
		last := page.Items[len(page.Items)-1].ID
		afterID = &last
	}

	assert.Len(t, all, 5)
	assert.Equal(t, 3, pages)
	seen := map[uuid.UUID]bool{}
	for _, item := range all {
		assert.False(t, seen[item.ID], "product %s returned twice", item.SKU)
		seen[item.ID] = true
	}
}

func TestProductService_CustomizeAdFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merchantID := uuid.New()
	catalogID := env.seedCatalog(t, merchantID)

	created, err := env.productService.Create(ctx, merchantID, catalogID, CreateProductRequest{SKU: "A-1", Title: "Socks"})
	require.NoError(t, err)

	updated, err := env.productService.CustomizeAdFields(ctx, catalogID, created.ID, CustomizeFieldsRequest{
		Fields: map[string]string{"ad_title": "Cozy Wool Socks"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Cozy Wool Socks", updated.AdTitle)
	assert.True(t, updated.IsOverride)
}

func TestProductService_CustomizeRejectsCanonicalFields(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merchantID := uuid.New()
	catalogID := env.seedCatalog(t, merchantID)

	created, err := env.productService.Create(ctx, merchantID, catalogID, CreateProductRequest{SKU: "A-1", Title: "Socks"})
	require.NoError(t, err)

	_, err = env.productService.CustomizeAdFields(ctx, catalogID, created.ID, CustomizeFieldsRequest{
		Fields: map[string]string{"price": "0.01"},
	})
	assert.Error(t, err)
}

func TestProductService_UpsertCustomization(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	merchantID := uuid.New()
	catalogID := env.seedCatalog(t, merchantID)

	created, err := env.productService.Create(ctx, merchantID, catalogID, CreateProductRequest{SKU: "A-1", Title: "Socks"})
	require.NoError(t, err)

	first, err := env.productService.UpsertCustomization(ctx, catalogID, created.ID, "google_shopping", UpsertCustomizationRequest{
		Title:      "Google Title",
		Attributes: map[string]string{"brand": "Acme"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Google Title", first.Title)
	assert.Equal(t, "Acme", first.Attributes["brand"])

	// Upserting again replaces instead of duplicating
	second, err := env.productService.UpsertCustomization(ctx, catalogID, created.ID, "google_shopping", UpsertCustomizationRequest{
		Title: "Better Title",
	})
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Better Title", second.Title)

	list, err := env.productService.ListCustomizations(ctx, catalogID, created.ID)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
