// Package feedspec provides the built-in ad network field schemas.
package feedspec

import (
	"context"
	"sort"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/feed"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Ensure BuiltinRegistry implements feed.SpecRegistry
var _ feed.SpecRegistry = (*BuiltinRegistry)(nil)

// BuiltinRegistry serves the ad network specs compiled into the binary.
// Specs are immutable after construction so it is safe for concurrent use.
type BuiltinRegistry struct {
	specs map[string]*feed.Spec
}

// NewBuiltinRegistry creates a registry with all supported networks
func NewBuiltinRegistry() *BuiltinRegistry {
	specs := map[string]*feed.Spec{}
	for _, spec := range []*feed.Spec{
		googleShoppingSpec(),
		metaCatalogSpec(),
		criteoSpec(),
	} {
		specs[spec.AdNetworkID] = spec
	}
	return &BuiltinRegistry{specs: specs}
}

// Get returns the spec for an ad network
func (r *BuiltinRegistry) Get(ctx context.Context, adNetworkID string) (*feed.Spec, error) {
	spec, ok := r.specs[adNetworkID]
	if !ok {
		return nil, shared.ErrNotFound
	}
	return spec, nil
}

// Networks lists the known ad network IDs in stable order
func (r *BuiltinRegistry) Networks(ctx context.Context) []string {
	ids := make([]string, 0, len(r.specs))
	for id := range r.specs {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func decimalPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

// googleShoppingSpec follows the Merchant Center product data schema
func googleShoppingSpec() *feed.Spec {
	return &feed.Spec{
		AdNetworkID: "google_shopping",
		Name:        "Google Shopping",
		Fields: []feed.FieldSpec{
			{Name: "g:id", Source: catalog.FieldSKU, Type: feed.FieldTypeString, Required: true, MaxLength: 50},
			{Name: "g:title", Source: catalog.FieldAdTitle, Type: feed.FieldTypeString, Required: true, MaxLength: 150},
			{Name: "g:description", Source: catalog.FieldAdDescription, Type: feed.FieldTypeString, Required: true, MaxLength: 5000},
			{Name: "g:image_link", Source: catalog.FieldImageURL, Type: feed.FieldTypeURL, Required: true},
			{Name: "g:price", Source: catalog.FieldPrice, Type: feed.FieldTypeDecimal, Required: true, MinValue: decimalPtr("0")},
			{Name: "g:availability", Source: catalog.FieldStockLevel, Type: feed.FieldTypeInteger, Required: true, MinValue: decimalPtr("0")},
			{Name: "g:brand", Source: catalog.AttrField("brand"), Type: feed.FieldTypeString, MaxLength: 70},
			{Name: "g:gtin", Source: catalog.AttrField("gtin"), Type: feed.FieldTypeString, MaxLength: 50},
			{Name: "g:condition", Source: catalog.AttrField("condition"), Type: feed.FieldTypeString,
				AllowedValues: []string{"new", "refurbished", "used"}},
		},
	}
}

// metaCatalogSpec follows the Meta commerce catalog feed fields
func metaCatalogSpec() *feed.Spec {
	return &feed.Spec{
		AdNetworkID: "meta_catalog",
		Name:        "Meta Catalog",
		Fields: []feed.FieldSpec{
			{Name: "id", Source: catalog.FieldSKU, Type: feed.FieldTypeString, Required: true, MaxLength: 100},
			{Name: "title", Source: catalog.FieldAdTitle, Type: feed.FieldTypeString, Required: true, MaxLength: 200},
			{Name: "description", Source: catalog.FieldAdDescription, Type: feed.FieldTypeString, Required: true, MaxLength: 9999},
			{Name: "image_link", Source: catalog.FieldImageURL, Type: feed.FieldTypeURL, Required: true},
			{Name: "price", Source: catalog.FieldPrice, Type: feed.FieldTypeDecimal, Required: true, MinValue: decimalPtr("0")},
			{Name: "inventory", Source: catalog.FieldStockLevel, Type: feed.FieldTypeInteger, MinValue: decimalPtr("0")},
			{Name: "brand", Source: catalog.AttrField("brand"), Type: feed.FieldTypeString, MaxLength: 100},
			{Name: "condition", Source: catalog.AttrField("condition"), Type: feed.FieldTypeString,
				AllowedValues: []string{"new", "refurbished", "used"}},
		},
	}
}

// criteoSpec follows the Criteo product feed specification
func criteoSpec() *feed.Spec {
	return &feed.Spec{
		AdNetworkID: "criteo",
		Name:        "Criteo",
		Fields: []feed.FieldSpec{
			{Name: "id", Source: catalog.FieldSKU, Type: feed.FieldTypeString, Required: true, MaxLength: 240},
			{Name: "title", Source: catalog.FieldAdTitle, Type: feed.FieldTypeString, Required: true, MaxLength: 150},
			{Name: "description", Source: catalog.FieldAdDescription, Type: feed.FieldTypeString, MaxLength: 5000},
			{Name: "image_url", Source: catalog.FieldImageURL, Type: feed.FieldTypeURL, Required: true},
			{Name: "price", Source: catalog.FieldPrice, Type: feed.FieldTypeDecimal, Required: true, MinValue: decimalPtr("0")},
			{Name: "number_of_items_in_stock", Source: catalog.FieldStockLevel, Type: feed.FieldTypeInteger, MinValue: decimalPtr("0")},
			{Name: "brand", Source: catalog.AttrField("brand"), Type: feed.FieldTypeString, MaxLength: 100},
		},
	}
}
