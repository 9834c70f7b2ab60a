package feedapp

import (
	"strconv"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/feed"
)

// mergeRecord flattens one product into the field set feed mapping reads
// from. Three layers, lowest to highest precedence: canonical platform
// fields, the product's ad-specific fields (falling back to the canonical
// copy when never set), and the per-network customization.
func mergeRecord(p *catalog.Product, custom *catalog.ProductCustomization) catalog.FieldSet {
	fields := make(catalog.FieldSet)
	fields[catalog.FieldSKU] = p.SKU
	fields[catalog.FieldTitle] = p.Title
	fields[catalog.FieldDescription] = p.Description
	fields[catalog.FieldPrice] = p.Price.String()
	fields[catalog.FieldImageURL] = p.ImageURL
	fields[catalog.FieldStockLevel] = strconv.Itoa(p.StockLevel)

	if attrs, err := p.Attributes(); err == nil {
		for key, value := range attrs {
			fields[catalog.AttrField(key)] = value
		}
	}

	fields[catalog.FieldAdTitle] = p.AdTitle
	if p.AdTitle == "" {
		fields[catalog.FieldAdTitle] = p.Title
	}
	fields[catalog.FieldAdDescription] = p.AdDescription
	if p.AdDescription == "" {
		fields[catalog.FieldAdDescription] = p.Description
	}

	if custom == nil {
		return fields
	}
	for field, value := range custom.FieldOverrides() {
		fields[field] = value
		// A customized title or description wins over the ad copy too,
		// otherwise networks reading ad_title would never see it
		switch field {
		case catalog.FieldTitle:
			fields[catalog.FieldAdTitle] = value
		case catalog.FieldDescription:
			fields[catalog.FieldAdDescription] = value
		}
	}
	return fields
}

// networkValues maps a merged record onto the network's field names
func networkValues(spec *feed.Spec, merged catalog.FieldSet) map[string]string {
	values := make(map[string]string, len(spec.Fields))
	for _, field := range spec.Fields {
		values[field.Name] = merged[field.Source]
	}
	return values
}
