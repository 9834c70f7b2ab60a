package catalog

import "strings"

// Product field identifiers used across conflict detection, bulk import,
// and feed mapping. Values always travel in canonical string form so a
// Conflict row can store incoming/current verbatim (price as a decimal
// string, stock as an integer string).
const (
	FieldSKU           = "sku"
	FieldTitle         = "title"
	FieldDescription   = "description"
	FieldPrice         = "price"
	FieldImageURL      = "image_url"
	FieldStockLevel    = "stock_level"
	FieldAdTitle       = "ad_title"
	FieldAdDescription = "ad_description"

	// AttrFieldPrefix addresses one key of the open custom attribute map,
	// e.g. "attr:color".
	AttrFieldPrefix = "attr:"
)

// CanonicalFields lists the platform-sourced fields in a stable order
func CanonicalFields() []string {
	return []string{FieldTitle, FieldDescription, FieldPrice, FieldImageURL, FieldStockLevel}
}

// IsAdSpecificField reports whether a field belongs to the ad-specific
// category. Only ad-specific fields are protected by the override flag;
// canonical platform fields always accept fresh values from a sync.
func IsAdSpecificField(field string) bool {
	if strings.HasPrefix(field, AttrFieldPrefix) {
		return true
	}
	return field == FieldAdTitle || field == FieldAdDescription
}

// IsKnownField reports whether a field identifier is recognized
func IsKnownField(field string) bool {
	if strings.HasPrefix(field, AttrFieldPrefix) {
		return len(field) > len(AttrFieldPrefix)
	}
	switch field {
	case FieldSKU, FieldTitle, FieldDescription, FieldPrice, FieldImageURL,
		FieldStockLevel, FieldAdTitle, FieldAdDescription:
		return true
	}
	return false
}

// AttrField returns the field identifier for a custom attribute key
func AttrField(key string) string {
	return AttrFieldPrefix + key
}

// AttrKey returns the attribute key for an attr field identifier,
// or "" if the field is not an attribute field.
func AttrKey(field string) string {
	if !strings.HasPrefix(field, AttrFieldPrefix) {
		return ""
	}
	return field[len(AttrFieldPrefix):]
}

// FieldSet is one incoming set of field values for a product, keyed by
// field identifier with values in canonical string form.
type FieldSet map[string]string

// Clone returns a copy of the field set
func (fs FieldSet) Clone() FieldSet {
	out := make(FieldSet, len(fs))
	for k, v := range fs {
		out[k] = v
	}
	return out
}
