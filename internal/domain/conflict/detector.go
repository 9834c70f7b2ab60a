package conflict

import (
	"sort"

	"github.com/adfeed/backend/internal/domain/catalog"
)

// FieldChange is one field of an incoming set compared against the store
type FieldChange struct {
	Field    string
	Incoming string
	Current  string
}

// Detection partitions an incoming field set into clean updates, conflicts,
// and no-ops
type Detection struct {
	// IsCreate is true when no stored product exists; a create never conflicts
	IsCreate bool
	// CleanUpdates are changes that may be applied without merchant input
	CleanUpdates []FieldChange
	// Conflicts are changes that collide with a merchant override
	Conflicts []FieldChange
	// NoOps lists fields whose incoming value equals the stored value
	NoOps []string
}

// HasConflicts returns true if any field collided with an override
func (d Detection) HasConflicts() bool {
	return len(d.Conflicts) > 0
}

// Detect compares an incoming field set against the currently stored
// product. A field is a conflict only when the stored value differs AND the
// field is an ad-specific field the merchant has overridden; canonical
// platform fields are always clean updates so catalogs stay fresh without
// merchant intervention.
//
// Detect is a pure function over its inputs; it never mutates the product
// and has no side effects.
func Detect(stored *catalog.Product, incoming catalog.FieldSet) Detection {
	det := Detection{}

	if stored == nil {
		det.IsCreate = true
		for _, field := range sortedFields(incoming) {
			det.CleanUpdates = append(det.CleanUpdates, FieldChange{Field: field, Incoming: incoming[field]})
		}
		return det
	}

	for _, field := range sortedFields(incoming) {
		value := incoming[field]
		current, known := stored.FieldValue(field)

		// Unknown fields pass through as clean updates; the apply step
		// rejects them and records a per-record failure.
		if known && current == value {
			det.NoOps = append(det.NoOps, field)
			continue
		}

		change := FieldChange{Field: field, Incoming: value, Current: current}
		if stored.IsFieldOverridden(field) {
			det.Conflicts = append(det.Conflicts, change)
		} else {
			det.CleanUpdates = append(det.CleanUpdates, change)
		}
	}

	return det
}

func sortedFields(fields catalog.FieldSet) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
