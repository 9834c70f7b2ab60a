package conflict

import (
	"github.com/adfeed/backend/internal/domain/catalog"
)

// Resolution is the outcome of running a strategy over a detection result
type Resolution struct {
	// Applied holds the field values to write to the product
	Applied catalog.FieldSet
	// Records holds the conflict rows to persist (resolved or pending)
	Records []*Conflict
	// StrategyDefaulted is true when the supplied strategy was unknown and
	// the resolver fell back to manual. Callers should log a warning; the
	// fallback is never overwrite, to avoid destructive data loss on a
	// misconfigured catalog.
	StrategyDefaulted bool
}

// Resolve applies the catalog's conflict resolution strategy to a detection
// result. Clean updates are always applied; each conflicting field yields a
// conflict record whose status depends on the strategy:
//
//   - overwrite: incoming wins, record resolved as incoming
//   - skip:      current wins, record resolved as current
//   - merge:     incoming wins only when the current value is empty,
//     otherwise the merchant customization is kept
//   - manual:    nothing applied, record left pending for the merchant
func Resolve(stored *catalog.Product, det Detection, strategy catalog.ConflictResolutionStrategy, source Source) (Resolution, error) {
	res := Resolution{Applied: make(catalog.FieldSet, len(det.CleanUpdates))}

	if !strategy.IsValid() {
		strategy = catalog.StrategyManual
		res.StrategyDefaulted = true
	}

	for _, change := range det.CleanUpdates {
		res.Applied[change.Field] = change.Incoming
	}

	if det.IsCreate || len(det.Conflicts) == 0 {
		return res, nil
	}

	for _, change := range det.Conflicts {
		record, err := NewConflict(
			stored.MerchantID, stored.CatalogID, stored.ID,
			change.Field, change.Incoming, change.Current, source,
		)
		if err != nil {
			return Resolution{}, err
		}

		switch strategy {
		case catalog.StrategyOverwrite:
			if err := record.ResolveWithIncoming(ResolvedBySystem); err != nil {
				return Resolution{}, err
			}
			res.Applied[change.Field] = change.Incoming

		case catalog.StrategySkip:
			if err := record.ResolveWithCurrent(ResolvedBySystem); err != nil {
				return Resolution{}, err
			}

		case catalog.StrategyMerge:
			if change.Current == "" {
				if err := record.ResolveWithIncoming(ResolvedBySystem); err != nil {
					return Resolution{}, err
				}
				res.Applied[change.Field] = change.Incoming
			} else {
				if err := record.ResolveWithCurrent(ResolvedBySystem); err != nil {
					return Resolution{}, err
				}
			}

		case catalog.StrategyManual:
			// Left pending; the product stays unchanged for this field
			// until an explicit merchant resolution call.
		}

		res.Records = append(res.Records, record)
	}

	return res, nil
}
