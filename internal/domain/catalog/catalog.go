package catalog

import (
	"time"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CatalogStatus represents the status of a product catalog
type CatalogStatus string

const (
	CatalogStatusActive   CatalogStatus = "active"
	CatalogStatusPaused   CatalogStatus = "paused"
	CatalogStatusArchived CatalogStatus = "archived"
)

// IsValid checks if the status is valid
func (s CatalogStatus) IsValid() bool {
	switch s {
	case CatalogStatusActive, CatalogStatusPaused, CatalogStatusArchived:
		return true
	}
	return false
}

// ConflictResolutionStrategy is the catalog-level setting that decides how
// a sync or import resolves disagreements with merchant overrides
type ConflictResolutionStrategy string

const (
	// StrategyOverwrite applies the incoming value immediately
	StrategyOverwrite ConflictResolutionStrategy = "overwrite"
	// StrategySkip retains the current value
	StrategySkip ConflictResolutionStrategy = "skip"
	// StrategyMerge keeps the current value unless it is empty
	StrategyMerge ConflictResolutionStrategy = "merge"
	// StrategyManual records a pending conflict for merchant review
	StrategyManual ConflictResolutionStrategy = "manual"
)

// IsValid checks if the strategy is valid
func (s ConflictResolutionStrategy) IsValid() bool {
	switch s {
	case StrategyOverwrite, StrategySkip, StrategyMerge, StrategyManual:
		return true
	}
	return false
}

// ProductCatalog is the aggregate root for one merchant catalog whose
// canonical data originates from an external core commerce platform
type ProductCatalog struct {
	shared.MerchantAggregateRoot
	Name             string                     `gorm:"type:varchar(200);not null"`
	Status           CatalogStatus              `gorm:"type:varchar(20);not null;default:'active'"`
	SourcePlatform   string                     `gorm:"type:varchar(50);not null"`
	ConflictStrategy ConflictResolutionStrategy `gorm:"type:varchar(20);not null;default:'manual'"`
	LastSyncedAt     *time.Time
}

// TableName returns the table name for GORM
func (ProductCatalog) TableName() string {
	return "product_catalogs"
}

// NewProductCatalog creates a new catalog for a merchant
func NewProductCatalog(merchantID uuid.UUID, name, sourcePlatform string) (*ProductCatalog, error) {
	if err := validateCatalogName(name); err != nil {
		return nil, err
	}
	if sourcePlatform == "" {
		return nil, shared.NewDomainError("INVALID_SOURCE_PLATFORM", "Source platform cannot be empty")
	}

	c := &ProductCatalog{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		Name:                  name,
		Status:                CatalogStatusActive,
		SourcePlatform:        sourcePlatform,
		ConflictStrategy:      StrategyManual,
	}

	c.AddDomainEvent(NewCatalogCreatedEvent(c))

	return c, nil
}

// Update updates the catalog name
func (c *ProductCatalog) Update(name string) error {
	if err := validateCatalogName(name); err != nil {
		return err
	}

	c.Name = name
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// SetConflictStrategy changes the catalog-level conflict resolution strategy
func (c *ProductCatalog) SetConflictStrategy(strategy ConflictResolutionStrategy) error {
	if !strategy.IsValid() {
		return shared.NewDomainError("INVALID_STRATEGY", "Unknown conflict resolution strategy")
	}

	c.ConflictStrategy = strategy
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// MarkSynced records the completion time of the latest sync
func (c *ProductCatalog) MarkSynced(at time.Time) {
	c.LastSyncedAt = &at
	c.UpdatedAt = time.Now()
	c.IncrementVersion()
}

// Pause pauses the catalog
func (c *ProductCatalog) Pause() error {
	if c.Status == CatalogStatusArchived {
		return shared.NewDomainError("CANNOT_PAUSE", "Cannot pause an archived catalog")
	}
	if c.Status == CatalogStatusPaused {
		return shared.NewDomainError("ALREADY_PAUSED", "Catalog is already paused")
	}

	c.Status = CatalogStatusPaused
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Activate activates the catalog
func (c *ProductCatalog) Activate() error {
	if c.Status == CatalogStatusArchived {
		return shared.NewDomainError("CANNOT_ACTIVATE", "Cannot activate an archived catalog")
	}
	if c.Status == CatalogStatusActive {
		return shared.NewDomainError("ALREADY_ACTIVE", "Catalog is already active")
	}

	c.Status = CatalogStatusActive
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// Archive archives the catalog. An archived catalog cannot be reactivated.
func (c *ProductCatalog) Archive() error {
	if c.Status == CatalogStatusArchived {
		return shared.NewDomainError("ALREADY_ARCHIVED", "Catalog is already archived")
	}

	c.Status = CatalogStatusArchived
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// IsActive returns true if the catalog accepts syncs and imports
func (c *ProductCatalog) IsActive() bool {
	return c.Status == CatalogStatusActive
}

// validateCatalogName validates the catalog name
func validateCatalogName(name string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Catalog name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Catalog name cannot exceed 200 characters")
	}
	return nil
}
