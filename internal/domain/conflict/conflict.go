package conflict

import (
	"time"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Source identifies which pipeline produced an incoming value
type Source string

const (
	SourceSync       Source = "sync"
	SourceBulkImport Source = "bulk_import"
)

// IsValid checks if the source is valid
func (s Source) IsValid() bool {
	return s == SourceSync || s == SourceBulkImport
}

// Status represents the lifecycle of a conflict record
type Status string

const (
	StatusPending  Status = "pending"
	StatusResolved Status = "resolved"
	StatusIgnored  Status = "ignored"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusResolved, StatusIgnored:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusResolved || s == StatusIgnored
}

// ResolutionChoice records which side of a conflict won
type ResolutionChoice string

const (
	ChoiceIncoming ResolutionChoice = "incoming"
	ChoiceCurrent  ResolutionChoice = "current"
	ChoiceCustom   ResolutionChoice = "custom"
)

// ResolvedBySystem marks resolutions produced by the automatic strategy path
const ResolvedBySystem = "system"

// Conflict records one detected disagreement between an incoming value and
// a merchant override. Conflicts are an audit trail: they are only ever
// marked resolved or ignored, never deleted.
type Conflict struct {
	shared.MerchantAggregateRoot
	CatalogID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	ProductID        uuid.UUID        `gorm:"type:uuid;not null;index"`
	Field            string           `gorm:"type:varchar(100);not null"`
	IncomingValue    string           `gorm:"type:text"`
	CurrentValue     string           `gorm:"type:text"`
	SourceOfIncoming Source           `gorm:"type:varchar(20);not null"`
	Status           Status           `gorm:"type:varchar(20);not null;default:'pending';index"`
	ResolutionChosen ResolutionChoice `gorm:"type:varchar(20)"`
	ResolvedValue    string           `gorm:"type:text"`
	ResolvedAt       *time.Time
	ResolvedBy       string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (Conflict) TableName() string {
	return "conflicts"
}

// NewConflict creates a pending conflict record
func NewConflict(merchantID, catalogID, productID uuid.UUID, field, incoming, current string, source Source) (*Conflict, error) {
	if field == "" {
		return nil, shared.NewDomainError("INVALID_FIELD", "Conflict field cannot be empty")
	}
	if !source.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE", "Unknown conflict source")
	}

	return &Conflict{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		CatalogID:             catalogID,
		ProductID:             productID,
		Field:                 field,
		IncomingValue:         incoming,
		CurrentValue:          current,
		SourceOfIncoming:      source,
		Status:                StatusPending,
	}, nil
}

// ResolveWithIncoming marks the conflict resolved in favor of the incoming value
func (c *Conflict) ResolveWithIncoming(by string) error {
	return c.resolve(ChoiceIncoming, c.IncomingValue, by)
}

// ResolveWithCurrent marks the conflict resolved in favor of the stored value
func (c *Conflict) ResolveWithCurrent(by string) error {
	return c.resolve(ChoiceCurrent, c.CurrentValue, by)
}

// ResolveWithValue marks the conflict resolved with a merchant-supplied value
func (c *Conflict) ResolveWithValue(value, by string) error {
	return c.resolve(ChoiceCustom, value, by)
}

// Ignore dismisses the conflict without applying either value
func (c *Conflict) Ignore(by string) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Conflict is already "+string(c.Status))
	}

	now := time.Now()
	c.Status = StatusIgnored
	c.ResolvedAt = &now
	c.ResolvedBy = by
	c.UpdatedAt = now
	c.IncrementVersion()

	return nil
}

// RefreshIncoming updates a pending conflict with the value delivered by a
// re-run. Keeping the existing row is what guarantees at most one pending
// conflict per (product, field).
func (c *Conflict) RefreshIncoming(incoming string, source Source) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Conflict is already "+string(c.Status))
	}
	if !source.IsValid() {
		return shared.NewDomainError("INVALID_SOURCE", "Unknown conflict source")
	}

	c.IncomingValue = incoming
	c.SourceOfIncoming = source
	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// IsPending returns true if the conflict awaits a decision
func (c *Conflict) IsPending() bool {
	return c.Status == StatusPending
}

func (c *Conflict) resolve(choice ResolutionChoice, value, by string) error {
	if c.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Conflict is already "+string(c.Status))
	}

	now := time.Now()
	c.Status = StatusResolved
	c.ResolutionChosen = choice
	c.ResolvedValue = value
	c.ResolvedAt = &now
	c.ResolvedBy = by
	c.UpdatedAt = now
	c.IncrementVersion()

	return nil
}
