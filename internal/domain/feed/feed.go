package feed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Format represents the output format of a generated feed
type Format string

const (
	FormatCSV Format = "csv"
	FormatXML Format = "xml"
)

// IsValid checks if the format is valid
func (f Format) IsValid() bool {
	return f == FormatCSV || f == FormatXML
}

// Status represents the status of a feed
type Status string

const (
	StatusPending    Status = "pending"
	StatusGenerating Status = "generating"
	StatusReady      Status = "ready"
	StatusFailed     Status = "failed"
)

// IsValid checks if the status is valid
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusGenerating, StatusReady, StatusFailed:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s Status) IsTerminal() bool {
	return s == StatusReady || s == StatusFailed
}

// ItemDefect records a per-item mapping problem found during generation.
// Defects never abort generation, the writer skips the field and moves on.
type ItemDefect struct {
	ItemID  string `json:"item_id"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Feed is one generated, network-formatted export of a catalog. Ready means
// the artifact was written without I/O error; item-level validity lives in
// the defect list and the validator.
type Feed struct {
	shared.MerchantAggregateRoot
	CatalogID   uuid.UUID `gorm:"type:uuid;not null;index"`
	AdNetworkID string    `gorm:"type:varchar(100);not null;index"`
	Format      Format    `gorm:"type:varchar(10);not null"`
	Status      Status    `gorm:"type:varchar(20);not null;default:'pending';index"`
	ItemCount   int       `gorm:"not null;default:0"`
	// FileLocation is the opaque artifact store reference of the output
	FileLocation string `gorm:"type:varchar(1000)"`
	// DefectList holds per-item mapping errors as a JSON array
	DefectList    string `gorm:"type:jsonb;default:'[]'"`
	FailureReason string `gorm:"type:varchar(500)"`
	GeneratedAt   *time.Time
}

// TableName returns the table name for GORM
func (Feed) TableName() string {
	return "feeds"
}

// NewFeed creates a pending feed for one catalog and ad network
func NewFeed(merchantID, catalogID uuid.UUID, adNetworkID string, format Format) (*Feed, error) {
	if adNetworkID == "" {
		return nil, shared.NewDomainError("INVALID_AD_NETWORK", "Ad network ID cannot be empty")
	}
	if !format.IsValid() {
		return nil, shared.NewDomainError("INVALID_FEED_FORMAT", fmt.Sprintf("Unsupported feed format: %s", format))
	}

	return &Feed{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		CatalogID:             catalogID,
		AdNetworkID:           adNetworkID,
		Format:                format,
		Status:                StatusPending,
		DefectList:            "[]",
	}, nil
}

// StartGenerating marks the feed as generating
func (f *Feed) StartGenerating() error {
	if f.Status != StatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot start generating a feed in state "+string(f.Status))
	}

	f.Status = StatusGenerating
	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	return nil
}

// MarkReady records the finished artifact. Defects are carried along, a
// feed with defects is still Ready.
func (f *Feed) MarkReady(fileLocation string, itemCount int, defects []ItemDefect) error {
	if f.Status != StatusGenerating {
		return shared.NewDomainError("INVALID_STATE", "Cannot mark ready a feed in state "+string(f.Status))
	}
	if fileLocation == "" {
		return shared.NewDomainError("INVALID_FILE_LOCATION", "File location cannot be empty")
	}

	if err := f.setDefectList(defects); err != nil {
		return err
	}

	now := time.Now()
	f.Status = StatusReady
	f.FileLocation = fileLocation
	f.ItemCount = itemCount
	f.GeneratedAt = &now
	f.UpdatedAt = now
	f.IncrementVersion()

	return nil
}

// MarkFailed records a generation failure (writer or store I/O error)
func (f *Feed) MarkFailed(reason string) error {
	if f.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Feed is already terminal")
	}

	f.Status = StatusFailed
	f.FailureReason = reason
	f.UpdatedAt = time.Now()
	f.IncrementVersion()

	return nil
}

// IsDownloadable returns true when the artifact can be served
func (f *Feed) IsDownloadable() bool {
	return f.Status == StatusReady && f.FileLocation != ""
}

// Defects returns the per-item defect list recorded during generation
func (f *Feed) Defects() ([]ItemDefect, error) {
	if f.DefectList == "" || f.DefectList == "[]" {
		return []ItemDefect{}, nil
	}
	var defects []ItemDefect
	if err := json.Unmarshal([]byte(f.DefectList), &defects); err != nil {
		return nil, fmt.Errorf("failed to unmarshal feed defects: %w", err)
	}
	return defects, nil
}

func (f *Feed) setDefectList(defects []ItemDefect) error {
	if len(defects) == 0 {
		f.DefectList = "[]"
		return nil
	}
	data, err := json.Marshal(defects)
	if err != nil {
		return fmt.Errorf("failed to marshal feed defects: %w", err)
	}
	f.DefectList = string(data)
	return nil
}
