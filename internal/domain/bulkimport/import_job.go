package bulkimport

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// FileFormat represents the declared format of an uploaded import file
type FileFormat string

const (
	FormatCSV FileFormat = "csv"
	FormatXML FileFormat = "xml"
)

// IsValid checks if the format is valid
func (f FileFormat) IsValid() bool {
	return f == FormatCSV || f == FormatXML
}

// JobStatus represents the status of a bulk import job
type JobStatus string

const (
	JobStatusPending            JobStatus = "pending"
	JobStatusRunning            JobStatus = "running"
	JobStatusCancelling         JobStatus = "cancelling"
	JobStatusSucceeded          JobStatus = "succeeded"
	JobStatusFailed             JobStatus = "failed"
	JobStatusPartiallySucceeded JobStatus = "partially_succeeded"
)

// IsValid checks if the status is valid
func (s JobStatus) IsValid() bool {
	switch s {
	case JobStatusPending, JobStatusRunning, JobStatusCancelling,
		JobStatusSucceeded, JobStatusFailed, JobStatusPartiallySucceeded:
		return true
	}
	return false
}

// IsTerminal returns true if this is a terminal state
func (s JobStatus) IsTerminal() bool {
	switch s {
	case JobStatusSucceeded, JobStatusFailed, JobStatusPartiallySucceeded:
		return true
	}
	return false
}

// RowError records why a single row failed
type RowError struct {
	Row     int    `json:"row"`
	Column  string `json:"column,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e RowError) Error() string {
	if e.Column != "" {
		return fmt.Sprintf("row %d, column '%s': %s", e.Row, e.Column, e.Message)
	}
	return fmt.Sprintf("row %d: %s", e.Row, e.Message)
}

// BulkImportJob tracks one merchant file upload routed through the conflict
// pipeline. Jobs are mutated only by the import pipeline and become
// immutable once terminal.
type BulkImportJob struct {
	shared.MerchantAggregateRoot
	CatalogID  uuid.UUID  `gorm:"type:uuid;not null;index"`
	FileName   string     `gorm:"type:varchar(500);not null"`
	FileFormat FileFormat `gorm:"type:varchar(10);not null"`
	// ConflictMode overrides the catalog default strategy for this run only
	ConflictMode catalog.ConflictResolutionStrategy `gorm:"type:varchar(20);not null"`
	Status       JobStatus                          `gorm:"type:varchar(30);not null;default:'pending';index"`
	TotalRows    int                                `gorm:"not null;default:0"`
	CreatedRows  int                                `gorm:"not null;default:0"`
	UpdatedRows  int                                `gorm:"not null;default:0"`
	Conflicted   int                                `gorm:"not null;default:0"`
	FailedRows   int                                `gorm:"not null;default:0"`
	// ErrorList holds per-row failures as a JSON array, capped by the pipeline
	ErrorList     string `gorm:"type:jsonb;default:'[]'"`
	FailureReason string `gorm:"type:varchar(500)"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (BulkImportJob) TableName() string {
	return "bulk_import_jobs"
}

// NewBulkImportJob creates a pending import job
func NewBulkImportJob(merchantID, catalogID uuid.UUID, fileName string, format FileFormat, mode catalog.ConflictResolutionStrategy) (*BulkImportJob, error) {
	if fileName == "" {
		return nil, shared.NewDomainError("INVALID_FILE_NAME", "File name cannot be empty")
	}
	if !format.IsValid() {
		return nil, shared.NewDomainError("INVALID_FILE_FORMAT", fmt.Sprintf("Unsupported file format: %s", format))
	}
	if !mode.IsValid() {
		return nil, shared.NewDomainError("INVALID_CONFLICT_MODE", fmt.Sprintf("Unknown conflict mode: %s", mode))
	}

	return &BulkImportJob{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		CatalogID:             catalogID,
		FileName:              fileName,
		FileFormat:            format,
		ConflictMode:          mode,
		Status:                JobStatusPending,
		ErrorList:             "[]",
	}, nil
}

// Start marks the job as running
func (j *BulkImportJob) Start() error {
	if j.Status != JobStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot start an import job from state "+string(j.Status))
	}

	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()

	return nil
}

// RecordCreated counts one created product row
func (j *BulkImportJob) RecordCreated() {
	j.TotalRows++
	j.CreatedRows++
}

// RecordUpdated counts one updated product row
func (j *BulkImportJob) RecordUpdated() {
	j.TotalRows++
	j.UpdatedRows++
}

// RecordConflicted counts one row that produced conflict records
func (j *BulkImportJob) RecordConflicted() {
	j.TotalRows++
	j.Conflicted++
}

// RecordFailed counts one malformed or rejected row
func (j *BulkImportJob) RecordFailed() {
	j.TotalRows++
	j.FailedRows++
}

// Complete marks the job terminal: succeeded with zero failed rows,
// partially succeeded otherwise
func (j *BulkImportJob) Complete(errors []RowError) error {
	if j.Status != JobStatusRunning && j.Status != JobStatusCancelling {
		return shared.NewDomainError("INVALID_STATE", "Cannot complete an import job from state "+string(j.Status))
	}

	if err := j.setErrorList(errors); err != nil {
		return err
	}

	status := JobStatusSucceeded
	if j.FailedRows > 0 {
		status = JobStatusPartiallySucceeded
	}

	now := time.Now()
	j.Status = status
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()

	return nil
}

// Fail marks the job failed before or during processing. A totally
// malformed file (header mismatch) lands here with zero rows processed.
func (j *BulkImportJob) Fail(reason string, errors []RowError) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Import job is already terminal")
	}

	if err := j.setErrorList(errors); err != nil {
		return err
	}

	now := time.Now()
	j.Status = JobStatusFailed
	j.FailureReason = reason
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()

	return nil
}

// RequestCancel flags a running job for cancellation
func (j *BulkImportJob) RequestCancel() error {
	if j.Status != JobStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Only a running import job can be cancelled")
	}

	j.Status = JobStatusCancelling
	j.UpdatedAt = time.Now()
	j.IncrementVersion()

	return nil
}

// IsCancelRequested returns true if the pipeline should stop at the next chunk
func (j *BulkImportJob) IsCancelRequested() bool {
	return j.Status == JobStatusCancelling
}

// IsTerminal returns true once the job reached a final state
func (j *BulkImportJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}

// Errors returns the per-row error list
func (j *BulkImportJob) Errors() ([]RowError, error) {
	if j.ErrorList == "" || j.ErrorList == "[]" {
		return []RowError{}, nil
	}
	var errors []RowError
	if err := json.Unmarshal([]byte(j.ErrorList), &errors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal row errors: %w", err)
	}
	return errors, nil
}

func (j *BulkImportJob) setErrorList(errors []RowError) error {
	if len(errors) == 0 {
		j.ErrorList = "[]"
		return nil
	}
	data, err := json.Marshal(errors)
	if err != nil {
		return fmt.Errorf("failed to marshal row errors: %w", err)
	}
	j.ErrorList = string(data)
	return nil
}
