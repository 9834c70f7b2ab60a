package sync

import (
	"time"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// JobStatus represents the status of a sync job
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

// FailureReasonCancelled marks jobs stopped by a cancellation request
const FailureReasonCancelled = "cancelled"

// SyncJob tracks one full or incremental pull from the core platform.
// The checkpoint cursor is persisted after every page so a crashed sync
// resumes instead of restarting; upserts keyed on the core product ID make
// re-processing idempotent.
type SyncJob struct {
	shared.MerchantAggregateRoot
	CatalogID uuid.UUID `gorm:"type:uuid;not null;index"`
	Status    JobStatus `gorm:"type:varchar(30);not null;default:'pending';index"`
	// Cursor is the resumable position in the core platform pull
	Cursor        string `gorm:"type:varchar(500)"`
	Processed     int    `gorm:"not null;default:0"`
	Created       int    `gorm:"not null;default:0"`
	Updated       int    `gorm:"not null;default:0"`
	Conflicted    int    `gorm:"not null;default:0"`
	Failed        int    `gorm:"not null;default:0"`
	FailureReason string `gorm:"type:varchar(500)"`
	StartedAt     *time.Time
	CompletedAt   *time.Time
}

// TableName returns the table name for GORM
func (SyncJob) TableName() string {
	return "sync_jobs"
}

// NewSyncJob creates a pending sync job for a catalog
func NewSyncJob(merchantID, catalogID uuid.UUID) *SyncJob {
	return &SyncJob{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		CatalogID:             catalogID,
		Status:                JobStatusPending,
	}
}

// NewResumedSyncJob creates a pending job that starts from a previous checkpoint
func NewResumedSyncJob(merchantID, catalogID uuid.UUID, cursor string) *SyncJob {
	job := NewSyncJob(merchantID, catalogID)
	job.Cursor = cursor
	return job
}

// Start marks the job as running
func (j *SyncJob) Start() error {
	if j.Status != JobStatusPending {
		return shared.NewDomainError("INVALID_STATE", "Cannot start a sync job from state "+string(j.Status))
	}

	now := time.Now()
	j.Status = JobStatusRunning
	j.StartedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()

	return nil
}

// Checkpoint persists the resumable cursor after a completed page
func (j *SyncJob) Checkpoint(cursor string) {
	j.Cursor = cursor
	j.UpdatedAt = time.Now()
	j.IncrementVersion()
}

// RecordCreated counts one created product
func (j *SyncJob) RecordCreated() {
	j.Processed++
	j.Created++
}

// RecordUpdated counts one updated product
func (j *SyncJob) RecordUpdated() {
	j.Processed++
	j.Updated++
}

// RecordConflicted counts one product that produced conflict records
func (j *SyncJob) RecordConflicted() {
	j.Processed++
	j.Conflicted++
}

// RecordFailed counts one per-record failure
func (j *SyncJob) RecordFailed() {
	j.Processed++
	j.Failed++
}

// Complete marks the job terminal: succeeded, or partially succeeded when
// any per-record failures occurred during an otherwise finished run
func (j *SyncJob) Complete() error {
	if j.Status != JobStatusRunning && j.Status != JobStatusCancelling {
		return shared.NewDomainError("INVALID_STATE", "Cannot complete a sync job from state "+string(j.Status))
	}

	status := JobStatusSucceeded
	if j.Failed > 0 {
		status = JobStatusPartiallySucceeded
	}

	now := time.Now()
	j.Status = status
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()

	return nil
}

// Fail marks the job failed with a reason
func (j *SyncJob) Fail(reason string) error {
	if j.Status.IsTerminal() {
		return shared.NewDomainError("INVALID_STATE", "Sync job is already terminal")
	}

	now := time.Now()
	j.Status = JobStatusFailed
	j.FailureReason = reason
	j.CompletedAt = &now
	j.UpdatedAt = now
	j.IncrementVersion()

	return nil
}

// RequestCancel flags a running job for cancellation. The pipeline checks
// the flag between pages and stops cleanly.
func (j *SyncJob) RequestCancel() error {
	if j.Status != JobStatusRunning {
		return shared.NewDomainError("INVALID_STATE", "Only a running sync job can be cancelled")
	}

	j.Status = JobStatusCancelling
	j.UpdatedAt = time.Now()
	j.IncrementVersion()

	return nil
}

// IsCancelRequested returns true if the pipeline should stop at the next checkpoint
func (j *SyncJob) IsCancelRequested() bool {
	return j.Status == JobStatusCancelling
}

// ConfirmCancelled finalizes a cancellation, keeping partial counters
func (j *SyncJob) ConfirmCancelled() error {
	if j.Status != JobStatusCancelling {
		return shared.NewDomainError("INVALID_STATE", "Sync job has no pending cancellation")
	}
	return j.Fail(FailureReasonCancelled)
}

// IsTerminal returns true once the job reached a final state
func (j *SyncJob) IsTerminal() bool {
	return j.Status.IsTerminal()
}
