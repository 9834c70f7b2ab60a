package syncapp

import (
	"time"

	"github.com/adfeed/backend/internal/domain/sync"
	"github.com/google/uuid"
)

// StartSyncRequest starts a catalog sync. FullResync discards the resume
// checkpoint of a previously failed run and pulls from the beginning.
type StartSyncRequest struct {
	FullResync bool `json:"full_resync"`
}

// JobListFilter narrows sync job listing
type JobListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// SyncJobResponse is the API representation of a sync job
type SyncJobResponse struct {
	ID            uuid.UUID  `json:"id"`
	CatalogID     uuid.UUID  `json:"catalog_id"`
	Status        string     `json:"status"`
	Cursor        string     `json:"cursor,omitempty"`
	Processed     int        `json:"processed"`
	Created       int        `json:"created"`
	Updated       int        `json:"updated"`
	Conflicted    int        `json:"conflicted"`
	Failed        int        `json:"failed"`
	FailureReason string     `json:"failure_reason,omitempty"`
	StartedAt     *time.Time `json:"started_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}

// ToSyncJobResponse converts a sync job to its API representation
func ToSyncJobResponse(j *sync.SyncJob) SyncJobResponse {
	return SyncJobResponse{
		ID:            j.ID,
		CatalogID:     j.CatalogID,
		Status:        string(j.Status),
		Cursor:        j.Cursor,
		Processed:     j.Processed,
		Created:       j.Created,
		Updated:       j.Updated,
		Conflicted:    j.Conflicted,
		Failed:        j.Failed,
		FailureReason: j.FailureReason,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		CreatedAt:     j.CreatedAt,
	}
}
