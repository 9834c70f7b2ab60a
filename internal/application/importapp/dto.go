package importapp

import (
	"time"

	"github.com/adfeed/backend/internal/domain/bulkimport"
	"github.com/google/uuid"
)

// StartImportRequest starts a bulk import. ConflictMode optionally
// overrides the catalog strategy for this run only.
type StartImportRequest struct {
	FileName     string `form:"file_name"`
	Format       string `form:"format" binding:"required,oneof=csv xml"`
	ConflictMode string `form:"conflict_mode" binding:"omitempty,oneof=overwrite skip merge manual"`
}

// JobListFilter narrows import job listing
type JobListFilter struct {
	Status   string `form:"status"`
	Page     int    `form:"page"`
	PageSize int    `form:"page_size"`
}

// ImportJobResponse is the API representation of an import job
type ImportJobResponse struct {
	ID            uuid.UUID             `json:"id"`
	CatalogID     uuid.UUID             `json:"catalog_id"`
	FileName      string                `json:"file_name"`
	FileFormat    string                `json:"file_format"`
	ConflictMode  string                `json:"conflict_mode"`
	Status        string                `json:"status"`
	TotalRows     int                   `json:"total_rows"`
	CreatedRows   int                   `json:"created_rows"`
	UpdatedRows   int                   `json:"updated_rows"`
	Conflicted    int                   `json:"conflicted"`
	FailedRows    int                   `json:"failed_rows"`
	Errors        []bulkimport.RowError `json:"errors"`
	FailureReason string                `json:"failure_reason,omitempty"`
	StartedAt     *time.Time            `json:"started_at,omitempty"`
	CompletedAt   *time.Time            `json:"completed_at,omitempty"`
	CreatedAt     time.Time             `json:"created_at"`
}

// ToImportJobResponse converts an import job to its API representation
func ToImportJobResponse(j *bulkimport.BulkImportJob) ImportJobResponse {
	rowErrors, err := j.Errors()
	if err != nil {
		rowErrors = []bulkimport.RowError{}
	}
	return ImportJobResponse{
		ID:            j.ID,
		CatalogID:     j.CatalogID,
		FileName:      j.FileName,
		FileFormat:    string(j.FileFormat),
		ConflictMode:  string(j.ConflictMode),
		Status:        string(j.Status),
		TotalRows:     j.TotalRows,
		CreatedRows:   j.CreatedRows,
		UpdatedRows:   j.UpdatedRows,
		Conflicted:    j.Conflicted,
		FailedRows:    j.FailedRows,
		Errors:        rowErrors,
		FailureReason: j.FailureReason,
		StartedAt:     j.StartedAt,
		CompletedAt:   j.CompletedAt,
		CreatedAt:     j.CreatedAt,
	}
}
