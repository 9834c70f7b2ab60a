package handler

import (
	"github.com/adfeed/backend/internal/application/importapp"
	"github.com/gin-gonic/gin"
)

// ImportHandler handles bulk import endpoints
type ImportHandler struct {
	BaseHandler
	importService *importapp.ImportService
}

// NewImportHandler creates a new ImportHandler
func NewImportHandler(importService *importapp.ImportService) *ImportHandler {
	return &ImportHandler{importService: importService}
}

// RegisterRoutes registers import routes
func (h *ImportHandler) RegisterRoutes(rg *gin.RouterGroup) {
	imports := rg.Group("/catalogs/:id/imports")
	{
		imports.POST("", h.Start)
		imports.DELETE("", h.Cancel)
		imports.GET("", h.ListJobs)
		imports.GET("/:jobId", h.GetJob)
	}
}

// Start uploads a product file and starts a background import. The file
// goes up as the multipart field "file"; format and conflict_mode are
// regular form fields. Responds 202 with the job handle.
func (h *ImportHandler) Start(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var req importapp.StartImportRequest
	if err := c.ShouldBind(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		h.BadRequest(c, "Multipart field 'file' is required")
		return
	}
	if req.FileName == "" {
		req.FileName = fileHeader.Filename
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.BadRequest(c, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	job, err := h.importService.Start(c.Request.Context(), merchantID, catalogID, req, file)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Accepted(c, job)
}

// Cancel requests cancellation of the active import
func (h *ImportHandler) Cancel(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	job, err := h.importService.Cancel(c.Request.Context(), catalogID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Accepted(c, job)
}

// ListJobs lists the catalog's import jobs, newest first
func (h *ImportHandler) ListJobs(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var filter importapp.JobListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	jobs, err := h.importService.ListJobs(c.Request.Context(), catalogID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, jobs)
}

// GetJob retrieves one import job, including its row error list
func (h *ImportHandler) GetJob(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	jobID, err := pathUUID(c, "jobId")
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	job, err := h.importService.GetJob(c.Request.Context(), catalogID, jobID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, job)
}
