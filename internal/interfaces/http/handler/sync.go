package handler

import (
	"github.com/adfeed/backend/internal/application/syncapp"
	"github.com/gin-gonic/gin"
)

// SyncHandler handles catalog sync endpoints
type SyncHandler struct {
	BaseHandler
	syncService *syncapp.SyncService
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(syncService *syncapp.SyncService) *SyncHandler {
	return &SyncHandler{syncService: syncService}
}

// RegisterRoutes registers sync routes
func (h *SyncHandler) RegisterRoutes(rg *gin.RouterGroup) {
	sync := rg.Group("/catalogs/:id/sync")
	{
		sync.POST("", h.Start)
		sync.DELETE("", h.Cancel)
		sync.GET("/jobs", h.ListJobs)
		sync.GET("/jobs/:jobId", h.GetJob)
	}
}

// Start kicks off a background sync from the core platform. Responds 202
// with the job handle for polling.
func (h *SyncHandler) Start(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var req syncapp.StartSyncRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		h.BadRequest(c, err.Error())
		return
	}

	job, err := h.syncService.Start(c.Request.Context(), merchantID, catalogID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Accepted(c, job)
}

// Cancel requests cancellation of the active sync
func (h *SyncHandler) Cancel(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	job, err := h.syncService.Cancel(c.Request.Context(), catalogID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Accepted(c, job)
}

// ListJobs lists the catalog's sync jobs, newest first
func (h *SyncHandler) ListJobs(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var filter syncapp.JobListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	jobs, err := h.syncService.ListJobs(c.Request.Context(), catalogID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, jobs)
}

// GetJob retrieves one sync job
func (h *SyncHandler) GetJob(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	jobID, err := pathUUID(c, "jobId")
	if err != nil {
		h.BadRequest(c, "Invalid job ID")
		return
	}

	job, err := h.syncService.GetJob(c.Request.Context(), catalogID, jobID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, job)
}
