package handler

import (
	"github.com/adfeed/backend/internal/application/catalogapp"
	"github.com/gin-gonic/gin"
)

// ConflictHandler handles conflict review endpoints
type ConflictHandler struct {
	BaseHandler
	conflictService *catalogapp.ConflictService
}

// NewConflictHandler creates a new ConflictHandler
func NewConflictHandler(conflictService *catalogapp.ConflictService) *ConflictHandler {
	return &ConflictHandler{conflictService: conflictService}
}

// RegisterRoutes registers conflict routes
func (h *ConflictHandler) RegisterRoutes(rg *gin.RouterGroup) {
	conflicts := rg.Group("/catalogs/:id/conflicts")
	{
		conflicts.GET("", h.List)
		conflicts.GET("/:conflictId", h.Get)
		conflicts.POST("/:conflictId/resolve", h.Resolve)
		conflicts.POST("/:conflictId/ignore", h.Ignore)
	}
}

// List pages through the catalog's conflicts
func (h *ConflictHandler) List(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var filter catalogapp.ConflictListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.conflictService.List(c.Request.Context(), catalogID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Get retrieves one conflict
func (h *ConflictHandler) Get(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	conflictID, err := pathUUID(c, "conflictId")
	if err != nil {
		h.BadRequest(c, "Invalid conflict ID")
		return
	}

	found, err := h.conflictService.GetByID(c.Request.Context(), catalogID, conflictID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, found)
}

// Resolve decides a pending conflict and applies the chosen value
func (h *ConflictHandler) Resolve(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	conflictID, err := pathUUID(c, "conflictId")
	if err != nil {
		h.BadRequest(c, "Invalid conflict ID")
		return
	}

	var req catalogapp.ResolveConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	resolved, err := h.conflictService.Resolve(c.Request.Context(), catalogID, conflictID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, resolved)
}

// Ignore dismisses a pending conflict without touching the product
func (h *ConflictHandler) Ignore(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	conflictID, err := pathUUID(c, "conflictId")
	if err != nil {
		h.BadRequest(c, "Invalid conflict ID")
		return
	}

	var req catalogapp.IgnoreConflictRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	ignored, err := h.conflictService.Ignore(c.Request.Context(), catalogID, conflictID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, ignored)
}
