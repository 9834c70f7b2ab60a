package handler

import (
	"context"

	"github.com/adfeed/backend/internal/application/catalogapp"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CatalogHandler handles catalog lifecycle and configuration endpoints
type CatalogHandler struct {
	BaseHandler
	catalogService *catalogapp.CatalogService
}

// NewCatalogHandler creates a new CatalogHandler
func NewCatalogHandler(catalogService *catalogapp.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// RegisterRoutes registers catalog routes
func (h *CatalogHandler) RegisterRoutes(rg *gin.RouterGroup) {
	catalogs := rg.Group("/catalogs")
	{
		catalogs.POST("", h.Create)
		catalogs.GET("", h.List)
		catalogs.GET("/:id", h.Get)
		catalogs.PUT("/:id", h.Update)
		catalogs.DELETE("/:id", h.Delete)
		catalogs.PUT("/:id/strategy", h.SetStrategy)
		catalogs.POST("/:id/pause", h.Pause)
		catalogs.POST("/:id/activate", h.Activate)
		catalogs.POST("/:id/archive", h.Archive)
	}
}

// Create creates a new catalog
func (h *CatalogHandler) Create(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID")
		return
	}

	var req catalogapp.CreateCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	created, err := h.catalogService.Create(c.Request.Context(), merchantID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, created)
}

// List lists the merchant's catalogs
func (h *CatalogHandler) List(c *gin.Context) {
	merchantID, err := getMerchantID(c)
	if err != nil {
		h.BadRequest(c, "Invalid merchant ID")
		return
	}

	var filter catalogapp.CatalogListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	catalogs, err := h.catalogService.List(c.Request.Context(), merchantID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, catalogs)
}

// Get retrieves one catalog
func (h *CatalogHandler) Get(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	found, err := h.catalogService.GetByID(c.Request.Context(), merchantID, catalogID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, found)
}

// Update updates catalog settings
func (h *CatalogHandler) Update(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var req catalogapp.UpdateCatalogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.catalogService.Update(c.Request.Context(), merchantID, catalogID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, updated)
}

// Delete removes a catalog and everything it owns
func (h *CatalogHandler) Delete(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	if err := h.catalogService.Delete(c.Request.Context(), merchantID, catalogID); err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.NoContent(c)
}

// SetStrategy sets the catalog's default conflict resolution strategy
func (h *CatalogHandler) SetStrategy(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var req catalogapp.SetStrategyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.catalogService.SetConflictStrategy(c.Request.Context(), merchantID, catalogID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, updated)
}

// Pause pauses the catalog
func (h *CatalogHandler) Pause(c *gin.Context) {
	h.transition(c, h.catalogService.Pause)
}

// Activate activates the catalog
func (h *CatalogHandler) Activate(c *gin.Context) {
	h.transition(c, h.catalogService.Activate)
}

// Archive archives the catalog
func (h *CatalogHandler) Archive(c *gin.Context) {
	h.transition(c, h.catalogService.Archive)
}

type catalogTransition func(ctx context.Context, merchantID, catalogID uuid.UUID) (*catalogapp.CatalogResponse, error)

func (h *CatalogHandler) transition(c *gin.Context, op catalogTransition) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	updated, err := op(c.Request.Context(), merchantID, catalogID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, updated)
}
