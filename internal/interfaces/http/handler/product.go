package handler

import (
	"github.com/adfeed/backend/internal/application/catalogapp"
	"github.com/gin-gonic/gin"
)

// ProductHandler handles product and customization endpoints
type ProductHandler struct {
	BaseHandler
	productService *catalogapp.ProductService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(productService *catalogapp.ProductService) *ProductHandler {
	return &ProductHandler{productService: productService}
}

// RegisterRoutes registers product routes
func (h *ProductHandler) RegisterRoutes(rg *gin.RouterGroup) {
	products := rg.Group("/catalogs/:id/products")
	{
		products.POST("", h.Create)
		products.GET("", h.List)
		products.GET("/:productId", h.Get)
		products.PUT("/:productId/ad-fields", h.CustomizeAdFields)
		products.GET("/:productId/customizations", h.ListCustomizations)
		products.PUT("/:productId/customizations/:network", h.UpsertCustomization)
	}
}

// Create adds a merchant-authored product to the catalog
func (h *ProductHandler) Create(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var req catalogapp.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	created, err := h.productService.Create(c.Request.Context(), merchantID, catalogID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Created(c, created)
}

// List returns one keyset page of catalog products
func (h *ProductHandler) List(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var req catalogapp.ProductListRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	page, err := h.productService.List(c.Request.Context(), catalogID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, page)
}

// Get retrieves one product
func (h *ProductHandler) Get(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	productID, err := pathUUID(c, "productId")
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	found, err := h.productService.GetByID(c.Request.Context(), catalogID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, found)
}

// CustomizeAdFields edits the product's ad-specific fields. Edited fields
// are protected from being silently replaced by later syncs.
func (h *ProductHandler) CustomizeAdFields(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	productID, err := pathUUID(c, "productId")
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	var req catalogapp.CustomizeFieldsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	updated, err := h.productService.CustomizeAdFields(c.Request.Context(), catalogID, productID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, updated)
}

// ListCustomizations returns the per-network customizations of a product
func (h *ProductHandler) ListCustomizations(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	productID, err := pathUUID(c, "productId")
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}

	customizations, err := h.productService.ListCustomizations(c.Request.Context(), catalogID, productID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, customizations)
}

// UpsertCustomization creates or replaces the customization of one
// (product, ad network) pair
func (h *ProductHandler) UpsertCustomization(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	productID, err := pathUUID(c, "productId")
	if err != nil {
		h.BadRequest(c, "Invalid product ID")
		return
	}
	network := c.Param("network")

	var req catalogapp.UpsertCustomizationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	saved, err := h.productService.UpsertCustomization(c.Request.Context(), catalogID, productID, network, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, saved)
}
