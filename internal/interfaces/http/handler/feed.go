package handler

import (
	"fmt"
	"io"
	"net/http"

	"github.com/adfeed/backend/internal/application/feedapp"
	"github.com/gin-gonic/gin"
)

// FeedHandler handles feed generation, download and validation endpoints
type FeedHandler struct {
	BaseHandler
	feedService *feedapp.FeedService
}

// NewFeedHandler creates a new FeedHandler
func NewFeedHandler(feedService *feedapp.FeedService) *FeedHandler {
	return &FeedHandler{feedService: feedService}
}

// RegisterRoutes registers feed routes
func (h *FeedHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/networks", h.Networks)

	feeds := rg.Group("/catalogs/:id/feeds")
	{
		feeds.POST("", h.Generate)
		feeds.GET("", h.List)
		feeds.GET("/:feedId", h.Get)
		feeds.GET("/:feedId/download", h.Download)
		feeds.POST("/:feedId/validate", h.ValidateFeed)
	}

	rg.POST("/catalogs/:id/validate", h.ValidateCatalog)
}

// Networks lists the supported ad networks
func (h *FeedHandler) Networks(c *gin.Context) {
	h.Success(c, h.feedService.Networks(c.Request.Context()))
}

// Generate starts feed generation for one ad network. Responds 202 with
// the feed handle for polling.
func (h *FeedHandler) Generate(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var req feedapp.GenerateFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	feed, err := h.feedService.Generate(c.Request.Context(), merchantID, catalogID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Accepted(c, feed)
}

// List lists the catalog's feeds, newest first
func (h *FeedHandler) List(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var filter feedapp.FeedListFilter
	if err := c.ShouldBindQuery(&filter); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	feeds, err := h.feedService.ListFeeds(c.Request.Context(), catalogID, filter)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, feeds)
}

// Get retrieves one feed, including its defect list
func (h *FeedHandler) Get(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	feedID, err := pathUUID(c, "feedId")
	if err != nil {
		h.BadRequest(c, "Invalid feed ID")
		return
	}

	feed, err := h.feedService.GetFeed(c.Request.Context(), catalogID, feedID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, feed)
}

// Download streams the generated artifact
func (h *FeedHandler) Download(c *gin.Context) {
	_, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	feedID, err := pathUUID(c, "feedId")
	if err != nil {
		h.BadRequest(c, "Invalid feed ID")
		return
	}

	feed, err := h.feedService.GetFeed(c.Request.Context(), catalogID, feedID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}

	body, contentType, err := h.feedService.Download(c.Request.Context(), catalogID, feedID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	defer body.Close()

	fileName := fmt.Sprintf("%s-%s.%s", feed.AdNetworkID, feed.ID, feed.Format)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", fileName))
	c.Header("Content-Type", contentType)
	c.Status(http.StatusOK)
	_, _ = io.Copy(c.Writer, body)
}

// ValidateFeed re-checks the catalog against an existing feed's network schema
func (h *FeedHandler) ValidateFeed(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}
	feedID, err := pathUUID(c, "feedId")
	if err != nil {
		h.BadRequest(c, "Invalid feed ID")
		return
	}

	result, err := h.feedService.ValidateFeed(c.Request.Context(), merchantID, catalogID, feedID)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}

// ValidateCatalog checks catalog items against a network schema without
// generating an artifact
func (h *FeedHandler) ValidateCatalog(c *gin.Context) {
	merchantID, catalogID, ok := h.catalogScope(c)
	if !ok {
		return
	}

	var req feedapp.ValidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}

	result, err := h.feedService.ValidateCatalog(c.Request.Context(), merchantID, catalogID, req)
	if err != nil {
		h.HandleDomainError(c, err)
		return
	}
	h.Success(c, result)
}
