package feedapp

import (
	"time"

	"github.com/adfeed/backend/internal/domain/feed"
	"github.com/google/uuid"
)

// GenerateFeedRequest starts feed generation for one ad network
type GenerateFeedRequest struct {
	AdNetworkID string `json:"ad_network_id" binding:"required,max=100"`
	Format      string `json:"format" binding:"required,oneof=csv xml"`
}

// FeedListFilter narrows feed listing
type FeedListFilter struct {
	AdNetworkID string `form:"ad_network_id"`
	Status      string `form:"status"`
	Page        int    `form:"page"`
	PageSize    int    `form:"page_size"`
}

// ValidateRequest validates catalog items against a network schema without
// generating an artifact. Limit bounds the sample; 0 validates everything.
type ValidateRequest struct {
	AdNetworkID string `json:"ad_network_id" binding:"required,max=100"`
	Limit       int    `json:"limit"`
}

// FeedResponse is the API representation of a feed
type FeedResponse struct {
	ID            uuid.UUID         `json:"id"`
	CatalogID     uuid.UUID         `json:"catalog_id"`
	AdNetworkID   string            `json:"ad_network_id"`
	Format        string            `json:"format"`
	Status        string            `json:"status"`
	ItemCount     int               `json:"item_count"`
	Defects       []feed.ItemDefect `json:"defects"`
	FailureReason string            `json:"failure_reason,omitempty"`
	GeneratedAt   *time.Time        `json:"generated_at,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
}

// ToFeedResponse converts a feed to its API representation
func ToFeedResponse(f *feed.Feed) FeedResponse {
	defects, err := f.Defects()
	if err != nil {
		defects = []feed.ItemDefect{}
	}
	return FeedResponse{
		ID:            f.ID,
		CatalogID:     f.CatalogID,
		AdNetworkID:   f.AdNetworkID,
		Format:        string(f.Format),
		Status:        string(f.Status),
		ItemCount:     f.ItemCount,
		Defects:       defects,
		FailureReason: f.FailureReason,
		GeneratedAt:   f.GeneratedAt,
		CreatedAt:     f.CreatedAt,
	}
}
