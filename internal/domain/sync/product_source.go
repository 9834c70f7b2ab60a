package sync

import (
	"context"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/google/uuid"
)

// SourceRecord is one product record pulled from the core platform
type SourceRecord struct {
	// CoreProductID is the stable identity of the product on the platform
	CoreProductID string
	SKU           string
	// Fields holds the canonical values in canonical string form
	Fields catalog.FieldSet
}

// SourcePage is one page of a paginated core platform pull
type SourcePage struct {
	Records []SourceRecord
	// NextCursor resumes the pull after this page; opaque to callers
	NextCursor string
	HasMore    bool
}

// SourceRequest identifies one page of a pull
type SourceRequest struct {
	MerchantID     uuid.UUID
	SourcePlatform string
	Cursor         string
	Limit          int
}

// ProductSource is the paginated pull API of the core commerce platform.
// Implementations must support resuming from any cursor previously
// returned in a SourcePage.
type ProductSource interface {
	FetchPage(ctx context.Context, req SourceRequest) (*SourcePage, error)
}
