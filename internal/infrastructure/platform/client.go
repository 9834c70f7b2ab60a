// Package platform implements the core commerce platform product API client.
package platform

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/domain/sync"
	"github.com/adfeed/backend/internal/infrastructure/config"
)

// maxResponseSize is the maximum allowed response size from the platform API (10MB)
const maxResponseSize = 10 * 1024 * 1024

// Ensure HTTPProductSource implements sync.ProductSource
var _ sync.ProductSource = (*HTTPProductSource)(nil)

// HTTPProductSource pulls merchant products from the core platform REST API.
// Connection failures and 5xx responses map to shared.ErrSourceUnavailable so
// the sync pipeline can tell a dead platform from a bad request.
type HTTPProductSource struct {
	baseURL    string
	apiKey     string
	pageSize   int
	httpClient *http.Client
}

// NewHTTPProductSource creates a client from the platform configuration
func NewHTTPProductSource(cfg config.PlatformConfig) (*HTTPProductSource, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("platform base URL is required")
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPProductSource{
		baseURL:    cfg.BaseURL,
		apiKey:     cfg.APIKey,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// productPayload mirrors the platform API product representation
type productPayload struct {
	ID          string            `json:"id"`
	SKU         string            `json:"sku"`
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Price       string            `json:"price"`
	ImageURL    string            `json:"image_url"`
	StockLevel  int               `json:"stock_level"`
	Attributes  map[string]string `json:"attributes"`
}

type pagePayload struct {
	Products   []productPayload `json:"products"`
	NextCursor string           `json:"next_cursor"`
	HasMore    bool             `json:"has_more"`
}

// FetchPage pulls one page of products for a merchant
func (s *HTTPProductSource) FetchPage(ctx context.Context, req sync.SourceRequest) (*sync.SourcePage, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = s.pageSize
	}

	endpoint := fmt.Sprintf("%s/api/v1/merchants/%s/products", s.baseURL, req.MerchantID)
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if req.Cursor != "" {
		query.Set("cursor", req.Cursor)
	}
	if req.SourcePlatform != "" {
		query.Set("platform", req.SourcePlatform)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+query.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("platform: failed to create request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.apiKey)
	httpReq.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", shared.ErrSourceUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read response: %v", shared.ErrSourceUnavailable, err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", shared.ErrSourceUnavailable, resp.StatusCode)
	case resp.StatusCode == http.StatusNotFound:
		return nil, shared.ErrNotFound
	case resp.StatusCode >= 400:
		return nil, fmt.Errorf("platform: request rejected with HTTP %d", resp.StatusCode)
	}

	var payload pagePayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("platform: failed to parse response: %w", err)
	}

	page := &sync.SourcePage{
		Records:    make([]sync.SourceRecord, 0, len(payload.Products)),
		NextCursor: payload.NextCursor,
		HasMore:    payload.HasMore,
	}
	for _, p := range payload.Products {
		page.Records = append(page.Records, sync.SourceRecord{
			CoreProductID: p.ID,
			SKU:           p.SKU,
			Fields:        toFieldSet(p),
		})
	}
	return page, nil
}

// toFieldSet flattens an API product into canonical field values
func toFieldSet(p productPayload) catalog.FieldSet {
	fields := catalog.FieldSet{
		catalog.FieldTitle:       p.Title,
		catalog.FieldDescription: p.Description,
		catalog.FieldPrice:       p.Price,
		catalog.FieldImageURL:    p.ImageURL,
		catalog.FieldStockLevel:  strconv.Itoa(p.StockLevel),
	}
	for key, value := range p.Attributes {
		fields[catalog.AttrField(key)] = value
	}
	return fields
}
