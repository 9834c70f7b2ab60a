package platform

import (
	"context"
	"fmt"
	"strconv"
	gosync "sync"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/domain/sync"
)

// Ensure FakeProductSource implements sync.ProductSource
var _ sync.ProductSource = (*FakeProductSource)(nil)

// FakeProductSource serves a fixed record list with real cursor paging.
// Tests use it to exercise the sync pipeline without a platform deployment.
type FakeProductSource struct {
	mu      gosync.Mutex
	records []sync.SourceRecord

	// FailAfterPages makes FetchPage return an unavailability error once
	// that many pages were served; 0 disables the failure
	FailAfterPages int
	pagesServed    int
}

// NewFakeProductSource creates a fake source over the given records
func NewFakeProductSource(records []sync.SourceRecord) *FakeProductSource {
	return &FakeProductSource{records: records}
}

// FetchPage serves the next page; the cursor is the record offset
func (s *FakeProductSource) FetchPage(ctx context.Context, req sync.SourceRequest) (*sync.SourcePage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailAfterPages > 0 && s.pagesServed >= s.FailAfterPages {
		return nil, fmt.Errorf("%w: simulated outage", shared.ErrSourceUnavailable)
	}

	offset := 0
	if req.Cursor != "" {
		parsed, err := strconv.Atoi(req.Cursor)
		if err != nil || parsed < 0 {
			return nil, fmt.Errorf("invalid cursor %q", req.Cursor)
		}
		offset = parsed
	}

	limit := req.Limit
	if limit <= 0 {
		limit = len(s.records)
	}

	if offset > len(s.records) {
		offset = len(s.records)
	}
	end := offset + limit
	if end > len(s.records) {
		end = len(s.records)
	}

	s.pagesServed++
	return &sync.SourcePage{
		Records:    s.records[offset:end],
		NextCursor: strconv.Itoa(end),
		HasMore:    end < len(s.records),
	}, nil
}

// PagesServed reports how many pages were fetched so far
func (s *FakeProductSource) PagesServed() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pagesServed
}
