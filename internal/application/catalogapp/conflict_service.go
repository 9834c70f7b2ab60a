package catalogapp

import (
	"context"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/conflict"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/adfeed/backend/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ConflictService handles the merchant conflict review workflow
type ConflictService struct {
	conflictRepo conflict.ConflictRepository
	productRepo  catalog.ProductRepository
}

// NewConflictService creates a new ConflictService
func NewConflictService(conflictRepo conflict.ConflictRepository, productRepo catalog.ProductRepository) *ConflictService {
	return &ConflictService{
		conflictRepo: conflictRepo,
		productRepo:  productRepo,
	}
}

// List returns the conflicts of a catalog, newest first
func (s *ConflictService) List(ctx context.Context, catalogID uuid.UUID, filter ConflictListFilter) (shared.Paginated[ConflictResponse], error) {
	domainFilter := conflict.Filter{ProductID: filter.ProductID}
	if filter.Status != "" {
		status := conflict.Status(filter.Status)
		if !status.IsValid() {
			return shared.Paginated[ConflictResponse]{}, shared.NewDomainError("INVALID_STATUS", "Unknown conflict status: "+filter.Status)
		}
		domainFilter.Status = &status
	}
	if filter.Source != "" {
		source := conflict.Source(filter.Source)
		if !source.IsValid() {
			return shared.Paginated[ConflictResponse]{}, shared.NewDomainError("INVALID_SOURCE", "Unknown conflict source: "+filter.Source)
		}
		domainFilter.Source = &source
	}

	page := shared.DefaultFilter()
	if filter.Page > 0 {
		page.Page = filter.Page
	}
	if filter.PageSize > 0 {
		page.PageSize = filter.PageSize
	}

	conflicts, total, err := s.conflictRepo.FindAllForCatalog(ctx, catalogID, domainFilter, page)
	if err != nil {
		return shared.Paginated[ConflictResponse]{}, err
	}

	responses := make([]ConflictResponse, len(conflicts))
	for i := range conflicts {
		responses[i] = ToConflictResponse(&conflicts[i])
	}
	return shared.NewPaginated(responses, total, page.Page, page.Limit()), nil
}

// GetByID retrieves a conflict by ID
func (s *ConflictService) GetByID(ctx context.Context, catalogID, conflictID uuid.UUID) (*ConflictResponse, error) {
	c, err := s.conflictRepo.FindByID(ctx, catalogID, conflictID)
	if err != nil {
		return nil, err
	}

	response := ToConflictResponse(c)
	return &response, nil
}

// Resolve decides a pending conflict. Choosing incoming or custom writes
// the winning value to the product and keeps the field marked overridden;
// choosing current leaves the product untouched. Either way the record
// becomes part of the audit trail.
func (s *ConflictService) Resolve(ctx context.Context, catalogID, conflictID uuid.UUID, req ResolveConflictRequest) (*ConflictResponse, error) {
	c, err := s.conflictRepo.FindByID(ctx, catalogID, conflictID)
	if err != nil {
		return nil, err
	}

	switch conflict.ResolutionChoice(req.Choice) {
	case conflict.ChoiceIncoming:
		err = c.ResolveWithIncoming(req.ResolvedBy)
	case conflict.ChoiceCurrent:
		err = c.ResolveWithCurrent(req.ResolvedBy)
	case conflict.ChoiceCustom:
		if req.CustomValue == "" {
			return nil, shared.NewDomainError("INVALID_RESOLUTION", "Custom resolution requires a value")
		}
		err = c.ResolveWithValue(req.CustomValue, req.ResolvedBy)
	default:
		return nil, shared.NewDomainError("INVALID_RESOLUTION", "Unknown resolution choice: "+req.Choice)
	}
	if err != nil {
		return nil, err
	}

	if c.ResolutionChosen != conflict.ChoiceCurrent {
		p, err := s.productRepo.FindByID(ctx, catalogID, c.ProductID)
		if err != nil {
			return nil, err
		}
		if err := p.ApplyField(c.Field, c.ResolvedValue); err != nil {
			return nil, err
		}
		if catalog.IsAdSpecificField(c.Field) {
			p.MarkOverridden(c.Field)
		}
		if err := s.productRepo.Save(ctx, p); err != nil {
			return nil, err
		}
	}

	if err := s.conflictRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	logger.L(ctx).Info("conflict resolved",
		zap.String("conflict_id", conflictID.String()),
		zap.String("field", c.Field),
		zap.String("choice", string(c.ResolutionChosen)))

	response := ToConflictResponse(c)
	return &response, nil
}

// Ignore dismisses a pending conflict without touching the product
func (s *ConflictService) Ignore(ctx context.Context, catalogID, conflictID uuid.UUID, req IgnoreConflictRequest) (*ConflictResponse, error) {
	c, err := s.conflictRepo.FindByID(ctx, catalogID, conflictID)
	if err != nil {
		return nil, err
	}

	if err := c.Ignore(req.ResolvedBy); err != nil {
		return nil, err
	}
	if err := s.conflictRepo.Save(ctx, c); err != nil {
		return nil, err
	}

	response := ToConflictResponse(c)
	return &response, nil
}
