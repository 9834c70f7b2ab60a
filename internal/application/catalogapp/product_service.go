package catalogapp

import (
	"context"

	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// maxProductPageSize caps keyset page requests
const maxProductPageSize = 200

// ProductService handles merchant-facing product operations
type ProductService struct {
	catalogRepo       catalog.CatalogRepository
	productRepo       catalog.ProductRepository
	customizationRepo catalog.CustomizationRepository
}

// NewProductService creates a new ProductService
func NewProductService(
	catalogRepo catalog.CatalogRepository,
	productRepo catalog.ProductRepository,
	customizationRepo catalog.CustomizationRepository,
) *ProductService {
	return &ProductService{
		catalogRepo:       catalogRepo,
		productRepo:       productRepo,
		customizationRepo: customizationRepo,
	}
}

// Create adds a merchant-authored product to a catalog
func (s *ProductService) Create(ctx context.Context, merchantID, catalogID uuid.UUID, req CreateProductRequest) (*ProductResponse, error) {
	if _, err := s.catalogRepo.FindByID(ctx, merchantID, catalogID); err != nil {
		return nil, err
	}

	if _, err := s.productRepo.FindBySKU(ctx, catalogID, req.SKU); err == nil {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Product with this SKU already exists")
	} else if err != shared.ErrNotFound {
		return nil, err
	}

	p, err := catalog.NewProduct(merchantID, catalogID, req.SKU, req.Title)
	if err != nil {
		return nil, err
	}
	if len(req.Fields) > 0 {
		if err := p.ApplyFields(req.Fields); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToProductResponse(p)
	return &response, nil
}

// GetByID retrieves a product by ID
func (s *ProductService) GetByID(ctx context.Context, catalogID, productID uuid.UUID) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, catalogID, productID)
	if err != nil {
		return nil, err
	}

	response := ToProductResponse(p)
	return &response, nil
}

// List pages through the products of a catalog with a keyset cursor
func (s *ProductService) List(ctx context.Context, catalogID uuid.UUID, req ProductListRequest) (*ProductPageResponse, error) {
	limit := req.Limit
	if limit <= 0 || limit > maxProductPageSize {
		limit = 50
	}

	page, err := s.productRepo.FindPage(ctx, catalogID, req.AfterID, limit)
	if err != nil {
		return nil, err
	}

	response := &ProductPageResponse{
		Items:   make([]ProductResponse, len(page.Items)),
		HasMore: page.HasMore,
	}
	for i := range page.Items {
		response.Items[i] = ToProductResponse(&page.Items[i])
	}
	return response, nil
}

// CustomizeAdFields applies merchant edits to ad-specific fields. Every
// edited field is marked overridden so later syncs route disagreements
// through conflict resolution instead of silently replacing the edit.
func (s *ProductService) CustomizeAdFields(ctx context.Context, catalogID, productID uuid.UUID, req CustomizeFieldsRequest) (*ProductResponse, error) {
	p, err := s.productRepo.FindByID(ctx, catalogID, productID)
	if err != nil {
		return nil, err
	}

	for field, value := range req.Fields {
		if err := p.CustomizeAdField(field, value); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, p); err != nil {
		return nil, err
	}

	response := ToProductResponse(p)
	return &response, nil
}

// ListCustomizations returns the per-network customizations of a product
func (s *ProductService) ListCustomizations(ctx context.Context, catalogID, productID uuid.UUID) ([]CustomizationResponse, error) {
	customizations, err := s.customizationRepo.FindByProduct(ctx, catalogID, productID)
	if err != nil {
		return nil, err
	}

	responses := make([]CustomizationResponse, len(customizations))
	for i := range customizations {
		responses[i] = ToCustomizationResponse(&customizations[i])
	}
	return responses, nil
}

// UpsertCustomization creates or replaces the customization of one
// (ad network, product) pair
func (s *ProductService) UpsertCustomization(ctx context.Context, catalogID, productID uuid.UUID, adNetworkID string, req UpsertCustomizationRequest) (*CustomizationResponse, error) {
	p, err := s.productRepo.FindByID(ctx, catalogID, productID)
	if err != nil {
		return nil, err
	}

	existing, err := s.customizationRepo.FindByProduct(ctx, catalogID, productID)
	if err != nil {
		return nil, err
	}

	var customization *catalog.ProductCustomization
	for i := range existing {
		if existing[i].AdNetworkID == adNetworkID {
			customization = &existing[i]
			break
		}
	}
	if customization == nil {
		customization, err = catalog.NewProductCustomization(p.MerchantID, catalogID, productID, adNetworkID)
		if err != nil {
			return nil, err
		}
	}

	if err := customization.Update(req.Title, req.Description, req.ImageURL, req.Attributes); err != nil {
		return nil, err
	}
	if err := s.customizationRepo.Save(ctx, customization); err != nil {
		return nil, err
	}

	response := ToCustomizationResponse(customization)
	return &response, nil
}
