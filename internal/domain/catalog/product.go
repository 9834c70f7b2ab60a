package catalog

import (
	"encoding/json"
	"sort"
	"strconv"
	"time"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Product represents one catalog item. Canonical fields originate from the
// core commerce platform; ad-specific fields are merchant customizations
// that must survive future syncs once edited.
// It is the aggregate root for product-related operations.
type Product struct {
	shared.MerchantAggregateRoot
	CatalogID     uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:idx_product_catalog_sku,priority:1;index:idx_product_catalog_core,priority:1"`
	CoreProductID *string         `gorm:"type:varchar(100);index:idx_product_catalog_core,priority:2"` // nil means merchant-authored
	SKU           string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_product_catalog_sku,priority:2"`
	Title         string          `gorm:"type:varchar(500);not null"`
	Description   string          `gorm:"type:text"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ImageURL      string          `gorm:"type:varchar(2000)"`
	StockLevel    int             `gorm:"not null;default:0"`
	AdTitle       string          `gorm:"type:varchar(500)"`
	AdDescription string          `gorm:"type:text"`
	// CustomAttributes is an open key-value map stored as a JSON object
	CustomAttributes string `gorm:"type:jsonb;default:'{}'"`
	// OverriddenFields lists the ad-specific fields the merchant has edited,
	// stored as a JSON array of field identifiers
	OverriddenFields string `gorm:"type:jsonb;default:'[]'"`
	IsOverride       bool   `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (Product) TableName() string {
	return "products"
}

// NewProduct creates a merchant-authored product (no core platform origin)
func NewProduct(merchantID, catalogID uuid.UUID, sku, title string) (*Product, error) {
	if err := validateSKU(sku); err != nil {
		return nil, err
	}
	if err := validateTitle(title); err != nil {
		return nil, err
	}

	p := &Product{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		CatalogID:             catalogID,
		SKU:                   sku,
		Title:                 title,
		Price:                 decimal.Zero,
		CustomAttributes:      "{}",
		OverriddenFields:      "[]",
	}

	p.AddDomainEvent(NewProductCreatedEvent(p))

	return p, nil
}

// NewProductFromSource creates a product record for a core platform product
func NewProductFromSource(merchantID, catalogID uuid.UUID, coreProductID, sku, title string) (*Product, error) {
	if coreProductID == "" {
		return nil, shared.NewDomainError("INVALID_CORE_PRODUCT_ID", "Core product ID cannot be empty")
	}

	p, err := NewProduct(merchantID, catalogID, sku, title)
	if err != nil {
		return nil, err
	}
	p.CoreProductID = &coreProductID

	return p, nil
}

// IsPlatformSourced returns true if the product originates from the core platform
func (p *Product) IsPlatformSourced() bool {
	return p.CoreProductID != nil
}

// FieldValue returns the stored value of a field in canonical string form.
// The second return value is false for unknown fields.
func (p *Product) FieldValue(field string) (string, bool) {
	if key := AttrKey(field); key != "" {
		attrs, err := p.Attributes()
		if err != nil {
			return "", false
		}
		return attrs[key], true
	}

	switch field {
	case FieldSKU:
		return p.SKU, true
	case FieldTitle:
		return p.Title, true
	case FieldDescription:
		return p.Description, true
	case FieldPrice:
		return p.Price.String(), true
	case FieldImageURL:
		return p.ImageURL, true
	case FieldStockLevel:
		return strconv.Itoa(p.StockLevel), true
	case FieldAdTitle:
		return p.AdTitle, true
	case FieldAdDescription:
		return p.AdDescription, true
	}
	return "", false
}

// ApplyField parses a canonical string value and stores it. This is the
// system apply path used by sync and import; it never touches the
// override bookkeeping.
func (p *Product) ApplyField(field, value string) error {
	if key := AttrKey(field); key != "" {
		return p.setAttribute(key, value)
	}

	switch field {
	case FieldSKU:
		if err := validateSKU(value); err != nil {
			return err
		}
		p.SKU = value
	case FieldTitle:
		if err := validateTitle(value); err != nil {
			return err
		}
		p.Title = value
	case FieldDescription:
		p.Description = value
	case FieldPrice:
		price, err := decimal.NewFromString(value)
		if err != nil {
			return shared.NewDomainError("INVALID_PRICE", "Price must be a decimal number")
		}
		if price.IsNegative() {
			return shared.NewDomainError("INVALID_PRICE", "Price cannot be negative")
		}
		p.Price = price
	case FieldImageURL:
		if len(value) > 2000 {
			return shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot exceed 2000 characters")
		}
		p.ImageURL = value
	case FieldStockLevel:
		stock, err := strconv.Atoi(value)
		if err != nil {
			return shared.NewDomainError("INVALID_STOCK_LEVEL", "Stock level must be an integer")
		}
		if stock < 0 {
			return shared.NewDomainError("INVALID_STOCK_LEVEL", "Stock level cannot be negative")
		}
		p.StockLevel = stock
	case FieldAdTitle:
		if len(value) > 500 {
			return shared.NewDomainError("INVALID_AD_TITLE", "Ad title cannot exceed 500 characters")
		}
		p.AdTitle = value
	case FieldAdDescription:
		p.AdDescription = value
	default:
		return shared.NewDomainError("UNKNOWN_FIELD", "Unknown product field: "+field)
	}

	p.UpdatedAt = time.Now()
	p.IncrementVersion()

	return nil
}

// ApplyFields applies a whole field set, stopping at the first invalid field
func (p *Product) ApplyFields(fields FieldSet) error {
	for _, field := range sortedFields(fields) {
		if err := p.ApplyField(field, fields[field]); err != nil {
			return err
		}
	}
	if len(fields) > 0 {
		p.AddDomainEvent(NewProductUpdatedEvent(p))
	}
	return nil
}

// CustomizeAdField is the merchant edit path for ad-specific fields. The
// field is applied and recorded as overridden so later syncs cannot
// silently replace it.
func (p *Product) CustomizeAdField(field, value string) error {
	if !IsAdSpecificField(field) {
		return shared.NewDomainError("NOT_AD_FIELD", "Only ad-specific fields can be customized: "+field)
	}
	if err := p.ApplyField(field, value); err != nil {
		return err
	}
	p.MarkOverridden(field)
	return nil
}

// MarkOverridden records a field as merchant-overridden
func (p *Product) MarkOverridden(field string) {
	list := p.overriddenList()
	for _, f := range list {
		if f == field {
			return
		}
	}
	list = append(list, field)
	sort.Strings(list)
	p.setOverriddenList(list)
}

// ClearOverride removes the override protection from a field
func (p *Product) ClearOverride(field string) {
	list := p.overriddenList()
	out := list[:0]
	for _, f := range list {
		if f != field {
			out = append(out, f)
		}
	}
	p.setOverriddenList(out)
}

// IsFieldOverridden reports whether a field is protected by a merchant override
func (p *Product) IsFieldOverridden(field string) bool {
	if !p.IsOverride || !IsAdSpecificField(field) {
		return false
	}
	for _, f := range p.overriddenList() {
		if f == field {
			return true
		}
	}
	return false
}

// Attributes returns the custom attribute map
func (p *Product) Attributes() (map[string]string, error) {
	attrs := make(map[string]string)
	if p.CustomAttributes == "" {
		return attrs, nil
	}
	if err := json.Unmarshal([]byte(p.CustomAttributes), &attrs); err != nil {
		return nil, shared.NewDomainError("INVALID_ATTRIBUTES", "Stored attributes are not a valid JSON object")
	}
	return attrs, nil
}

// setAttribute sets one key of the custom attribute map
func (p *Product) setAttribute(key, value string) error {
	attrs, err := p.Attributes()
	if err != nil {
		return err
	}
	if value == "" {
		delete(attrs, key)
	} else {
		attrs[key] = value
	}
	data, err := json.Marshal(attrs)
	if err != nil {
		return err
	}
	p.CustomAttributes = string(data)
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
	return nil
}

// overriddenList returns the overridden field identifiers
func (p *Product) overriddenList() []string {
	if p.OverriddenFields == "" {
		return nil
	}
	var list []string
	if err := json.Unmarshal([]byte(p.OverriddenFields), &list); err != nil {
		return nil
	}
	return list
}

// setOverriddenList persists the overridden field identifiers
func (p *Product) setOverriddenList(list []string) {
	data, _ := json.Marshal(list)
	p.OverriddenFields = string(data)
	p.IsOverride = len(list) > 0
	p.UpdatedAt = time.Now()
	p.IncrementVersion()
}

// sortedFields returns the field identifiers of a set in a stable order
func sortedFields(fields FieldSet) []string {
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// validateSKU validates the product SKU
func validateSKU(sku string) error {
	if sku == "" {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot be empty")
	}
	if len(sku) > 100 {
		return shared.NewDomainError("INVALID_SKU", "SKU cannot exceed 100 characters")
	}
	for _, r := range sku {
		if !((r >= 'A' && r <= 'Z') || (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' || r == '-' || r == '.') {
			return shared.NewDomainError("INVALID_SKU", "SKU can only contain letters, numbers, underscores, hyphens, and dots")
		}
	}
	return nil
}

// validateTitle validates the product title
func validateTitle(title string) error {
	if title == "" {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot be empty")
	}
	if len(title) > 500 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 500 characters")
	}
	return nil
}
