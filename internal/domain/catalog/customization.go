package catalog

import (
	"encoding/json"
	"time"

	"github.com/adfeed/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// ProductCustomization carries per-ad-network overrides for one product.
// During feed generation it has the highest merge precedence, above the
// product's own ad-specific fields and the canonical platform fields.
type ProductCustomization struct {
	shared.MerchantAggregateRoot
	CatalogID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customization_key,priority:1"`
	AdNetworkID string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_customization_key,priority:2"`
	ProductID   uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:idx_customization_key,priority:3"`
	Title       string    `gorm:"type:varchar(500)"`
	Description string    `gorm:"type:text"`
	ImageURL    string    `gorm:"type:varchar(2000)"`
	// Attributes is a JSON object of network-specific attribute overrides
	Attributes string `gorm:"type:jsonb;default:'{}'"`
}

// TableName returns the table name for GORM
func (ProductCustomization) TableName() string {
	return "product_customizations"
}

// NewProductCustomization creates a customization for one (network, product) pair
func NewProductCustomization(merchantID, catalogID, productID uuid.UUID, adNetworkID string) (*ProductCustomization, error) {
	if adNetworkID == "" {
		return nil, shared.NewDomainError("INVALID_AD_NETWORK", "Ad network ID cannot be empty")
	}

	return &ProductCustomization{
		MerchantAggregateRoot: shared.NewMerchantAggregateRoot(merchantID),
		CatalogID:             catalogID,
		AdNetworkID:           adNetworkID,
		ProductID:             productID,
		Attributes:            "{}",
	}, nil
}

// Update replaces the customized values. Empty strings mean "no override".
func (c *ProductCustomization) Update(title, description, imageURL string, attributes map[string]string) error {
	if len(title) > 500 {
		return shared.NewDomainError("INVALID_TITLE", "Title cannot exceed 500 characters")
	}
	if len(imageURL) > 2000 {
		return shared.NewDomainError("INVALID_IMAGE_URL", "Image URL cannot exceed 2000 characters")
	}

	c.Title = title
	c.Description = description
	c.ImageURL = imageURL

	if attributes == nil {
		attributes = map[string]string{}
	}
	data, err := json.Marshal(attributes)
	if err != nil {
		return err
	}
	c.Attributes = string(data)

	c.UpdatedAt = time.Now()
	c.IncrementVersion()

	return nil
}

// FieldOverrides returns the customization as a field set containing only
// the fields that are actually overridden
func (c *ProductCustomization) FieldOverrides() FieldSet {
	fields := make(FieldSet)
	if c.Title != "" {
		fields[FieldTitle] = c.Title
	}
	if c.Description != "" {
		fields[FieldDescription] = c.Description
	}
	if c.ImageURL != "" {
		fields[FieldImageURL] = c.ImageURL
	}

	var attrs map[string]string
	if c.Attributes != "" {
		if err := json.Unmarshal([]byte(c.Attributes), &attrs); err == nil {
			for k, v := range attrs {
				if v != "" {
					fields[AttrField(k)] = v
				}
			}
		}
	}

	return fields
}
