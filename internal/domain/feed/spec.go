package feed

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Validation error codes shared by the generation engine and the validator
const (
	CodeMissingRequiredField = "MISSING_REQUIRED_FIELD"
	CodeInvalidDecimal       = "INVALID_DECIMAL"
	CodeInvalidInteger       = "INVALID_INTEGER"
	CodeInvalidURL           = "INVALID_URL"
	CodeValueNotAllowed      = "VALUE_NOT_ALLOWED"
	CodeValueTooLong         = "VALUE_TOO_LONG"
	CodeValueOutOfRange      = "VALUE_OUT_OF_RANGE"
)

var urlValidator = validator.New()

// FieldType constrains the lexical shape of a network field value
type FieldType string

const (
	FieldTypeString  FieldType = "string"
	FieldTypeDecimal FieldType = "decimal"
	FieldTypeInteger FieldType = "integer"
	FieldTypeURL     FieldType = "url"
)

// FieldSpec is one column/element rule of an ad network schema
type FieldSpec struct {
	// Name is the network-side field name, e.g. "g:price"
	Name string
	// Source is the merged-record field the value is taken from, e.g. "price"
	Source string
	Type     FieldType
	Required bool
	// MaxLength of 0 means unlimited
	MaxLength int
	// AllowedValues restricts the value to an enumeration when non-empty
	AllowedValues []string
	MinValue      *decimal.Decimal
	MaxValue      *decimal.Decimal
}

// ValidationIssue is one item-level schema violation
type ValidationIssue struct {
	ItemID  string `json:"item_id"`
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Check validates a single value against the field rules. An empty value on
// an optional field is always fine.
func (f FieldSpec) Check(value string) *ValidationIssue {
	if value == "" {
		if f.Required {
			return &ValidationIssue{
				Field:   f.Name,
				Code:    CodeMissingRequiredField,
				Message: fmt.Sprintf("Required field '%s' is missing", f.Name),
			}
		}
		return nil
	}

	if f.MaxLength > 0 && len(value) > f.MaxLength {
		return &ValidationIssue{
			Field:   f.Name,
			Code:    CodeValueTooLong,
			Message: fmt.Sprintf("Value of '%s' exceeds %d characters", f.Name, f.MaxLength),
		}
	}

	switch f.Type {
	case FieldTypeDecimal:
		d, err := decimal.NewFromString(value)
		if err != nil {
			return &ValidationIssue{
				Field:   f.Name,
				Code:    CodeInvalidDecimal,
				Message: fmt.Sprintf("Value of '%s' is not a decimal number: %s", f.Name, value),
			}
		}
		if issue := f.checkRange(d); issue != nil {
			return issue
		}
	case FieldTypeInteger:
		n, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return &ValidationIssue{
				Field:   f.Name,
				Code:    CodeInvalidInteger,
				Message: fmt.Sprintf("Value of '%s' is not an integer: %s", f.Name, value),
			}
		}
		if issue := f.checkRange(decimal.NewFromInt(n)); issue != nil {
			return issue
		}
	case FieldTypeURL:
		if err := urlValidator.Var(value, "url"); err != nil {
			return &ValidationIssue{
				Field:   f.Name,
				Code:    CodeInvalidURL,
				Message: fmt.Sprintf("Value of '%s' is not a valid URL", f.Name),
			}
		}
	}

	if len(f.AllowedValues) > 0 && !contains(f.AllowedValues, value) {
		return &ValidationIssue{
			Field: f.Name,
			Code:  CodeValueNotAllowed,
			Message: fmt.Sprintf("Value of '%s' must be one of: %s",
				f.Name, strings.Join(f.AllowedValues, ", ")),
		}
	}

	return nil
}

func (f FieldSpec) checkRange(d decimal.Decimal) *ValidationIssue {
	if f.MinValue != nil && d.LessThan(*f.MinValue) {
		return &ValidationIssue{
			Field:   f.Name,
			Code:    CodeValueOutOfRange,
			Message: fmt.Sprintf("Value of '%s' is below the minimum %s", f.Name, f.MinValue),
		}
	}
	if f.MaxValue != nil && d.GreaterThan(*f.MaxValue) {
		return &ValidationIssue{
			Field:   f.Name,
			Code:    CodeValueOutOfRange,
			Message: fmt.Sprintf("Value of '%s' is above the maximum %s", f.Name, f.MaxValue),
		}
	}
	return nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}

// Spec is the full field schema of one ad network
type Spec struct {
	AdNetworkID string
	Name        string
	Fields      []FieldSpec
}

// ValidateItem checks one mapped record against every field rule, in spec
// order. values is keyed by network field name.
func (s *Spec) ValidateItem(itemID string, values map[string]string) []ValidationIssue {
	var issues []ValidationIssue
	for _, field := range s.Fields {
		if issue := field.Check(values[field.Name]); issue != nil {
			issue.ItemID = itemID
			issues = append(issues, *issue)
		}
	}
	return issues
}

// RequiredFields returns the network field names that must be present
func (s *Spec) RequiredFields() []string {
	var names []string
	for _, field := range s.Fields {
		if field.Required {
			names = append(names, field.Name)
		}
	}
	return names
}

// ValidationResult is the outcome of validating a feed or a sample
type ValidationResult struct {
	FeedID  string            `json:"feed_id,omitempty"`
	IsValid bool              `json:"is_valid"`
	Issues  []ValidationIssue `json:"issues"`
}

// NewValidationResult builds a result from collected issues
func NewValidationResult(feedID string, issues []ValidationIssue) ValidationResult {
	if issues == nil {
		issues = []ValidationIssue{}
	}
	return ValidationResult{
		FeedID:  feedID,
		IsValid: len(issues) == 0,
		Issues:  issues,
	}
}

// SpecRegistry resolves ad network field schemas
type SpecRegistry interface {
	// Get returns the spec for an ad network, or shared.ErrNotFound
	Get(ctx context.Context, adNetworkID string) (*Spec, error)

	// Networks lists the known ad network IDs
	Networks(ctx context.Context) []string
}
