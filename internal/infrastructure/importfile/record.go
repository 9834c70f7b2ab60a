// Package importfile parses uploaded catalog files into product records.
// Both formats stream rows one at a time so peak memory stays proportional
// to row size, not file size.
package importfile

import (
	"fmt"
	"io"
	"strconv"

	"github.com/adfeed/backend/internal/domain/bulkimport"
	"github.com/adfeed/backend/internal/domain/catalog"
	"github.com/shopspring/decimal"
)

// ProductRecord is one parsed row of an import file. Fields carries values
// in canonical string form keyed by field ID, ready for conflict detection.
type ProductRecord struct {
	Line   int
	SKU    string
	Fields catalog.FieldSet
}

// RecordReader streams product records from an uploaded file. Next returns
// io.EOF after the last row. A malformed row comes back as a non-nil
// RowError with a nil record; the reader stays usable for the next row.
type RecordReader interface {
	Next() (*ProductRecord, *bulkimport.RowError, error)
}

// NewRecordReader opens a reader for the declared file format
func NewRecordReader(format bulkimport.FileFormat, r io.Reader) (RecordReader, error) {
	switch format {
	case bulkimport.FormatCSV:
		return NewCSVRecordReader(r)
	case bulkimport.FormatXML:
		return NewXMLRecordReader(r)
	default:
		return nil, fmt.Errorf("unsupported import format: %s", format)
	}
}

// checkTypedValue validates the lexical shape of typed canonical fields.
// Returns a row error description, or empty strings when the value is fine.
func checkTypedValue(field, value string) (code, message string) {
	if value == "" {
		return "", ""
	}
	switch field {
	case catalog.FieldPrice:
		if _, err := decimal.NewFromString(value); err != nil {
			return CodeInvalidType, fmt.Sprintf("expected decimal, got %q", value)
		}
	case catalog.FieldStockLevel:
		if _, err := strconv.Atoi(value); err != nil {
			return CodeInvalidType, fmt.Sprintf("expected integer, got %q", value)
		}
	}
	return "", ""
}
