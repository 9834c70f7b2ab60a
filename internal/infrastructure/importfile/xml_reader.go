package importfile

import (
	"bufio"
	"encoding/xml"
	"fmt"
	"io"
	"strings"

	"github.com/adfeed/backend/internal/domain/bulkimport"
	"github.com/adfeed/backend/internal/domain/catalog"
)

// XMLRecordReader streams product records from an XML upload shaped as
//
//	<products>
//	  <product>
//	    <sku>A-1</sku>
//	    <title>Socks</title>
//	    <attr key="color">red</attr>
//	  </product>
//	</products>
//
// Child elements of <product> map to canonical field IDs; <attr key="...">
// carries custom attributes.
type XMLRecordReader struct {
	decoder *xml.Decoder
	row     int
	done    bool
}

// NewXMLRecordReader validates encoding and positions the reader inside the
// root element
func NewXMLRecordReader(r io.Reader) (*XMLRecordReader, error) {
	buf := bufio.NewReader(r)
	if err := validateUTF8(buf); err != nil {
		return nil, err
	}

	decoder := xml.NewDecoder(buf)
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, ErrEmptyFile
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse xml: %w", err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != "products" {
				return nil, fmt.Errorf("%w: unexpected root element %q", ErrHeaderMismatch, start.Name.Local)
			}
			break
		}
	}
	return &XMLRecordReader{decoder: decoder}, nil
}

// Next reads the next <product> element
func (r *XMLRecordReader) Next() (*ProductRecord, *bulkimport.RowError, error) {
	if r.done {
		return nil, nil, io.EOF
	}
	for {
		tok, err := r.decoder.Token()
		if err == io.EOF {
			r.done = true
			return nil, nil, io.EOF
		}
		if err != nil {
			// An xml syntax error poisons the rest of the stream
			r.done = true
			r.row++
			return nil, &bulkimport.RowError{
				Row:     r.row,
				Code:    CodeMalformedRow,
				Message: err.Error(),
			}, nil
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != "product" {
				r.row++
				if err := r.decoder.Skip(); err != nil {
					r.done = true
				}
				return nil, &bulkimport.RowError{
					Row:     r.row,
					Code:    CodeMalformedRow,
					Message: fmt.Sprintf("unexpected element %q, expected \"product\"", t.Name.Local),
				}, nil
			}
			r.row++
			return r.readProduct()
		case xml.EndElement:
			if t.Name.Local == "products" {
				r.done = true
				return nil, nil, io.EOF
			}
		}
	}
}

// readProduct consumes one <product> element and its children
func (r *XMLRecordReader) readProduct() (*ProductRecord, *bulkimport.RowError, error) {
	fields := make(catalog.FieldSet)
	sku := ""

	for {
		tok, err := r.decoder.Token()
		if err != nil {
			r.done = true
			return nil, &bulkimport.RowError{
				Row:     r.row,
				Code:    CodeMalformedRow,
				Message: fmt.Sprintf("truncated product element: %v", err),
			}, nil
		}

		switch t := tok.(type) {
		case xml.StartElement:
			field := t.Name.Local
			if field == "attr" {
				key := attrValue(t, "key")
				if key == "" {
					r.skipRestOfProduct()
					return nil, &bulkimport.RowError{
						Row:     r.row,
						Column:  "attr",
						Code:    CodeMalformedRow,
						Message: "attr element missing key attribute",
					}, nil
				}
				field = catalog.AttrField(key)
			} else if !catalog.IsKnownField(field) {
				r.skipRestOfProduct()
				return nil, &bulkimport.RowError{
					Row:     r.row,
					Column:  field,
					Code:    CodeMalformedRow,
					Message: fmt.Sprintf("unknown field element %q", field),
				}, nil
			}

			value, err := r.elementText(t.Name)
			if err != nil {
				r.done = true
				return nil, &bulkimport.RowError{
					Row:     r.row,
					Column:  field,
					Code:    CodeMalformedRow,
					Message: err.Error(),
				}, nil
			}
			value = strings.TrimSpace(value)

			if field == catalog.FieldSKU {
				sku = value
				continue
			}
			if code, msg := checkTypedValue(field, value); code != "" {
				r.skipRestOfProduct()
				return nil, &bulkimport.RowError{
					Row:     r.row,
					Column:  field,
					Code:    code,
					Message: msg,
				}, nil
			}
			fields[field] = value

		case xml.EndElement:
			if t.Name.Local == "product" {
				if sku == "" {
					return nil, &bulkimport.RowError{
						Row:     r.row,
						Column:  catalog.FieldSKU,
						Code:    CodeMissingField,
						Message: "sku is required",
					}, nil
				}
				return &ProductRecord{Line: r.row, SKU: sku, Fields: fields}, nil, nil
			}
		}
	}
}

// elementText reads character data until the matching end element
func (r *XMLRecordReader) elementText(name xml.Name) (string, error) {
	var sb strings.Builder
	for {
		tok, err := r.decoder.Token()
		if err != nil {
			return "", fmt.Errorf("truncated element %q: %v", name.Local, err)
		}
		switch t := tok.(type) {
		case xml.CharData:
			sb.Write(t)
		case xml.EndElement:
			if t.Name == name {
				return sb.String(), nil
			}
		case xml.StartElement:
			return "", fmt.Errorf("unexpected nested element %q inside %q", t.Name.Local, name.Local)
		}
	}
}

// skipRestOfProduct discards tokens up to the closing </product> so the
// reader can continue with the next row
func (r *XMLRecordReader) skipRestOfProduct() {
	depth := 1
	for depth > 0 {
		tok, err := r.decoder.Token()
		if err != nil {
			r.done = true
			return
		}
		switch tok.(type) {
		case xml.StartElement:
			depth++
		case xml.EndElement:
			depth--
		}
	}
}

func attrValue(start xml.StartElement, name string) string {
	for _, a := range start.Attr {
		if a.Name.Local == name {
			return strings.TrimSpace(a.Value)
		}
	}
	return ""
}

// Ensure XMLRecordReader implements RecordReader
var _ RecordReader = (*XMLRecordReader)(nil)
