package importfile

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/adfeed/backend/internal/domain/bulkimport"
	"github.com/adfeed/backend/internal/domain/catalog"
)

// CSVRecordReader streams product records from a CSV upload. The first row
// is the header; every column must be a known product field or an attr:
// column, and "sku" must be present.
type CSVRecordReader struct {
	reader  *csv.Reader
	headers []string
	line    int
}

// NewCSVRecordReader validates encoding and header, then positions the
// reader at the first data row. Header problems fail the whole file.
func NewCSVRecordReader(r io.Reader) (*CSVRecordReader, error) {
	buf := bufio.NewReader(r)

	// Detect and strip UTF-8 BOM
	head, err := buf.Peek(3)
	if err != nil && err != io.EOF {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	if len(head) >= 3 && head[0] == 0xEF && head[1] == 0xBB && head[2] == 0xBF {
		_, _ = buf.Discard(3)
	}

	if err := validateUTF8(buf); err != nil {
		return nil, err
	}

	cr := csv.NewReader(buf)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	// Header fixes the expected field count; shorter/longer rows are
	// reported per row, not as a file failure
	cr.FieldsPerRecord = 0

	reader := &CSVRecordReader{reader: cr}
	if err := reader.parseHeader(); err != nil {
		return nil, err
	}
	return reader, nil
}

func validateUTF8(r *bufio.Reader) error {
	const checkSize = 4096
	content, err := r.Peek(checkSize)
	if err != nil && err != io.EOF {
		return fmt.Errorf("failed to read file for encoding validation: %w", err)
	}
	if len(content) == 0 {
		return ErrEmptyFile
	}
	if !utf8.Valid(content[:utf8CutPoint(content)]) {
		return ErrInvalidEncoding
	}
	return nil
}

// utf8CutPoint backs off up to three bytes so a rune split by the peek
// window is not misread as invalid encoding
func utf8CutPoint(content []byte) int {
	end := len(content)
	for back := 0; back < 3 && end > 0; back++ {
		if r, _ := utf8.DecodeLastRune(content[:end]); r != utf8.RuneError {
			return end
		}
		end--
	}
	return end
}

func (r *CSVRecordReader) parseHeader() error {
	record, err := r.reader.Read()
	if err == io.EOF {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}
	r.line = 1

	hasSKU := false
	r.headers = make([]string, len(record))
	for i, h := range record {
		header := strings.TrimSpace(h)
		if !catalog.IsKnownField(header) {
			return fmt.Errorf("%w: unknown column %q", ErrHeaderMismatch, header)
		}
		if header == catalog.FieldSKU {
			hasSKU = true
		}
		r.headers[i] = header
	}

	if !hasSKU {
		return fmt.Errorf("%w: missing required column %q", ErrHeaderMismatch, catalog.FieldSKU)
	}
	return nil
}

// Headers returns the parsed column names in file order
func (r *CSVRecordReader) Headers() []string {
	return r.headers
}

// Next reads the next data row
func (r *CSVRecordReader) Next() (*ProductRecord, *bulkimport.RowError, error) {
	record, err := r.reader.Read()
	if err == io.EOF {
		return nil, nil, io.EOF
	}
	r.line++
	if err != nil {
		if errors.Is(err, csv.ErrFieldCount) {
			return nil, &bulkimport.RowError{
				Row:     r.line,
				Code:    CodeMalformedRow,
				Message: fmt.Sprintf("expected %d columns, got %d", len(r.headers), len(record)),
			}, nil
		}
		return nil, &bulkimport.RowError{
			Row:     r.line,
			Code:    CodeMalformedRow,
			Message: err.Error(),
		}, nil
	}

	fields := make(catalog.FieldSet, len(r.headers))
	sku := ""
	for i, header := range r.headers {
		value := strings.TrimSpace(record[i])
		if header == catalog.FieldSKU {
			sku = value
			continue
		}
		if code, msg := checkTypedValue(header, value); code != "" {
			return nil, &bulkimport.RowError{
				Row:     r.line,
				Column:  header,
				Code:    code,
				Message: msg,
			}, nil
		}
		fields[header] = value
	}

	if sku == "" {
		return nil, &bulkimport.RowError{
			Row:     r.line,
			Column:  catalog.FieldSKU,
			Code:    CodeMissingField,
			Message: "sku is required",
		}, nil
	}

	return &ProductRecord{Line: r.line, SKU: sku, Fields: fields}, nil, nil
}

// Ensure CSVRecordReader implements RecordReader
var _ RecordReader = (*CSVRecordReader)(nil)
