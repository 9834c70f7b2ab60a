package importfile

import "errors"

// Row-level error codes recorded on import jobs
const (
	CodeMalformedRow = "MALFORMED_ROW"
	CodeMissingField = "MISSING_REQUIRED_FIELD"
	CodeInvalidType  = "INVALID_TYPE"
)

// File-level errors that fail an import before any row is processed
var (
	// ErrEmptyFile is returned when the file has no content
	ErrEmptyFile = errors.New("import file is empty")

	// ErrInvalidEncoding is returned when the file is not valid UTF-8
	ErrInvalidEncoding = errors.New("invalid file encoding")

	// ErrMissingHeader is returned when the CSV file has no header row
	ErrMissingHeader = errors.New("import file missing header row")

	// ErrHeaderMismatch is returned when the header contains columns the
	// product schema does not know
	ErrHeaderMismatch = errors.New("import file header does not match product schema")
)
