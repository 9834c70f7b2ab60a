package dto

import (
	"net/http"
	"strings"
)

// General error codes used by the HTTP layer itself
const (
	ErrCodeInternal   = "INTERNAL_ERROR"
	ErrCodeBadRequest = "BAD_REQUEST"
)

// domainCodeHTTPStatus maps domain error codes to HTTP status codes.
// Codes not listed fall through to the INVALID_ prefix rule, then 500.
var domainCodeHTTPStatus = map[string]int{
	"NOT_FOUND": http.StatusNotFound,

	"ALREADY_EXISTS":       http.StatusConflict,
	"JOB_ALREADY_RUNNING":  http.StatusConflict,
	"CONCURRENCY_CONFLICT": http.StatusConflict,

	// Operation is well-formed but the aggregate state forbids it
	"INVALID_STATE":      http.StatusUnprocessableEntity,
	"CATALOG_NOT_ACTIVE": http.StatusUnprocessableEntity,
	"CATALOG_ARCHIVED":   http.StatusUnprocessableEntity,
	"FEED_NOT_READY":     http.StatusUnprocessableEntity,

	"FILE_TOO_LARGE": http.StatusRequestEntityTooLarge,

	"SOURCE_UNAVAILABLE": http.StatusBadGateway,

	"BAD_REQUEST":    http.StatusBadRequest,
	"UNKNOWN_FIELD":  http.StatusBadRequest,
	"NOT_AD_FIELD":   http.StatusBadRequest,
	"INTERNAL_ERROR": http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status for a domain error code. Codes
// without an explicit entry follow prefix rules: INVALID_* validation
// codes are 400, ALREADY_* duplicate-state codes are 409, and any other
// domain code is a business rule violation at 422.
func GetHTTPStatus(code string) int {
	if status, ok := domainCodeHTTPStatus[code]; ok {
		return status
	}
	switch {
	case strings.HasPrefix(code, "INVALID_"):
		return http.StatusBadRequest
	case strings.HasPrefix(code, "ALREADY_"):
		return http.StatusConflict
	}
	return http.StatusUnprocessableEntity
}
