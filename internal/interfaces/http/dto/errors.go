package dto

import (
	"net/http"
	"strings"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	ErrCodeInvalidID  = "ERR_INVALID_ID"
	// ErrCodeBodyTooLarge is used when the request body exceeds the configured limit
	ErrCodeBodyTooLarge = "ERR_BODY_TOO_LARGE"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource error codes
const (
	ErrCodeNotFound      = "ERR_NOT_FOUND"
	ErrCodeAlreadyExists = "ERR_ALREADY_EXISTS"
	ErrCodeConflict      = "ERR_CONFLICT"
)

// Business rule error codes
const (
	ErrCodeInvalidState = "ERR_INVALID_STATE"
	ErrCodeBusinessRule = "ERR_BUSINESS_RULE"
)

// ERP error codes
const (
	// ErrCodeERPRequest is used when Focco answered with a non-2xx status
	ErrCodeERPRequest = "ERR_ERP_REQUEST"
	// ErrCodeERPUnavailable is used when Focco could not be reached in time
	ErrCodeERPUnavailable = "ERR_ERP_UNAVAILABLE"
	// ErrCodeERPInvalidResponse is used when a 2xx body could not be understood
	ErrCodeERPInvalidResponse = "ERR_ERP_INVALID_RESPONSE"
	// ErrCodeERPMapping is used when an order cannot be translated to the ERP payload
	ErrCodeERPMapping = "ERR_ERP_MAPPING"
)

// Scheduler error codes
const (
	ErrCodeSchedulerStopped = "ERR_SCHEDULER_STOPPED"
	ErrCodeJobQueued        = "ERR_JOB_ALREADY_QUEUED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation:   http.StatusBadRequest,
	ErrCodeBadRequest:   http.StatusBadRequest,
	ErrCodeInvalidID:    http.StatusBadRequest,
	ErrCodeBodyTooLarge: http.StatusRequestEntityTooLarge,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeConflict:      http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	ErrCodeInvalidState: http.StatusUnprocessableEntity,
	ErrCodeBusinessRule: http.StatusUnprocessableEntity,

	ErrCodeERPRequest:         http.StatusBadGateway,
	ErrCodeERPUnavailable:     http.StatusGatewayTimeout,
	ErrCodeERPInvalidResponse: http.StatusBadGateway,
	ErrCodeERPMapping:         http.StatusUnprocessableEntity,

	ErrCodeSchedulerStopped: http.StatusServiceUnavailable,
	ErrCodeJobQueued:        http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":               ErrCodeNotFound,
	"ALREADY_EXISTS":          ErrCodeAlreadyExists,
	"ORDER_NUMBER_TAKEN":      ErrCodeAlreadyExists,
	"PRODUCT_CODE_TAKEN":      ErrCodeAlreadyExists,
	"ALREADY_SUBMITTED":       ErrCodeConflict,
	"ORDER_ALREADY_SUBMITTED": ErrCodeConflict,
	"STALE_VERSION":           ErrCodeConflict,
	"INVALID_STATE":           ErrCodeInvalidState,
	"ORDER_NOT_CONFIRMED":     ErrCodeInvalidState,
	"ORDER_CANCELLED":         ErrCodeInvalidState,
	"NOT_SUBMITTED":           ErrCodeInvalidState,
	"NO_ITEMS":                ErrCodeBusinessRule,
	"UNAUTHORIZED":            ErrCodeUnauthorized,
	"INTERNAL_ERROR":          ErrCodeInternal,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unlisted INVALID_* codes are input validation failures; anything else is
// returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	if strings.HasPrefix(code, "INVALID_") {
		return ErrCodeValidation
	}
	return code
}
