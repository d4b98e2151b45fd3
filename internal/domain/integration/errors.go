package integration

import (
	"errors"
	"fmt"
)

var (
	// ErrRemoteRequest is matched by every RemoteRequestError
	ErrRemoteRequest = errors.New("integration: erp request failed")
	// ErrTransport is matched by every TransportError
	ErrTransport = errors.New("integration: erp unreachable")
	// ErrValueConversion is matched by every ValueConversionError
	ErrValueConversion = errors.New("integration: invalid numeric value")
	// ErrMapping is matched by every MappingError
	ErrMapping = errors.New("integration: order cannot be mapped")
	// ErrInvalidResponse is returned when a 2xx body cannot be understood
	ErrInvalidResponse = errors.New("integration: invalid erp response")
	// ErrMissingExternalID is returned when an accepted order carries no pedidoVendaId
	ErrMissingExternalID = errors.New("integration: erp response has no order id")
)

// RemoteRequestError is a non-2xx answer from the ERP.
type RemoteRequestError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *RemoteRequestError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, truncate(e.Body, 512))
}

func (e *RemoteRequestError) Unwrap() error {
	return ErrRemoteRequest
}

// IsClientError reports a 4xx status
func (e *RemoteRequestError) IsClientError() bool {
	return e.StatusCode >= 400 && e.StatusCode < 500
}

// TransportError is a connection, TLS or timeout failure; no response was read.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() []error {
	return []error{ErrTransport, e.Err}
}

// ValueConversionError is a balance field that is not a number.
type ValueConversionError struct {
	Field string
	Value any
	Err   error
}

func (e *ValueConversionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("field %q: cannot convert %v (%T) to float: %v", e.Field, e.Value, e.Value, e.Err)
	}
	return fmt.Sprintf("field %q: cannot convert %v (%T) to float", e.Field, e.Value, e.Value)
}

func (e *ValueConversionError) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrValueConversion}
	}
	return []error{ErrValueConversion, e.Err}
}

// MappingError is an order that cannot be turned into an ERP payload.
type MappingError struct {
	Field  string
	Reason string
}

func (e *MappingError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func (e *MappingError) Unwrap() error {
	return ErrMapping
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
