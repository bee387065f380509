// Package domainerrors provides coded errors for domain and service layers.
// Stores return sentinel errors for infrastructure facts; services translate
// them into coded domain errors here so transports can map codes to HTTP
// statuses without inspecting error strings.
package domainerrors

import (
	"errors"
	"fmt"
	"net/http"
)

// Code classifies a domain error for transport mapping and callers that
// branch on failure kind.
type Code string

const (
	CodeBadRequest   Code = "bad_request"
	CodeInvalidInput Code = "invalid_input"
	CodeNotFound     Code = "not_found"
	CodeConflict     Code = "conflict"
	CodeInvalidState Code = "invalid_state"

	// CodeConsentRequired gates sensitive capabilities. It is a normal
	// workflow state, not a failure: the caller should present the consent
	// prompt and retry after a grant.
	CodeConsentRequired Code = "consent_required"

	// CodeCaptureUnavailable marks camera acquisition failures (permission
	// denied or capability unsupported). Session-fatal.
	CodeCaptureUnavailable Code = "capture_unavailable"

	// CodeLocationUnavailable covers permission-denied, timeout, and
	// no-fix outcomes of a location probe. Session-fatal for that probe;
	// the user retries by reopening or rerunning.
	CodeLocationUnavailable Code = "location_unavailable"

	// CodeOutsideGeofence means a valid fix was obtained but lies outside
	// every allowed zone. Advisory: it blocks capture, not the session.
	CodeOutsideGeofence Code = "outside_geofence"

	CodeInternal Code = "internal"
)

// DomainError carries a code, a human-readable message, and an optional
// wrapped cause.
type DomainError struct {
	Code    Code
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// New creates a DomainError with the given code and message.
func New(code Code, message string) error {
	return &DomainError{Code: code, Message: message}
}

// Wrap creates a DomainError that wraps an underlying cause.
func Wrap(err error, code Code, message string) error {
	return &DomainError{Code: code, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) is a DomainError with the
// given code.
func Is(err error, code Code) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// CodeOf extracts the code from err, or CodeInternal when err is not a
// DomainError.
func CodeOf(err error) Code {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// MessageOf extracts the message from err, or a generic message when err is
// not a DomainError. Transports use this to avoid leaking internals.
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return "internal error"
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code Code) int {
	switch code {
	case CodeBadRequest, CodeInvalidInput:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeConflict, CodeInvalidState:
		return http.StatusConflict
	case CodeConsentRequired:
		return http.StatusPreconditionFailed
	case CodeCaptureUnavailable, CodeLocationUnavailable:
		return http.StatusServiceUnavailable
	case CodeOutsideGeofence:
		return http.StatusForbidden
	default:
		return http.StatusInternalServerError
	}
}
