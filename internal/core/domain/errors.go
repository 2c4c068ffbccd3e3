// Package domain defines the settings data model for the SID controller.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a settings error with a structured error code.
//
// Codes have the form SID-<AREA>-<NNNN>; two errors are equal under
// errors.Is when their codes match.
type DomainError struct {
	Code    string // Error code (e.g., "SID-REC-4220")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrapf wraps cause and sets formatted details in one step.
func (e *DomainError) Wrapf(cause error, format string, args ...any) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// ============================================================================
// Medium Errors (MED)
// ============================================================================

var (
	// ErrMediumUnavailable indicates no reachable medium for the record.
	// Non-fatal: loads fall back to defaults, saves are skipped.
	ErrMediumUnavailable = NewDomainError("SID-MED-5030", "storage medium unavailable")

	// ErrMediumReadOnly indicates the selected medium refuses writes.
	ErrMediumReadOnly = NewDomainError("SID-MED-4030", "storage medium is read-only")
)

// ============================================================================
// Record Errors (REC)
// ============================================================================

var (
	// ErrRecordNotFound indicates the record does not exist on any medium.
	ErrRecordNotFound = NewDomainError("SID-REC-4040", "record not found")

	// ErrRecordCorrupt indicates a checksum or size mismatch in a binary record.
	ErrRecordCorrupt = NewDomainError("SID-REC-4220", "record corrupt")
)

// ============================================================================
// Document Errors (DOC)
// ============================================================================

var (
	// ErrDocumentMalformed indicates a text document failed to parse.
	ErrDocumentMalformed = NewDomainError("SID-DOC-4000", "document malformed")
)

// ============================================================================
// Field Errors (FLD)
// ============================================================================

var (
	// ErrFieldOutOfRange indicates a field was clamped or replaced by its default.
	ErrFieldOutOfRange = NewDomainError("SID-FLD-4001", "field out of range")

	// ErrUnknownField indicates the named field does not exist.
	ErrUnknownField = NewDomainError("SID-FLD-4040", "unknown field")
)

// ============================================================================
// Write Errors (WRT)
// ============================================================================

var (
	// ErrWriteFailed indicates an I/O error while persisting a record.
	// There is no automatic retry; the next save cycle tries again.
	ErrWriteFailed = NewDomainError("SID-WRT-5000", "write failed")

	// ErrMoveRejected indicates a relocation request that policy forbids.
	ErrMoveRejected = NewDomainError("SID-WRT-4090", "move rejected")
)
