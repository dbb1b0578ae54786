package doc

import (
	"errors"
	"fmt"
)

// ErrorCode classifies failures across the translation pipeline.
type ErrorCode string

const (
	ErrMalformedDocument      ErrorCode = "MALFORMED_DOCUMENT"
	ErrEncryptedDocument      ErrorCode = "ENCRYPTED_DOCUMENT"
	ErrUnmappableGlyph        ErrorCode = "UNMAPPABLE_GLYPH"
	ErrLayoutModelUnavailable ErrorCode = "LAYOUT_MODEL_UNAVAILABLE"
	ErrBackendUnavailable     ErrorCode = "BACKEND_UNAVAILABLE"
	ErrRateLimited            ErrorCode = "RATE_LIMITED"
	ErrInvalidLanguagePair    ErrorCode = "INVALID_LANGUAGE_PAIR"
	ErrTranslateFailed        ErrorCode = "TRANSLATE_FAILED"
	ErrRenderFailed           ErrorCode = "RENDER_FAILED"
	ErrCacheFailed            ErrorCode = "CACHE_FAILED"
	ErrCancelled              ErrorCode = "CANCELLED"
)

// Error is the typed error used throughout the engine.
type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Details string    `json:"details,omitempty"`
	Page    int       `json:"page,omitempty"`
	Cause   error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Message
	if e.Details != "" {
		msg += ": " + e.Details
	}
	if e.Page > 0 {
		return fmt.Sprintf("[%s] page %d: %s", e.Code, e.Page, msg)
	}
	return fmt.Sprintf("[%s] %s", e.Code, msg)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates an Error with the given code, message and optional cause.
func NewError(code ErrorCode, message string, cause error) *Error {
	return &Error{Code: code, Message: message, Cause: cause}
}

// NewErrorWithDetails creates an Error carrying extra detail text.
func NewErrorWithDetails(code ErrorCode, message, details string, cause error) *Error {
	return &Error{Code: code, Message: message, Details: details, Cause: cause}
}

// NewErrorWithPage creates an Error scoped to a page.
func NewErrorWithPage(code ErrorCode, message string, page int, cause error) *Error {
	return &Error{Code: code, Message: message, Page: page, Cause: cause}
}

// CodeOf extracts the error code from err, unwrapping as needed. It returns
// the empty code when no *Error is present in the chain.
func CodeOf(err error) ErrorCode {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsTransient reports whether err is worth retrying: rate limits, timeouts
// and backend outages. Invalid language pairs and malformed input never are.
func IsTransient(err error) bool {
	switch CodeOf(err) {
	case ErrRateLimited, ErrBackendUnavailable:
		return true
	default:
		return false
	}
}
