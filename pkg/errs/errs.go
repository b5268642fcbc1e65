// Package errs implements the structured error taxonomy used across
// the sync core: every inbound-facing failure is classified into an
// ErrorType with a fixed HTTP status mapping, so handlers never have
// to invent per-endpoint error shapes.
package errs

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrorType classifies an AppError for HTTP status mapping and safe
// messaging.
type ErrorType string

const (
	ErrorTypeValidation ErrorType = "validation"
	ErrorTypeAuth       ErrorType = "auth"
	ErrorTypeForbidden  ErrorType = "forbidden"
	ErrorTypeNotFound   ErrorType = "not_found"
	ErrorTypeConflict   ErrorType = "conflict"
	ErrorTypeRateLimit  ErrorType = "rate_limit"
	ErrorTypeUpstream   ErrorType = "upstream"
	ErrorTypeNetwork    ErrorType = "network"
	ErrorTypeProtocol   ErrorType = "protocol"
	ErrorTypeStorage    ErrorType = "storage"
	ErrorTypeTimeout    ErrorType = "timeout"
	ErrorTypeInternal   ErrorType = "internal"
)

var statusByType = map[ErrorType]int{
	ErrorTypeValidation: http.StatusBadRequest,
	ErrorTypeAuth:       http.StatusUnauthorized,
	ErrorTypeForbidden:  http.StatusForbidden,
	ErrorTypeNotFound:   http.StatusNotFound,
	ErrorTypeConflict:   http.StatusConflict,
	ErrorTypeRateLimit:  http.StatusTooManyRequests,
	ErrorTypeUpstream:   http.StatusInternalServerError,
	ErrorTypeNetwork:    http.StatusInternalServerError,
	ErrorTypeProtocol:   http.StatusInternalServerError,
	ErrorTypeStorage:    http.StatusInternalServerError,
	ErrorTypeTimeout:    http.StatusRequestTimeout,
	ErrorTypeInternal:   http.StatusInternalServerError,
}

// AppError is the structured error type surfaced by every layer of
// the core that talks to an inbound caller.
type AppError struct {
	Type       ErrorType
	Message    string
	Details    string
	// Violations carries the full list of individually-failed rules
	// for a validation error (e.g. every unmet password policy rule),
	// surfaced to the caller as the response's structured details
	// array instead of being collapsed into Message.
	Violations []string
	StatusCode int
	Cause      error
}

// New creates an AppError of the given type.
func New(t ErrorType, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: statusCodeFor(t),
	}
}

// Newf creates an AppError with a formatted message.
func Newf(t ErrorType, format string, args ...interface{}) *AppError {
	return New(t, fmt.Sprintf(format, args...))
}

// Wrap wraps an underlying error in an AppError of the given type.
func Wrap(cause error, t ErrorType, message string) *AppError {
	return &AppError{
		Type:       t,
		Message:    message,
		StatusCode: statusCodeFor(t),
		Cause:      cause,
	}
}

// Wrapf wraps an underlying error with a formatted message.
func Wrapf(cause error, t ErrorType, format string, args ...interface{}) *AppError {
	return Wrap(cause, t, fmt.Sprintf(format, args...))
}

func statusCodeFor(t ErrorType) int {
	if code, ok := statusByType[t]; ok {
		return code
	}
	return http.StatusInternalServerError
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Type, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap exposes the wrapped cause to errors.Is/errors.As.
func (e *AppError) Unwrap() error { return e.Cause }

// WithDetails attaches a details string in place and returns the same
// error for chaining.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithDetailsf attaches a formatted details string.
func (e *AppError) WithDetailsf(format string, args ...interface{}) *AppError {
	return e.WithDetails(fmt.Sprintf(format, args...))
}

// --- predefined constructors ---

func NewValidationError(message string) *AppError { return New(ErrorTypeValidation, message) }

// NewValidationErrors creates a ValidationError carrying every failed
// rule as a structured violations list, with Message summarizing the
// count for contexts that only log the flat message.
func NewValidationErrors(violations []string) *AppError {
	err := New(ErrorTypeValidation, fmt.Sprintf("%d validation rule(s) failed", len(violations)))
	err.Violations = violations
	return err
}

func NewAuthError(message string) *AppError { return New(ErrorTypeAuth, message) }

func NewForbiddenError(message string) *AppError { return New(ErrorTypeForbidden, message) }

func NewNotFoundError(resource string) *AppError {
	return New(ErrorTypeNotFound, fmt.Sprintf("%s not found", resource))
}

func NewConflictError(message string) *AppError { return New(ErrorTypeConflict, message) }

func NewRateLimitError(message string) *AppError { return New(ErrorTypeRateLimit, message) }

func NewTimeoutError(operation string) *AppError {
	return New(ErrorTypeTimeout, fmt.Sprintf("operation timed out: %s", operation))
}

func NewStorageError(operation string, cause error) *AppError {
	return Wrapf(cause, ErrorTypeStorage, "storage operation failed: %s", operation)
}

// UpstreamError represents a non-2xx response (after retries are
// exhausted) from an upstream provider.
type UpstreamError struct {
	Provider    string
	Status      int
	BodySnippet string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream %s returned status %d: %s", e.Provider, e.Status, e.BodySnippet)
}

// NewUpstreamError wraps an UpstreamError in an AppError.
func NewUpstreamError(provider string, status int, bodySnippet string) *AppError {
	return Wrap(&UpstreamError{Provider: provider, Status: status, BodySnippet: bodySnippet},
		ErrorTypeUpstream, fmt.Sprintf("upstream error from %s", provider))
}

// NetworkError represents a connection or timeout failure reaching an
// upstream provider.
type NetworkError struct {
	Provider string
	Cause    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error contacting %s: %v", e.Provider, e.Cause)
}
func (e *NetworkError) Unwrap() error { return e.Cause }

// NewNetworkError wraps a NetworkError in an AppError.
func NewNetworkError(provider string, cause error) *AppError {
	return Wrap(&NetworkError{Provider: provider, Cause: cause}, ErrorTypeNetwork,
		fmt.Sprintf("network error contacting %s", provider))
}

// ProtocolError represents a response body that failed JSON decoding.
type ProtocolError struct {
	Provider string
	Reason   string
}

func (e *ProtocolError) Error() string {
	return fmt.Sprintf("protocol error from %s: %s", e.Provider, e.Reason)
}

// NewProtocolError wraps a ProtocolError in an AppError.
func NewProtocolError(provider, reason string) *AppError {
	return Wrap(&ProtocolError{Provider: provider, Reason: reason}, ErrorTypeProtocol,
		fmt.Sprintf("protocol error from %s", provider))
}

// IsType reports whether err is an AppError of the given type.
func IsType(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}

// GetType returns the ErrorType of err, or ErrorTypeInternal if err is
// not an AppError.
func GetType(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// GetStatusCode returns the HTTP status code to surface for err.
func GetStatusCode(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

// ErrorMessages holds the generic, caller-safe messages used when the
// real error text must not leak (e.g. database internals).
var ErrorMessages = struct {
	ResourceNotFound       string
	AuthenticationFailed   string
	OperationTimeout       string
	RateLimitExceeded      string
	ConcurrentModification string
	InternalError          string
}{
	ResourceNotFound:       "The requested resource was not found",
	AuthenticationFailed:   "Authentication failed",
	OperationTimeout:       "The operation timed out",
	RateLimitExceeded:      "Rate limit exceeded",
	ConcurrentModification: "The resource was modified concurrently",
	InternalError:          "An internal error occurred",
}

// SafeErrorMessage returns a message safe to send to an inbound
// caller: validation and forbidden messages pass through verbatim,
// everything else is replaced with a generic message so internals
// never leak.
func SafeErrorMessage(err error) string {
	var appErr *AppError
	if !errors.As(err, &appErr) {
		return "An unexpected error occurred"
	}

	switch appErr.Type {
	case ErrorTypeValidation:
		return appErr.Message
	case ErrorTypeNotFound:
		return ErrorMessages.ResourceNotFound
	case ErrorTypeAuth:
		return ErrorMessages.AuthenticationFailed
	case ErrorTypeTimeout:
		return ErrorMessages.OperationTimeout
	case ErrorTypeRateLimit:
		return ErrorMessages.RateLimitExceeded
	case ErrorTypeConflict:
		return ErrorMessages.ConcurrentModification
	case ErrorTypeForbidden:
		return appErr.Message
	default:
		return ErrorMessages.InternalError
	}
}

// LogFields returns structured fields suitable for attaching to a
// zerolog event via Fields().
func LogFields(err error) map[string]interface{} {
	fields := map[string]interface{}{"error": err.Error()}

	var appErr *AppError
	if !errors.As(err, &appErr) {
		return fields
	}

	fields["error_type"] = string(appErr.Type)
	fields["status_code"] = appErr.StatusCode
	if appErr.Details != "" {
		fields["error_details"] = appErr.Details
	}
	if appErr.Cause != nil {
		fields["underlying_error"] = appErr.Cause.Error()
	}
	return fields
}

// Chain joins multiple non-nil errors into one, separated by " -> ".
// Returns nil if every error is nil, and returns the single error
// unchanged if only one is non-nil.
func Chain(errs ...error) error {
	var nonNil []error
	for _, e := range errs {
		if e != nil {
			nonNil = append(nonNil, e)
		}
	}

	switch len(nonNil) {
	case 0:
		return nil
	case 1:
		return nonNil[0]
	}

	msgs := make([]string, 0, len(nonNil))
	for _, e := range nonNil {
		msgs = append(msgs, e.Error())
	}
	return errors.New(strings.Join(msgs, " -> "))
}
