package errs

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestNewBasic(t *testing.T) {
	err := New(ErrorTypeValidation, "test message")

	if err.Type != ErrorTypeValidation {
		t.Errorf("Type = %v, want %v", err.Type, ErrorTypeValidation)
	}
	if err.Message != "test message" {
		t.Errorf("Message = %q, want %q", err.Message, "test message")
	}
	if err.StatusCode != http.StatusBadRequest {
		t.Errorf("StatusCode = %d, want %d", err.StatusCode, http.StatusBadRequest)
	}
	if err.Details != "" {
		t.Errorf("Details = %q, want empty", err.Details)
	}
	if err.Cause != nil {
		t.Errorf("Cause = %v, want nil", err.Cause)
	}
}

func TestErrorString(t *testing.T) {
	err := New(ErrorTypeValidation, "test message")
	if got := err.Error(); got != "validation: test message" {
		t.Errorf("Error() = %q", got)
	}

	withDetails := New(ErrorTypeValidation, "test message").WithDetails("extra info")
	if got := withDetails.Error(); got != "validation: test message (extra info)" {
		t.Errorf("Error() with details = %q", got)
	}
}

func TestWrap(t *testing.T) {
	original := errors.New("original error")
	wrapped := Wrap(original, ErrorTypeStorage, "operation failed")

	if wrapped.Type != ErrorTypeStorage {
		t.Errorf("Type = %v", wrapped.Type)
	}
	if !errors.Is(wrapped.Unwrap(), original) {
		t.Errorf("Unwrap() did not return original cause")
	}
}

func TestStatusCodeMapping(t *testing.T) {
	cases := []struct {
		t    ErrorType
		code int
	}{
		{ErrorTypeValidation, http.StatusBadRequest},
		{ErrorTypeAuth, http.StatusUnauthorized},
		{ErrorTypeForbidden, http.StatusForbidden},
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeConflict, http.StatusConflict},
		{ErrorTypeTimeout, http.StatusRequestTimeout},
		{ErrorTypeRateLimit, http.StatusTooManyRequests},
		{ErrorTypeStorage, http.StatusInternalServerError},
		{ErrorTypeNetwork, http.StatusInternalServerError},
		{ErrorTypeUpstream, http.StatusInternalServerError},
		{ErrorTypeProtocol, http.StatusInternalServerError},
		{ErrorTypeInternal, http.StatusInternalServerError},
	}

	for _, c := range cases {
		err := New(c.t, "msg")
		if err.StatusCode != c.code {
			t.Errorf("type %s: StatusCode = %d, want %d", c.t, err.StatusCode, c.code)
		}
	}
}

func TestPredefinedConstructors(t *testing.T) {
	if err := NewValidationError("invalid input"); err.Type != ErrorTypeValidation {
		t.Error("NewValidationError wrong type")
	}
	if err := NewNotFoundError("user"); err.Message != "user not found" {
		t.Errorf("NewNotFoundError message = %q", err.Message)
	}
	if err := NewAuthError("bad creds"); err.Type != ErrorTypeAuth {
		t.Error("NewAuthError wrong type")
	}
	if err := NewForbiddenError("blocked"); err.Type != ErrorTypeForbidden {
		t.Error("NewForbiddenError wrong type")
	}
	if err := NewConflictError("dup"); err.Type != ErrorTypeConflict {
		t.Error("NewConflictError wrong type")
	}
	if err := NewRateLimitError("slow down"); err.Type != ErrorTypeRateLimit {
		t.Error("NewRateLimitError wrong type")
	}
	cause := errors.New("connection lost")
	dbErr := NewStorageError("query", cause)
	if dbErr.Cause != cause {
		t.Error("NewStorageError lost cause")
	}
}

func TestTypeChecking(t *testing.T) {
	validationErr := NewValidationError("test")
	authErr := NewAuthError("test")

	if !IsType(validationErr, ErrorTypeValidation) {
		t.Error("IsType validation should be true")
	}
	if IsType(validationErr, ErrorTypeAuth) {
		t.Error("IsType auth should be false for validation error")
	}
	if !IsType(authErr, ErrorTypeAuth) {
		t.Error("IsType auth should be true")
	}

	regular := errors.New("regular error")
	if IsType(regular, ErrorTypeValidation) {
		t.Error("IsType should be false for non-AppError")
	}
	if GetType(regular) != ErrorTypeInternal {
		t.Error("GetType should default to internal")
	}
}

func TestGetStatusCode(t *testing.T) {
	if GetStatusCode(NewValidationError("x")) != http.StatusBadRequest {
		t.Error("wrong status for validation")
	}
	if GetStatusCode(errors.New("plain")) != http.StatusInternalServerError {
		t.Error("wrong status for plain error")
	}
}

func TestSafeErrorMessage(t *testing.T) {
	if msg := SafeErrorMessage(NewValidationError("specific validation message")); msg != "specific validation message" {
		t.Errorf("validation safe message = %q", msg)
	}
	if msg := SafeErrorMessage(New(ErrorTypeNotFound, "internal details")); msg != ErrorMessages.ResourceNotFound {
		t.Errorf("not found safe message = %q", msg)
	}
	if msg := SafeErrorMessage(New(ErrorTypeAuth, "internal details")); msg != ErrorMessages.AuthenticationFailed {
		t.Errorf("auth safe message = %q", msg)
	}
	if msg := SafeErrorMessage(errors.New("internal panic")); msg != "An unexpected error occurred" {
		t.Errorf("plain error safe message = %q", msg)
	}
}

func TestLogFields(t *testing.T) {
	original := errors.New("connection failed")
	appErr := Wrapf(original, ErrorTypeStorage, "query failed").WithDetails("table: users")

	fields := LogFields(appErr)
	if fields["error_type"] != "storage" {
		t.Errorf("error_type = %v", fields["error_type"])
	}
	if fields["status_code"] != http.StatusInternalServerError {
		t.Errorf("status_code = %v", fields["status_code"])
	}
	if fields["error_details"] != "table: users" {
		t.Errorf("error_details = %v", fields["error_details"])
	}
	if fields["underlying_error"] != "connection failed" {
		t.Errorf("underlying_error = %v", fields["underlying_error"])
	}

	simple := NewValidationError("invalid input")
	simpleFields := LogFields(simple)
	if _, ok := simpleFields["error_details"]; ok {
		t.Error("simple error should not have error_details")
	}
	if _, ok := simpleFields["underlying_error"]; ok {
		t.Error("simple error should not have underlying_error")
	}

	plain := errors.New("regular error")
	plainFields := LogFields(plain)
	if _, ok := plainFields["error_type"]; ok {
		t.Error("plain error should not have error_type")
	}
}

func TestChain(t *testing.T) {
	if Chain() != nil {
		t.Error("Chain() should be nil")
	}

	single := errors.New("single error")
	if Chain(single) != single {
		t.Error("Chain of one error should return it unchanged")
	}

	if Chain(nil, nil, nil) != nil {
		t.Error("Chain of all nils should be nil")
	}

	e1 := errors.New("first error")
	e2 := errors.New("second error")
	e3 := errors.New("third error")
	chained := Chain(e1, e2, e3)
	msg := chained.Error()
	for _, want := range []string{"first error", "second error", "third error", " -> "} {
		if !strings.Contains(msg, want) {
			t.Errorf("chained message %q missing %q", msg, want)
		}
	}
}
