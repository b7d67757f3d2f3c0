package commonerrors

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestDomainError_IsMatchesByCode(t *testing.T) {
	cause := errors.New("connection refused")
	wrapped := ErrServiceUnavailable.WithCause(cause).WithTraceID("trace-1")

	if !errors.Is(wrapped, ErrServiceUnavailable) {
		t.Fatal("expected copy with cause to match sentinel")
	}
	if !errors.Is(wrapped, cause) {
		t.Fatal("expected cause to be reachable through Unwrap")
	}
	if errors.Is(wrapped, ErrInternalError) {
		t.Fatal("did not expect match against a different code")
	}
	if wrapped.TraceID() != "trace-1" {
		t.Errorf("expected trace id trace-1, got %q", wrapped.TraceID())
	}
}

func TestDomainError_ErrorIncludesCause(t *testing.T) {
	err := ErrDatabaseError.WithCause(errors.New("timeout"))
	if err.Error() != "database operation failed: timeout" {
		t.Errorf("unexpected error text %q", err.Error())
	}
	if ErrDatabaseError.Error() != "database operation failed" {
		t.Errorf("unexpected error text %q", ErrDatabaseError.Error())
	}
}

func TestAsDomainError(t *testing.T) {
	err := fmt.Errorf("login: %w", ErrValidation)

	de, ok := AsDomainError(err)
	if !ok {
		t.Fatal("expected domain error in chain")
	}
	if de.HTTPStatus() != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", de.HTTPStatus())
	}
	if de.Category() != CategoryValidation {
		t.Errorf("expected validation category, got %s", de.Category())
	}

	if _, ok := AsDomainError(errors.New("plain")); ok {
		t.Error("plain error must not be a domain error")
	}
	if IsDomainError(nil) {
		t.Error("nil must not be a domain error")
	}
}
