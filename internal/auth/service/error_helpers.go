package service

import (
	"errors"
	"net/http"

	commonerrors "github.com/filmdoms/community/internal/common/errors"
)

func handleCircuitBreakerError(err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return ErrServiceUnavailable.WithCause(err)
	}
	return err
}

// asServiceError passes domain errors through and wraps anything else as an
// internal error with the given code.
func asServiceError(code, message string, err error) error {
	err = handleCircuitBreakerError(err)
	if commonerrors.IsDomainError(err) {
		return err
	}
	return newInternalError(code, message, err)
}

func newInternalError(code, message string, cause error) commonerrors.DomainError {
	err := commonerrors.NewDomainError(
		code,
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		message,
	)
	if cause != nil {
		err = err.WithCause(cause)
	}
	return err
}

func errorCode(err error) string {
	if de, ok := commonerrors.AsDomainError(err); ok {
		return de.Code()
	}
	return "INTERNAL_ERROR"
}
