package domain

import (
	"net/http"

	commonerrors "github.com/filmdoms/community/internal/common/errors"
)

var (
	ErrAccountNotFound = commonerrors.NewDomainError(
		"ACCOUNT_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"account not found",
	)

	ErrDuplicateNickname = commonerrors.NewDomainError(
		"DUPLICATE_NICKNAME",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"nickname is already in use",
	)

	ErrDuplicateEmail = commonerrors.NewDomainError(
		"DUPLICATE_EMAIL",
		commonerrors.CategoryConflict,
		http.StatusConflict,
		"email is already in use",
	)

	ErrInvalidCredentials = commonerrors.NewDomainError(
		"INVALID_CREDENTIALS",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid email or password",
	)

	ErrInvalidImageReference = commonerrors.NewDomainError(
		"INVALID_IMAGE_REFERENCE",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"profile image does not exist",
	)

	ErrValidationEmail = commonerrors.NewDomainError(
		"VALIDATION_EMAIL",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"email must be a valid address of at most 254 characters",
	)

	ErrValidationNicknameLength = commonerrors.NewDomainError(
		"VALIDATION_NICKNAME_LENGTH",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"nickname must be between 2 and 20 characters",
	)

	ErrValidationNicknameChars = commonerrors.NewDomainError(
		"VALIDATION_NICKNAME_CHARS",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"nickname may contain only letters, digits, underscores and hyphens",
	)

	ErrValidationPasswordLength = commonerrors.NewDomainError(
		"VALIDATION_PASSWORD_LENGTH",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"password must be between 8 and 72 bytes",
	)

	ErrValidationPasswordLetterDigit = commonerrors.NewDomainError(
		"VALIDATION_PASSWORD_LETTER_DIGIT",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"password must contain at least one letter and one digit",
	)
)
