package service

import (
	"net/http"

	accountdomain "github.com/filmdoms/community/internal/account/domain"
	"github.com/filmdoms/community/internal/auth/token"
	commonerrors "github.com/filmdoms/community/internal/common/errors"
)

var (
	ErrAccountNotFound = accountdomain.ErrAccountNotFound

	ErrInvalidCredentials = accountdomain.ErrInvalidCredentials

	ErrInvalidToken = token.ErrInvalidToken
	ErrExpiredToken = token.ErrExpiredToken

	ErrTokenNotFound = commonerrors.NewDomainError(
		"TOKEN_NOT_FOUND",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"no refresh token on record",
	)

	ErrTokenMismatch = commonerrors.NewDomainError(
		"TOKEN_MISMATCH",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"refresh token does not match the one on record",
	)

	ErrServiceUnavailable = commonerrors.ErrServiceUnavailable
)
