package token

import (
	"net/http"

	commonerrors "github.com/filmdoms/community/internal/common/errors"
)

var (
	ErrInvalidToken = commonerrors.NewDomainError(
		"INVALID_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"invalid token",
	)

	ErrExpiredToken = commonerrors.NewDomainError(
		"EXPIRED_TOKEN",
		commonerrors.CategoryUnauthorized,
		http.StatusUnauthorized,
		"token has expired",
	)
)
