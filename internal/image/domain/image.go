package domain

import (
	"net/http"
	"time"

	commonerrors "github.com/filmdoms/community/internal/common/errors"
)

type ImageFile struct {
	ID               int64
	UUIDFileName     string
	OriginalFileName string
	URL              string
	CreatedAt        time.Time
}

var (
	ErrImageNotFound = commonerrors.NewDomainError(
		"IMAGE_NOT_FOUND",
		commonerrors.CategoryNotFound,
		http.StatusNotFound,
		"image not found",
	)

	ErrEmptyImage = commonerrors.NewDomainError(
		"EMPTY_IMAGE",
		commonerrors.CategoryValidation,
		http.StatusBadRequest,
		"image file is empty",
	)

	ErrImageTooLarge = commonerrors.NewDomainError(
		"IMAGE_TOO_LARGE",
		commonerrors.CategoryValidation,
		http.StatusRequestEntityTooLarge,
		"image file is too large",
	)

	ErrUnsupportedImageType = commonerrors.NewDomainError(
		"UNSUPPORTED_IMAGE_TYPE",
		commonerrors.CategoryValidation,
		http.StatusUnsupportedMediaType,
		"only png, jpeg, gif and webp images are accepted",
	)
)
