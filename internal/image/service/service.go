package service

import (
	"context"
	"errors"
	"net/http"
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/filmdoms/community/internal/common/constants"
	commoncrypto "github.com/filmdoms/community/internal/common/crypto"
	commonerrors "github.com/filmdoms/community/internal/common/errors"
	"github.com/filmdoms/community/internal/common/logger"
	"github.com/filmdoms/community/internal/common/resilience"
	"github.com/filmdoms/community/internal/image/domain"
	"github.com/filmdoms/community/internal/image/repository"
	"github.com/filmdoms/community/internal/observability/metrics"
)

var allowedTypes = []string{"image/png", "image/jpeg", "image/gif", "image/webp"}

type Storage interface {
	Put(ctx context.Context, key, contentType string, data []byte) (string, error)
}

type ImageServiceDeps struct {
	Repo    repository.Repository
	Storage Storage
	IDGen   commoncrypto.IDGenerator
	Breaker *resilience.CircuitBreaker
	Log     *logger.Logger
}

type ImageService struct {
	repo    repository.Repository
	storage Storage
	idGen   commoncrypto.IDGenerator
	breaker *resilience.CircuitBreaker
	log     *logger.Logger
}

func NewImageService(deps ImageServiceDeps) *ImageService {
	idGen := deps.IDGen
	if idGen == nil {
		idGen = commoncrypto.NewUUIDGenerator()
	}
	return &ImageService{
		repo:    deps.Repo,
		storage: deps.Storage,
		idGen:   idGen,
		breaker: deps.Breaker,
		log:     deps.Log,
	}
}

func (s *ImageService) call(ctx context.Context, fn func(context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}
	return s.breaker.Call(ctx, fn)
}

// Upload stores data under "<uuid>-<original name>" and records it. The
// content type is sniffed from the bytes; the client's claim is ignored.
func (s *ImageService) Upload(ctx context.Context, originalName string, data []byte) (domain.ImageFile, error) {
	if len(data) == 0 {
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return domain.ImageFile{}, domain.ErrEmptyImage
	}
	if len(data) > constants.MaxImageSizeBytes {
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return domain.ImageFile{}, domain.ErrImageTooLarge
	}

	mime := mimetype.Detect(data)
	if !mimetype.EqualsAny(mime.String(), allowedTypes...) {
		s.log.WithFields(ctx, logger.Fields{
			"detected": mime.String(),
			"action":   "image_upload_rejected",
		}).Warn("image upload rejected: unsupported type")
		metrics.ImageUploadsTotal.WithLabelValues("rejected").Inc()
		return domain.ImageFile{}, domain.ErrUnsupportedImageType
	}

	id, err := s.idGen.NewID()
	if err != nil {
		return domain.ImageFile{}, internalError("IMAGE_NAME_FAILED", "failed to name image", err)
	}
	original := sanitizeFileName(originalName, mime.Extension())
	objectKey := id + "-" + original

	url, err := s.storage.Put(ctx, objectKey, mime.String(), data)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"object": objectKey,
			"action": "image_upload_failed",
		}).Errorf("image upload failed: %v", err)
		metrics.ImageUploadsTotal.WithLabelValues("error").Inc()
		return domain.ImageFile{}, internalError("IMAGE_STORAGE_FAILED", "failed to store image", err)
	}

	var image domain.ImageFile
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		image, err = s.repo.Create(ctx, domain.ImageFile{
			UUIDFileName:     objectKey,
			OriginalFileName: original,
			URL:              url,
		})
		return err
	})
	if err != nil {
		metrics.ImageUploadsTotal.WithLabelValues("error").Inc()
		return domain.ImageFile{}, asServiceError("IMAGE_RECORD_FAILED", "failed to record image", err)
	}

	metrics.ImageUploadsTotal.WithLabelValues("success").Inc()
	metrics.ImageUploadBytes.Observe(float64(len(data)))
	s.log.WithFields(ctx, logger.Fields{
		"image_id": image.ID,
		"action":   "image_uploaded",
	}).Info("image uploaded")

	return image, nil
}

func (s *ImageService) FindByID(ctx context.Context, id int64) (domain.ImageFile, error) {
	var image domain.ImageFile
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		image, err = s.repo.FindByID(ctx, id)
		return err
	})
	if err != nil {
		return domain.ImageFile{}, asServiceError("IMAGE_LOOKUP_FAILED", "failed to fetch image", err)
	}
	return image, nil
}

// sanitizeFileName keeps the base name only and falls back to "image" plus
// the detected extension when nothing usable is left.
func sanitizeFileName(name, ext string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = strings.TrimSpace(path.Base(name))
	if name == "" || name == "." || name == "/" {
		return "image" + ext
	}
	return name
}

func asServiceError(code, message string, err error) error {
	if errors.Is(err, commonerrors.ErrCircuitOpen) {
		return commonerrors.ErrServiceUnavailable.WithCause(err)
	}
	if commonerrors.IsDomainError(err) {
		return err
	}
	return internalError(code, message, err)
}

func internalError(code, message string, cause error) error {
	return commonerrors.NewDomainError(
		code,
		commonerrors.CategoryInternal,
		http.StatusInternalServerError,
		message,
	).WithCause(cause)
}
