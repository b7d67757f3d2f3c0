package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/filmdoms/community/internal/common/constants"
	commonerrors "github.com/filmdoms/community/internal/common/errors"
	commonhttp "github.com/filmdoms/community/internal/common/http"
	"github.com/filmdoms/community/internal/common/logger"
	"github.com/filmdoms/community/internal/image/domain"
)

const (
	formField = "image"
	// multipartOverhead covers boundaries and part headers around the file.
	multipartOverhead = 64 * 1024
)

type Uploader interface {
	Upload(ctx context.Context, originalName string, data []byte) (domain.ImageFile, error)
}

type imageResponse struct {
	ID  int64  `json:"id"`
	URL string `json:"url"`
}

var ErrMissingImage = commonerrors.NewDomainError(
	"MISSING_IMAGE",
	commonerrors.CategoryValidation,
	http.StatusBadRequest,
	"multipart field \"image\" is required",
)

type Handler struct {
	images         Uploader
	requestTimeout time.Duration
	log            *logger.Logger
	limiter        *commonhttp.RateLimiter
}

func NewHandler(images Uploader, requestTimeout time.Duration, log *logger.Logger) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = constants.DefaultAuthRequestTimeout
	}
	return &Handler{
		images:         images,
		requestTimeout: requestTimeout,
		log:            log,
		limiter:        commonhttp.NewRateLimiter(commonhttp.GeneralRateLimit),
	}
}

func (h *Handler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	mux.Handle("/api/v1/image", h.limiter.Middleware("image")(requireAuth(
		commonhttp.RequireMethod(http.MethodPost)(commonhttp.WithTimeout(h.requestTimeout)(h.upload)),
	)))
}

func (h *Handler) Close() {
	h.limiter.Stop()
}

func (h *Handler) upload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, constants.MaxImageSizeBytes+multipartOverhead)

	file, header, err := r.FormFile(formField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			commonhttp.HandleError(w, r, domain.ErrImageTooLarge, h.log)
			return
		}
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "image_upload_bad_request",
		}).Warnf("image upload failed: %v", err)
		commonhttp.HandleError(w, r, ErrMissingImage.WithCause(err), h.log)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, constants.MaxImageSizeBytes+1))
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	image, err := h.images.Upload(r.Context(), header.Filename, data)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, imageResponse{ID: image.ID, URL: image.URL})
}
