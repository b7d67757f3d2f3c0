package http

import (
	"context"
	"net/http"
	"time"

	"github.com/filmdoms/community/internal/account/domain"
	"github.com/filmdoms/community/internal/account/service"
	"github.com/filmdoms/community/internal/common/constants"
	commonhttp "github.com/filmdoms/community/internal/common/http"
	"github.com/filmdoms/community/internal/common/jwtverify"
	"github.com/filmdoms/community/internal/common/logger"
)

type AccountService interface {
	Join(ctx context.Context, input service.JoinInput) (domain.Account, error)
	IsEmailDuplicate(ctx context.Context, email string) (bool, error)
	IsNicknameDuplicate(ctx context.Context, nickname string) (bool, error)
	ReadAccount(ctx context.Context, accountID int64) (domain.Profile, error)
	UpdateProfile(ctx context.Context, accountID int64, input service.UpdateProfileInput) (domain.Profile, error)
	UpdatePassword(ctx context.Context, accountID int64, input service.UpdatePasswordInput) error
	DeleteAccount(ctx context.Context, accountID int64, password string) error
}

type joinRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required"`
	Nickname string `json:"nickname" validate:"required"`
}

type updateProfileRequest struct {
	Nickname       string `json:"nickname" validate:"required"`
	ProfileImageID int64  `json:"profileImageId" validate:"required,gt=0"`
}

type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required"`
}

type deleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

type duplicateResponse struct {
	Duplicate bool `json:"duplicate"`
}

type accountResponse struct {
	ID              int64     `json:"id"`
	Email           string    `json:"email"`
	Nickname        string    `json:"nickname"`
	Role            string    `json:"role"`
	ProfileImageID  int64     `json:"profileImageId"`
	ProfileImageURL string    `json:"profileImageUrl,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}

func profileResponse(p domain.Profile) accountResponse {
	return accountResponse{
		ID:              p.ID,
		Email:           p.Email,
		Nickname:        p.Nickname,
		Role:            string(p.Role),
		ProfileImageID:  p.ProfileImageID,
		ProfileImageURL: p.ProfileImageURL,
		CreatedAt:       p.CreatedAt,
	}
}

type Handler struct {
	accounts       AccountService
	requestTimeout time.Duration
	log            *logger.Logger
	joinLimiter    *commonhttp.RateLimiter
	generalLimiter *commonhttp.RateLimiter
}

func NewHandler(accounts AccountService, requestTimeout time.Duration, log *logger.Logger) *Handler {
	if requestTimeout <= 0 {
		requestTimeout = constants.DefaultAuthRequestTimeout
	}
	return &Handler{
		accounts:       accounts,
		requestTimeout: requestTimeout,
		log:            log,
		joinLimiter:    commonhttp.NewRateLimiter(commonhttp.JoinRateLimit),
		generalLimiter: commonhttp.NewRateLimiter(commonhttp.GeneralRateLimit),
	}
}

// Register mounts the account routes. requireAuth guards every route that
// acts on the caller's own account.
func (h *Handler) Register(mux *http.ServeMux, requireAuth func(http.Handler) http.Handler) {
	timeout := commonhttp.WithTimeout(h.requestTimeout)
	general := h.generalLimiter.Middleware("account")

	mux.Handle("/api/v1/account/join",
		h.joinLimiter.Middleware("join")(commonhttp.RequireMethod(http.MethodPost)(timeout(h.join))))
	mux.Handle("/api/v1/account/check/email",
		general(commonhttp.RequireMethod(http.MethodGet)(timeout(h.checkEmail))))
	mux.Handle("/api/v1/account/check/nickname",
		general(commonhttp.RequireMethod(http.MethodGet)(timeout(h.checkNickname))))
	mux.Handle("/api/v1/account/profile",
		general(requireAuth(timeout(h.profile))))
	mux.Handle("/api/v1/account/profile/password",
		general(requireAuth(commonhttp.RequireMethod(http.MethodPut)(timeout(h.updatePassword)))))
}

func (h *Handler) Close() {
	h.joinLimiter.Stop()
	h.generalLimiter.Stop()
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	var req joinRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	account, err := h.accounts.Join(r.Context(), service.JoinInput{
		Email:    req.Email,
		Password: req.Password,
		Nickname: req.Nickname,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusCreated, accountResponse{
		ID:             account.ID,
		Email:          account.Email,
		Nickname:       account.Nickname,
		Role:           string(account.Role),
		ProfileImageID: account.ProfileImageID,
		CreatedAt:      account.CreatedAt,
	})
}

func (h *Handler) checkEmail(w http.ResponseWriter, r *http.Request) {
	h.checkDuplicate(w, r, "email", h.accounts.IsEmailDuplicate)
}

func (h *Handler) checkNickname(w http.ResponseWriter, r *http.Request) {
	h.checkDuplicate(w, r, "nickname", h.accounts.IsNicknameDuplicate)
}

func (h *Handler) checkDuplicate(w http.ResponseWriter, r *http.Request, param string, check func(context.Context, string) (bool, error)) {
	value := r.URL.Query().Get(param)
	if value == "" {
		commonhttp.WriteErrorEnvelope(w, http.StatusBadRequest, commonhttp.CodeBadRequest,
			"missing query parameter: "+param, nil, commonhttp.TraceIDFromContext(r.Context()))
		return
	}

	duplicate, err := check(r.Context(), value)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, duplicateResponse{Duplicate: duplicate})
}

func (h *Handler) profile(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		h.readProfile(w, r)
	case http.MethodPut:
		h.updateProfile(w, r)
	case http.MethodDelete:
		h.deleteAccount(w, r)
	default:
		commonhttp.WriteErrorEnvelope(w, http.StatusMethodNotAllowed, commonhttp.CodeMethodNotAllowed, "method not allowed", nil, "")
	}
}

func (h *Handler) readProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := jwtverify.FromContext(r.Context())

	profile, err := h.accounts.ReadAccount(r.Context(), claims.AccountID)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *Handler) updateProfile(w http.ResponseWriter, r *http.Request) {
	claims, _ := jwtverify.FromContext(r.Context())

	var req updateProfileRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	profile, err := h.accounts.UpdateProfile(r.Context(), claims.AccountID, service.UpdateProfileInput{
		Nickname:       req.Nickname,
		ProfileImageID: req.ProfileImageID,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	commonhttp.WriteJSON(w, http.StatusOK, profileResponse(profile))
}

func (h *Handler) updatePassword(w http.ResponseWriter, r *http.Request) {
	claims, _ := jwtverify.FromContext(r.Context())

	var req updatePasswordRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	err := h.accounts.UpdatePassword(r.Context(), claims.AccountID, service.UpdatePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) deleteAccount(w http.ResponseWriter, r *http.Request) {
	claims, _ := jwtverify.FromContext(r.Context())

	var req deleteAccountRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	if err := h.accounts.DeleteAccount(r.Context(), claims.AccountID, req.Password); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
