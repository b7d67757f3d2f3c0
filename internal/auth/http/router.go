package http

import (
	"context"
	"net/http"
	"time"

	authdomain "github.com/filmdoms/community/internal/auth/domain"
	"github.com/filmdoms/community/internal/common/constants"
	commonerrors "github.com/filmdoms/community/internal/common/errors"
	commonhttp "github.com/filmdoms/community/internal/common/http"
	"github.com/filmdoms/community/internal/common/logger"
)

const cookiePath = "/api/v1/account"

type SessionService interface {
	Login(ctx context.Context, email, password string) (authdomain.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	Logout(ctx context.Context, refreshToken string) error
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type tokenPairResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

type accessTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

var ErrMissingRefreshToken = commonerrors.NewDomainError(
	commonhttp.CodeMissingRefreshToken,
	commonerrors.CategoryUnauthorized,
	http.StatusUnauthorized,
	"missing refresh token",
)

type HandlerConfig struct {
	RequestTimeout time.Duration
	RefreshTTL     time.Duration
}

type Handler struct {
	auth           SessionService
	cfg            HandlerConfig
	log            *logger.Logger
	loginLimiter   *commonhttp.RateLimiter
	refreshLimiter *commonhttp.RateLimiter
}

func NewHandler(auth SessionService, cfg HandlerConfig, log *logger.Logger) *Handler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = constants.DefaultAuthRequestTimeout
	}
	return &Handler{
		auth:           auth,
		cfg:            cfg,
		log:            log,
		loginLimiter:   commonhttp.NewRateLimiter(commonhttp.LoginRateLimit),
		refreshLimiter: commonhttp.NewRateLimiter(commonhttp.RefreshRateLimit),
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.Handle("/api/v1/account/login", h.loginLimiter.Middleware("login")(h.route(h.login)))
	mux.Handle("/api/v1/account/refresh", h.refreshLimiter.Middleware("refresh")(h.route(h.refresh)))
	mux.Handle("/api/v1/account/logout", h.refreshLimiter.Middleware("logout")(h.route(h.logout)))
}

// Close stops the rate limiter sweepers.
func (h *Handler) Close() {
	h.loginLimiter.Stop()
	h.refreshLimiter.Stop()
}

func (h *Handler) route(fn http.HandlerFunc) http.Handler {
	return commonhttp.RequireMethod(http.MethodPost)(commonhttp.WithTimeout(h.cfg.RequestTimeout)(fn))
}

func (h *Handler) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := commonhttp.DecodeAndValidate(r, &req); err != nil {
		h.log.WithFields(r.Context(), logger.Fields{
			"action": "login_bad_request",
		}).Warnf("login failed: %v", err)
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	pair, err := h.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	h.setRefreshCookie(w, r, pair.RefreshToken)
	commonhttp.WriteJSON(w, http.StatusOK, tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	token, err := refreshTokenFrom(r)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	accessToken, err := h.auth.Refresh(r.Context(), token)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	commonhttp.WriteJSON(w, http.StatusOK, accessTokenResponse{AccessToken: accessToken})
}

func (h *Handler) logout(w http.ResponseWriter, r *http.Request) {
	token, err := refreshTokenFrom(r)
	if err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	if err := h.auth.Logout(r.Context(), token); err != nil {
		commonhttp.HandleError(w, r, err, h.log)
		return
	}

	clearRefreshCookie(w, r)
	w.WriteHeader(http.StatusNoContent)
}

// refreshTokenFrom prefers the JSON body and falls back to the cookie. An
// empty body is allowed.
func refreshTokenFrom(r *http.Request) (string, error) {
	if r.Body != nil && r.Body != http.NoBody && r.ContentLength != 0 {
		var req refreshRequest
		if err := commonhttp.DecodeJSON(r, &req); err != nil {
			return "", err
		}
		if req.RefreshToken != "" {
			return req.RefreshToken, nil
		}
	}

	cookie, err := r.Cookie(constants.RefreshTokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", ErrMissingRefreshToken
	}
	return cookie.Value, nil
}

func (h *Handler) setRefreshCookie(w http.ResponseWriter, r *http.Request, token string) {
	if token == "" {
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    token,
		Path:     cookiePath,
		MaxAge:   int(h.cfg.RefreshTTL.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
}

func clearRefreshCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     constants.RefreshTokenCookieName,
		Value:    "",
		Path:     cookiePath,
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   r.TLS != nil,
	})
}
