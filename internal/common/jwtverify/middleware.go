package jwtverify

import (
	"context"
	"net/http"
	"strings"

	commonerrors "github.com/filmdoms/community/internal/common/errors"
	commonhttp "github.com/filmdoms/community/internal/common/http"
	"github.com/filmdoms/community/internal/common/logger"
)

// Claims is the authenticated identity carried by an access token.
type Claims struct {
	AccountID int64
	Role      string
}

type Verifier interface {
	VerifyAccessToken(token string) (Claims, error)
}

type contextKey string

const claimsKey contextKey = "jwt_claims"

var ErrMissingAuthorization = commonerrors.NewDomainError(
	commonhttp.CodeMissingAuthorization,
	commonerrors.CategoryUnauthorized,
	http.StatusUnauthorized,
	"missing or invalid authorization",
)

func Middleware(verifier Verifier, log *logger.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw := r.Header.Get("Authorization")
			if raw == "" || !strings.HasPrefix(raw, "Bearer ") {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_missing_authorization",
				}).Warn("jwt auth failed: missing or invalid authorization header")
				commonhttp.HandleError(w, r, ErrMissingAuthorization, log)
				return
			}

			claims, err := verifier.VerifyAccessToken(strings.TrimPrefix(raw, "Bearer "))
			if err != nil {
				log.WithFields(r.Context(), logger.Fields{
					"path":   r.URL.Path,
					"action": "jwt_invalid_token",
				}).Warnf("jwt auth failed: %v", err)
				commonhttp.HandleError(w, r, err, log)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

func WithClaims(ctx context.Context, claims Claims) context.Context {
	return context.WithValue(ctx, claimsKey, claims)
}

func FromContext(ctx context.Context) (Claims, bool) {
	claims, ok := ctx.Value(claimsKey).(Claims)
	return claims, ok
}
