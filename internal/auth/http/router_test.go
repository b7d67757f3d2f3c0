package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	authdomain "github.com/filmdoms/community/internal/auth/domain"
	"github.com/filmdoms/community/internal/auth/service"
	"github.com/filmdoms/community/internal/common/constants"
	"github.com/filmdoms/community/internal/common/logger"
)

type mockSessions struct {
	loginFunc   func(ctx context.Context, email, password string) (authdomain.TokenPair, error)
	refreshFunc func(ctx context.Context, token string) (string, error)
	logoutFunc  func(ctx context.Context, token string) error
}

func (m *mockSessions) Login(ctx context.Context, email, password string) (authdomain.TokenPair, error) {
	return m.loginFunc(ctx, email, password)
}

func (m *mockSessions) Refresh(ctx context.Context, token string) (string, error) {
	return m.refreshFunc(ctx, token)
}

func (m *mockSessions) Logout(ctx context.Context, token string) error {
	return m.logoutFunc(ctx, token)
}

type errorEnvelope struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details"`
}

func newTestMux(t *testing.T, sessions SessionService) *http.ServeMux {
	t.Helper()
	h := NewHandler(sessions, HandlerConfig{RequestTimeout: 5 * time.Second, RefreshTTL: 14 * 24 * time.Hour},
		logger.NewWithWriter(&bytes.Buffer{}, "test", "error"))
	t.Cleanup(h.Close)
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func do(mux http.Handler, method, path, body string, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	if err := json.NewDecoder(rec.Body).Decode(&env); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return env
}

func TestLogin_Success(t *testing.T) {
	mux := newTestMux(t, &mockSessions{
		loginFunc: func(_ context.Context, email, password string) (authdomain.TokenPair, error) {
			if email != "a@x.com" || password != "pw1" {
				t.Errorf("unexpected credentials %q %q", email, password)
			}
			return authdomain.TokenPair{AccessToken: "A1", RefreshToken: "R1"}, nil
		},
	})

	rec := do(mux, http.MethodPost, "/api/v1/account/login", `{"email":"a@x.com","password":"pw1"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp tokenPairResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.AccessToken != "A1" || resp.RefreshToken != "R1" {
		t.Errorf("unexpected body %+v", resp)
	}

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != constants.RefreshTokenCookieName || cookies[0].Value != "R1" {
		t.Fatalf("expected refresh cookie, got %+v", cookies)
	}
	if !cookies[0].HttpOnly {
		t.Error("refresh cookie must be HttpOnly")
	}
}

func TestLogin_InvalidJSON(t *testing.T) {
	mux := newTestMux(t, &mockSessions{})

	rec := do(mux, http.MethodPost, "/api/v1/account/login", `{`)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Code != "INVALID_JSON" {
		t.Errorf("expected INVALID_JSON, got %s", env.Code)
	}
}

func TestLogin_ValidationFailed(t *testing.T) {
	mux := newTestMux(t, &mockSessions{})

	rec := do(mux, http.MethodPost, "/api/v1/account/login", `{"email":"nope","password":""}`)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	env := decodeError(t, rec)
	if env.Code != "VALIDATION_FAILED" {
		t.Errorf("expected VALIDATION_FAILED, got %s", env.Code)
	}
	if env.Details["email"] != "email" || env.Details["password"] != "required" {
		t.Errorf("unexpected details %v", env.Details)
	}
}

func TestLogin_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"invalid credentials", service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
		{"account not found", service.ErrAccountNotFound, http.StatusNotFound, "ACCOUNT_NOT_FOUND"},
		{"unavailable", service.ErrServiceUnavailable, http.StatusServiceUnavailable, "SERVICE_UNAVAILABLE"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mux := newTestMux(t, &mockSessions{
				loginFunc: func(context.Context, string, string) (authdomain.TokenPair, error) {
					return authdomain.TokenPair{}, tt.err
				},
			})

			rec := do(mux, http.MethodPost, "/api/v1/account/login", `{"email":"a@x.com","password":"pw1"}`)

			if rec.Code != tt.status {
				t.Errorf("expected %d, got %d", tt.status, rec.Code)
			}
			if env := decodeError(t, rec); env.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, env.Code)
			}
		})
	}
}

func TestLogin_MethodNotAllowed(t *testing.T) {
	mux := newTestMux(t, &mockSessions{})

	rec := do(mux, http.MethodGet, "/api/v1/account/login", "")

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("expected 405, got %d", rec.Code)
	}
}

func TestRefresh_FromBodyAndCookie(t *testing.T) {
	var seen []string
	mux := newTestMux(t, &mockSessions{
		refreshFunc: func(_ context.Context, token string) (string, error) {
			seen = append(seen, token)
			return "A2", nil
		},
	})

	rec := do(mux, http.MethodPost, "/api/v1/account/refresh", `{"refreshToken":"R-body"}`,
		&http.Cookie{Name: constants.RefreshTokenCookieName, Value: "R-cookie"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	rec = do(mux, http.MethodPost, "/api/v1/account/refresh", "",
		&http.Cookie{Name: constants.RefreshTokenCookieName, Value: "R-cookie"})
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp accessTokenResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil || resp.AccessToken != "A2" {
		t.Errorf("unexpected body %+v (%v)", resp, err)
	}

	if len(seen) != 2 || seen[0] != "R-body" || seen[1] != "R-cookie" {
		t.Errorf("body must win over cookie, got %v", seen)
	}
}

func TestRefresh_MissingToken(t *testing.T) {
	mux := newTestMux(t, &mockSessions{})

	rec := do(mux, http.MethodPost, "/api/v1/account/refresh", "")

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if env := decodeError(t, rec); env.Code != "MISSING_REFRESH_TOKEN" {
		t.Errorf("expected MISSING_REFRESH_TOKEN, got %s", env.Code)
	}
}

func TestRefresh_ErrorCodesAreDistinct(t *testing.T) {
	tests := []struct {
		err  error
		code string
	}{
		{service.ErrInvalidToken, "INVALID_TOKEN"},
		{service.ErrExpiredToken, "EXPIRED_TOKEN"},
		{service.ErrTokenNotFound, "TOKEN_NOT_FOUND"},
		{service.ErrTokenMismatch, "TOKEN_MISMATCH"},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			mux := newTestMux(t, &mockSessions{
				refreshFunc: func(context.Context, string) (string, error) { return "", tt.err },
			})

			rec := do(mux, http.MethodPost, "/api/v1/account/refresh", `{"refreshToken":"R"}`)

			if rec.Code != http.StatusUnauthorized {
				t.Errorf("expected 401, got %d", rec.Code)
			}
			if env := decodeError(t, rec); env.Code != tt.code {
				t.Errorf("expected %s, got %s", tt.code, env.Code)
			}
		})
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	var loggedOut string
	mux := newTestMux(t, &mockSessions{
		logoutFunc: func(_ context.Context, token string) error {
			loggedOut = token
			return nil
		},
	})

	rec := do(mux, http.MethodPost, "/api/v1/account/logout", `{"refreshToken":"R1"}`)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if loggedOut != "R1" {
		t.Errorf("expected R1 to be logged out, got %q", loggedOut)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].MaxAge >= 0 {
		t.Errorf("expected expired cookie, got %+v", cookies)
	}
}

func TestLogout_MismatchKeepsCookie(t *testing.T) {
	mux := newTestMux(t, &mockSessions{
		logoutFunc: func(context.Context, string) error { return service.ErrTokenMismatch },
	})

	rec := do(mux, http.MethodPost, "/api/v1/account/logout", `{"refreshToken":"R1"}`)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", rec.Code)
	}
	if len(rec.Result().Cookies()) != 0 {
		t.Error("failed logout must not touch the cookie")
	}
}

func TestLogin_RateLimited(t *testing.T) {
	mux := newTestMux(t, &mockSessions{
		loginFunc: func(context.Context, string, string) (authdomain.TokenPair, error) {
			return authdomain.TokenPair{}, service.ErrInvalidCredentials
		},
	})

	var last int
	for i := 0; i < 10; i++ {
		last = do(mux, http.MethodPost, "/api/v1/account/login", `{"email":"a@x.com","password":"pw1"}`).Code
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after burst, got %d", last)
	}
}
