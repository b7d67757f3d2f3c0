package service

import (
	"context"
	"errors"
	"strconv"

	accountdomain "github.com/filmdoms/community/internal/account/domain"
	authdomain "github.com/filmdoms/community/internal/auth/domain"
	"github.com/filmdoms/community/internal/auth/identitykey"
	"github.com/filmdoms/community/internal/auth/store"
	"github.com/filmdoms/community/internal/auth/token"
	commoncrypto "github.com/filmdoms/community/internal/common/crypto"
	"github.com/filmdoms/community/internal/common/logger"
	"github.com/filmdoms/community/internal/common/resilience"
)

type AccountFinder interface {
	FindByEmail(ctx context.Context, email string) (accountdomain.Account, error)
}

type TokenCodec interface {
	CreateAccessToken(subject string, role accountdomain.Role) (string, error)
	CreateRefreshToken(subject string, accountID int64, role accountdomain.Role) (string, error)
	ParseRefresh(tokenString string) (token.Claims, error)
}

type AuthServiceDeps struct {
	Accounts AccountFinder
	Store    store.RefreshTokenStore
	Codec    TokenCodec
	Hasher   commoncrypto.PasswordHasher
	// Breaker guards store and account lookups. Optional.
	Breaker *resilience.CircuitBreaker
	Log     *logger.Logger
}

// AuthService runs the login, refresh and logout protocol. It holds no
// mutable state; every read-compare-write on a key goes through
// store.Transact.
type AuthService struct {
	accounts AccountFinder
	store    store.RefreshTokenStore
	codec    TokenCodec
	hasher   commoncrypto.PasswordHasher
	breaker  *resilience.CircuitBreaker
	log      *logger.Logger
}

func NewAuthService(deps AuthServiceDeps) *AuthService {
	return &AuthService{
		accounts: deps.Accounts,
		store:    deps.Store,
		codec:    deps.Codec,
		hasher:   deps.Hasher,
		breaker:  deps.Breaker,
		log:      deps.Log,
	}
}

func (s *AuthService) call(ctx context.Context, fn func(context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}
	return s.breaker.Call(ctx, fn)
}

func (s *AuthService) Login(ctx context.Context, email, password string) (authdomain.TokenPair, error) {
	s.log.WithFields(ctx, logger.Fields{
		"action": "login_attempt",
	}).Info("login attempt")

	var account accountdomain.Account
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.accounts.FindByEmail(ctx, email)
		return err
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			s.log.WithFields(ctx, logger.Fields{
				"action": "login_account_not_found",
			}).Warn("login failed: account not found")
		} else {
			s.log.WithFields(ctx, logger.Fields{
				"action": "login_fetch_failed",
			}).Errorf("login failed: %v", err)
		}
		return authdomain.TokenPair{}, s.fail("login", asServiceError("ACCOUNT_LOOKUP_FAILED", "failed to fetch account", err))
	}

	if err := s.hasher.Compare(account.PasswordHash, password); err != nil {
		if !errors.Is(err, commoncrypto.ErrPasswordMismatch) {
			s.log.WithFields(ctx, logger.Fields{
				"account_id": account.ID,
				"action":     "login_hash_compare_failed",
			}).Errorf("login failed: password hash error: %v", err)
			return authdomain.TokenPair{}, s.fail("login", newInternalError("PASSWORD_VERIFY_FAILED", "failed to verify password", err))
		}
		s.log.WithFields(ctx, logger.Fields{
			"account_id": account.ID,
			"action":     "login_invalid_password",
		}).Warn("login failed: invalid password")
		return authdomain.TokenPair{}, s.fail("login", ErrInvalidCredentials)
	}

	accessToken, err := s.codec.CreateAccessToken(strconv.FormatInt(account.ID, 10), account.Role)
	if err != nil {
		return authdomain.TokenPair{}, s.fail("login", newInternalError("TOKEN_ISSUE_FAILED", "failed to issue access token", err))
	}

	key := identitykey.Derive(account.Email)
	reusable := func(onRecord string) bool {
		claims, err := s.codec.ParseRefresh(onRecord)
		return err == nil &&
			claims.Subject == key &&
			claims.AccountID == account.ID &&
			claims.Role == account.Role
	}
	mint := func() (string, error) {
		return s.codec.CreateRefreshToken(key, account.ID, account.Role)
	}

	var prev, next store.Record
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		next, err = s.store.Transact(ctx, key, func(current store.Record) (store.Record, error) {
			prev = current
			return nextSession(current, loginEvent(reusable, mint))
		})
		return err
	})
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"account_id": account.ID,
			"action":     "login_store_failed",
		}).Errorf("login failed: refresh token store error: %v", err)
		return authdomain.TokenPair{}, s.fail("login", asServiceError("REFRESH_STORE_FAILED", "failed to persist refresh token", err))
	}

	outcome := classifyLogin(prev, next)
	recordLogin(outcome)

	s.log.WithFields(ctx, logger.Fields{
		"account_id":    account.ID,
		"refresh_token": string(outcome),
		"action":        "login_success",
	}).Info("login success")

	return authdomain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: next.Token,
	}, nil
}

// Refresh mints a new access token for a refresh token that is byte-equal to
// the one on record. The refresh token itself is kept.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	s.log.WithFields(ctx, logger.Fields{
		"action": "refresh_attempt",
	}).Info("refresh attempt")

	claims, err := s.codec.ParseRefresh(refreshToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "refresh_token_rejected",
		}).Warnf("refresh failed: %v", err)
		return "", s.fail("refresh", asServiceError("TOKEN_PARSE_FAILED", "failed to parse refresh token", err))
	}

	accessToken, err := s.codec.CreateAccessToken(strconv.FormatInt(claims.AccountID, 10), claims.Role)
	if err != nil {
		return "", s.fail("refresh", newInternalError("TOKEN_ISSUE_FAILED", "failed to issue access token", err))
	}

	if err := s.transact(ctx, claims.Subject, refreshEvent(refreshToken)); err != nil {
		s.logSessionFailure(ctx, "refresh", claims, err)
		return "", s.fail("refresh", asServiceError("REFRESH_STORE_FAILED", "failed to check refresh token", err))
	}

	recordRefresh()
	s.log.WithFields(ctx, logger.Fields{
		"account_id": claims.AccountID,
		"action":     "refresh_success",
	}).Info("refresh success")

	return accessToken, nil
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	s.log.WithFields(ctx, logger.Fields{
		"action": "logout_attempt",
	}).Info("logout attempt")

	claims, err := s.codec.ParseRefresh(refreshToken)
	if err != nil {
		s.log.WithFields(ctx, logger.Fields{
			"action": "logout_token_rejected",
		}).Warnf("logout failed: %v", err)
		return s.fail("logout", asServiceError("TOKEN_PARSE_FAILED", "failed to parse refresh token", err))
	}

	if err := s.transact(ctx, claims.Subject, logoutEvent(refreshToken)); err != nil {
		s.logSessionFailure(ctx, "logout", claims, err)
		return s.fail("logout", asServiceError("REFRESH_STORE_FAILED", "failed to delete refresh token", err))
	}

	recordLogout()
	s.log.WithFields(ctx, logger.Fields{
		"account_id": claims.AccountID,
		"action":     "logout_success",
	}).Info("logout success")

	return nil
}

func (s *AuthService) transact(ctx context.Context, key string, ev sessionEvent) error {
	return s.call(ctx, func(ctx context.Context) error {
		_, err := s.store.Transact(ctx, key, func(current store.Record) (store.Record, error) {
			return nextSession(current, ev)
		})
		return err
	})
}

func (s *AuthService) logSessionFailure(ctx context.Context, operation string, claims token.Claims, err error) {
	fields := logger.Fields{
		"account_id": claims.AccountID,
		"action":     operation + "_rejected",
	}
	switch {
	case errors.Is(err, ErrTokenNotFound):
		s.log.WithFields(ctx, fields).Warnf("%s failed: no refresh token on record", operation)
	case errors.Is(err, ErrTokenMismatch):
		s.log.WithFields(ctx, fields).Warnf("%s failed: refresh token does not match record", operation)
	default:
		fields["action"] = operation + "_store_failed"
		s.log.WithFields(ctx, fields).Errorf("%s failed: refresh token store error: %v", operation, err)
	}
}

func (s *AuthService) fail(operation string, err error) error {
	recordFailure(operation, err)
	return err
}
