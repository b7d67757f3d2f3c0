package service

import (
	"context"
	"errors"
	"net/http"

	"github.com/filmdoms/community/internal/account/domain"
	"github.com/filmdoms/community/internal/account/repository"
	"github.com/filmdoms/community/internal/auth/identitykey"
	"github.com/filmdoms/community/internal/common/constants"
	commoncrypto "github.com/filmdoms/community/internal/common/crypto"
	commonerrors "github.com/filmdoms/community/internal/common/errors"
	"github.com/filmdoms/community/internal/common/logger"
	"github.com/filmdoms/community/internal/common/resilience"
	imagedomain "github.com/filmdoms/community/internal/image/domain"
	"github.com/filmdoms/community/internal/observability/metrics"
)

type ImageFinder interface {
	FindByID(ctx context.Context, id int64) (imagedomain.ImageFile, error)
}

// SessionStore drops the refresh token on record for an identity key.
type SessionStore interface {
	DeleteByKey(ctx context.Context, key string) error
}

type JoinInput struct {
	Email    string
	Password string
	Nickname string
}

type UpdateProfileInput struct {
	Nickname       string
	ProfileImageID int64
}

type UpdatePasswordInput struct {
	OldPassword string
	NewPassword string
}

type AccountServiceDeps struct {
	Repo     repository.Repository
	Images   ImageFinder
	Sessions SessionStore
	Hasher   commoncrypto.PasswordHasher
	Breaker  *resilience.CircuitBreaker
	Log      *logger.Logger
}

type AccountService struct {
	repo     repository.Repository
	images   ImageFinder
	sessions SessionStore
	hasher   commoncrypto.PasswordHasher
	breaker  *resilience.CircuitBreaker
	log      *logger.Logger
}

func NewAccountService(deps AccountServiceDeps) *AccountService {
	return &AccountService{
		repo:     deps.Repo,
		images:   deps.Images,
		sessions: deps.Sessions,
		hasher:   deps.Hasher,
		breaker:  deps.Breaker,
		log:      deps.Log,
	}
}

func (s *AccountService) call(ctx context.Context, fn func(context.Context) error) error {
	if s.breaker == nil {
		return fn(ctx)
	}
	return s.breaker.Call(ctx, fn)
}

// FindByEmail resolves the account a login names. The auth service uses it
// as its AccountFinder.
func (s *AccountService) FindByEmail(ctx context.Context, email string) (domain.Account, error) {
	var account domain.Account
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.repo.FindByEmail(ctx, email)
		return err
	})
	if err != nil {
		return domain.Account{}, asServiceError("ACCOUNT_LOOKUP_FAILED", "failed to fetch account", err)
	}
	return account, nil
}

func (s *AccountService) Join(ctx context.Context, input JoinInput) (domain.Account, error) {
	if err := validateEmail(input.Email); err != nil {
		return domain.Account{}, s.fail("join", err)
	}
	if err := validateNickname(input.Nickname); err != nil {
		return domain.Account{}, s.fail("join", err)
	}
	if err := validatePassword(input.Password); err != nil {
		return domain.Account{}, s.fail("join", err)
	}

	nicknameTaken, err := s.IsNicknameDuplicate(ctx, input.Nickname)
	if err != nil {
		return domain.Account{}, s.fail("join", err)
	}
	if nicknameTaken {
		return domain.Account{}, s.fail("join", domain.ErrDuplicateNickname)
	}

	emailTaken, err := s.IsEmailDuplicate(ctx, input.Email)
	if err != nil {
		return domain.Account{}, s.fail("join", err)
	}
	if emailTaken {
		return domain.Account{}, s.fail("join", domain.ErrDuplicateEmail)
	}

	hash, err := s.hasher.Hash(input.Password)
	if err != nil {
		return domain.Account{}, s.fail("join", internalError("PASSWORD_HASH_FAILED", "failed to hash password", err))
	}

	var account domain.Account
	err = s.call(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.repo.Create(ctx, domain.Account{
			Email:          input.Email,
			Nickname:       input.Nickname,
			PasswordHash:   hash,
			Role:           domain.RoleUser,
			ProfileImageID: constants.DefaultProfileImageID,
		})
		return err
	})
	if err != nil {
		return domain.Account{}, s.fail("join", asServiceError("ACCOUNT_CREATE_FAILED", "failed to create account", err))
	}

	metrics.AccountsJoined.Inc()
	s.succeed("join")
	s.log.WithFields(ctx, logger.Fields{
		"account_id": account.ID,
		"action":     "account_joined",
	}).Info("account joined")

	return account, nil
}

func (s *AccountService) IsEmailDuplicate(ctx context.Context, email string) (bool, error) {
	return s.exists(ctx, "ACCOUNT_EMAIL_CHECK_FAILED", func(ctx context.Context) (bool, error) {
		return s.repo.ExistsByEmail(ctx, email)
	})
}

func (s *AccountService) IsNicknameDuplicate(ctx context.Context, nickname string) (bool, error) {
	return s.exists(ctx, "ACCOUNT_NICKNAME_CHECK_FAILED", func(ctx context.Context) (bool, error) {
		return s.repo.ExistsByNickname(ctx, nickname)
	})
}

func (s *AccountService) exists(ctx context.Context, code string, fn func(context.Context) (bool, error)) (bool, error) {
	var found bool
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		found, err = fn(ctx)
		return err
	})
	if err != nil {
		return false, asServiceError(code, "failed to check for duplicates", err)
	}
	return found, nil
}

func (s *AccountService) ReadAccount(ctx context.Context, accountID int64) (domain.Profile, error) {
	var profile domain.Profile
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		profile, err = s.repo.FindProfile(ctx, accountID)
		return err
	})
	if err != nil {
		return domain.Profile{}, asServiceError("ACCOUNT_LOOKUP_FAILED", "failed to fetch account", err)
	}
	return profile, nil
}

func (s *AccountService) UpdateProfile(ctx context.Context, accountID int64, input UpdateProfileInput) (domain.Profile, error) {
	if err := validateNickname(input.Nickname); err != nil {
		return domain.Profile{}, s.fail("update_profile", err)
	}

	if _, err := s.images.FindByID(ctx, input.ProfileImageID); err != nil {
		if errors.Is(err, imagedomain.ErrImageNotFound) {
			return domain.Profile{}, s.fail("update_profile", domain.ErrInvalidImageReference)
		}
		return domain.Profile{}, s.fail("update_profile", asServiceError("IMAGE_LOOKUP_FAILED", "failed to fetch image", err))
	}

	current, err := s.findByID(ctx, accountID)
	if err != nil {
		return domain.Profile{}, s.fail("update_profile", err)
	}

	if current.Nickname != input.Nickname {
		taken, err := s.IsNicknameDuplicate(ctx, input.Nickname)
		if err != nil {
			return domain.Profile{}, s.fail("update_profile", err)
		}
		if taken {
			return domain.Profile{}, s.fail("update_profile", domain.ErrDuplicateNickname)
		}
	}

	err = s.call(ctx, func(ctx context.Context) error {
		return s.repo.UpdateProfile(ctx, accountID, input.Nickname, input.ProfileImageID)
	})
	if err != nil {
		return domain.Profile{}, s.fail("update_profile", asServiceError("ACCOUNT_UPDATE_FAILED", "failed to update profile", err))
	}

	s.succeed("update_profile")
	return s.ReadAccount(ctx, accountID)
}

func (s *AccountService) UpdatePassword(ctx context.Context, accountID int64, input UpdatePasswordInput) error {
	if err := validatePassword(input.NewPassword); err != nil {
		return s.fail("update_password", err)
	}

	account, err := s.findByID(ctx, accountID)
	if err != nil {
		return s.fail("update_password", err)
	}
	if err := s.verifyPassword(ctx, account, input.OldPassword); err != nil {
		return s.fail("update_password", err)
	}

	hash, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		return s.fail("update_password", internalError("PASSWORD_HASH_FAILED", "failed to hash password", err))
	}

	err = s.call(ctx, func(ctx context.Context) error {
		return s.repo.UpdatePassword(ctx, accountID, hash)
	})
	if err != nil {
		return s.fail("update_password", asServiceError("ACCOUNT_UPDATE_FAILED", "failed to update password", err))
	}

	s.succeed("update_password")
	s.log.WithFields(ctx, logger.Fields{
		"account_id": accountID,
		"action":     "password_changed",
	}).Info("password changed")
	return nil
}

// DeleteAccount re-verifies the password, then drops the refresh token on
// record before the account row, so a failure in between leaves no session
// outliving its account.
func (s *AccountService) DeleteAccount(ctx context.Context, accountID int64, password string) error {
	account, err := s.findByID(ctx, accountID)
	if err != nil {
		return s.fail("delete", err)
	}
	if err := s.verifyPassword(ctx, account, password); err != nil {
		return s.fail("delete", err)
	}

	err = s.call(ctx, func(ctx context.Context) error {
		return s.sessions.DeleteByKey(ctx, identitykey.Derive(account.Email))
	})
	if err != nil {
		return s.fail("delete", asServiceError("REFRESH_STORE_FAILED", "failed to end session", err))
	}

	err = s.call(ctx, func(ctx context.Context) error {
		return s.repo.Delete(ctx, accountID)
	})
	if err != nil {
		return s.fail("delete", asServiceError("ACCOUNT_DELETE_FAILED", "failed to delete account", err))
	}

	metrics.AccountsDeleted.Inc()
	s.succeed("delete")
	s.log.WithFields(ctx, logger.Fields{
		"account_id": accountID,
		"action":     "account_deleted",
	}).Info("account deleted")
	return nil
}

func (s *AccountService) findByID(ctx context.Context, accountID int64) (domain.Account, error) {
	var account domain.Account
	err := s.call(ctx, func(ctx context.Context) error {
		var err error
		account, err = s.repo.FindByID(ctx, accountID)
		return err
	})
	if err != nil {
		return domain.Account{}, asServiceError("ACCOUNT_LOOKUP_FAILED", "failed to fetch account", err)
	}
	return account, nil
}

func (s *AccountService) verifyPassword(ctx context.Context, account domain.Account, password string) error {
	err := s.hasher.Compare(account.PasswordHash, password)
	if err == nil {
		return nil
	}
	if errors.Is(err, commoncrypto.ErrPasswordMismatch) {
		s.log.WithFields(ctx, logger.Fields{
			"account_id": account.ID,
			"action":     "password_reverify_failed",
		}).Warn("current password does not match")
		return domain.ErrInvalidCredentials
	}
	return internalError("PASSWORD_VERIFY_FAILED", "failed to verify password", err)
}

func (s *AccountService) fail(operation string, err error) error {
	metrics.AccountOperationsTotal.WithLabelValues(operation, errorCode(err)).Inc()
	return err
}

func (s *AccountService) succeed(operation string) {
	metrics.AccountOperationsTotal.WithLabelValues(operation, "success").Inc()
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

func errorCode(err error) string {
	if de, ok := commonerrors.AsDomainError(err); ok {
		return de.Code()
	}
	return "INTERNAL_ERROR"
}
