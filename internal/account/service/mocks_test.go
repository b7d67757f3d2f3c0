package service

import (
	"bytes"
	"context"
	"sync"

	"github.com/filmdoms/community/internal/account/domain"
	commoncrypto "github.com/filmdoms/community/internal/common/crypto"
	"github.com/filmdoms/community/internal/common/logger"
	imagedomain "github.com/filmdoms/community/internal/image/domain"
)

// memRepo is an in-memory account repository. failWith, when set, is
// returned from every call.
type memRepo struct {
	mu       sync.Mutex
	nextID   int64
	accounts map[int64]domain.Account
	failWith error
}

func newMemRepo() *memRepo {
	return &memRepo{accounts: map[int64]domain.Account{}}
}

func (r *memRepo) Create(_ context.Context, a domain.Account) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return domain.Account{}, r.failWith
	}
	for _, existing := range r.accounts {
		if existing.Email == a.Email {
			return domain.Account{}, domain.ErrDuplicateEmail
		}
		if existing.Nickname == a.Nickname {
			return domain.Account{}, domain.ErrDuplicateNickname
		}
	}
	r.nextID++
	a.ID = r.nextID
	r.accounts[a.ID] = a
	return a, nil
}

func (r *memRepo) FindByEmail(_ context.Context, email string) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return domain.Account{}, r.failWith
	}
	for _, a := range r.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, domain.ErrAccountNotFound
}

func (r *memRepo) FindByID(_ context.Context, id int64) (domain.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return domain.Account{}, r.failWith
	}
	a, ok := r.accounts[id]
	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return a, nil
}

func (r *memRepo) FindProfile(ctx context.Context, id int64) (domain.Profile, error) {
	a, err := r.FindByID(ctx, id)
	if err != nil {
		return domain.Profile{}, err
	}
	return domain.Profile{
		ID:             a.ID,
		Email:          a.Email,
		Nickname:       a.Nickname,
		Role:           a.Role,
		ProfileImageID: a.ProfileImageID,
	}, nil
}

func (r *memRepo) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	_, err := r.FindByEmail(ctx, email)
	if err == domain.ErrAccountNotFound {
		return false, nil
	}
	return err == nil, err
}

func (r *memRepo) ExistsByNickname(_ context.Context, nickname string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return false, r.failWith
	}
	for _, a := range r.accounts {
		if a.Nickname == nickname {
			return true, nil
		}
	}
	return false, nil
}

func (r *memRepo) UpdateProfile(_ context.Context, id int64, nickname string, imageID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.Nickname, a.ProfileImageID = nickname, imageID
	r.accounts[id] = a
	return nil
}

func (r *memRepo) UpdatePassword(_ context.Context, id int64, hash string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	a, ok := r.accounts[id]
	if !ok {
		return domain.ErrAccountNotFound
	}
	a.PasswordHash = hash
	r.accounts[id] = a
	return nil
}

func (r *memRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.failWith != nil {
		return r.failWith
	}
	if _, ok := r.accounts[id]; !ok {
		return domain.ErrAccountNotFound
	}
	delete(r.accounts, id)
	return nil
}

type mockImages struct {
	known map[int64]bool
}

func (m *mockImages) FindByID(_ context.Context, id int64) (imagedomain.ImageFile, error) {
	if m.known[id] {
		return imagedomain.ImageFile{ID: id}, nil
	}
	return imagedomain.ImageFile{}, imagedomain.ErrImageNotFound
}

type mockSessions struct {
	deleted []string
	err     error
}

func (m *mockSessions) DeleteByKey(_ context.Context, key string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = append(m.deleted, key)
	return nil
}

// mockHasher treats "hashed:" + password as the hash of password.
type mockHasher struct{}

func (mockHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (mockHasher) Compare(hash, password string) error {
	if hash != "hashed:"+password {
		return commoncrypto.ErrPasswordMismatch
	}
	return nil
}

type testEnv struct {
	svc      *AccountService
	repo     *memRepo
	sessions *mockSessions
}

func setupAccountService() *testEnv {
	repo := newMemRepo()
	sessions := &mockSessions{}
	svc := NewAccountService(AccountServiceDeps{
		Repo:     repo,
		Images:   &mockImages{known: map[int64]bool{1: true, 2: true}},
		Sessions: sessions,
		Hasher:   mockHasher{},
		Log:      logger.NewWithWriter(&bytes.Buffer{}, "account", "error"),
	})
	return &testEnv{svc: svc, repo: repo, sessions: sessions}
}
