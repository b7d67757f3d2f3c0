package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	accountdomain "github.com/filmdoms/community/internal/account/domain"
	"github.com/filmdoms/community/internal/auth/store"
	"github.com/filmdoms/community/internal/auth/token"
	"github.com/filmdoms/community/internal/common/clock"
	commoncrypto "github.com/filmdoms/community/internal/common/crypto"
	"github.com/filmdoms/community/internal/common/logger"
)

type mockAccountFinder struct {
	findByEmailFunc func(ctx context.Context, email string) (accountdomain.Account, error)
}

func (m *mockAccountFinder) FindByEmail(ctx context.Context, email string) (accountdomain.Account, error) {
	if m.findByEmailFunc != nil {
		return m.findByEmailFunc(ctx, email)
	}
	return accountdomain.Account{}, accountdomain.ErrAccountNotFound
}

// mockHasher treats "hashed:" + password as the hash of password.
type mockHasher struct {
	compareFunc func(hash, password string) error
}

func (m *mockHasher) Hash(password string) (string, error) {
	return "hashed:" + password, nil
}

func (m *mockHasher) Compare(hash, password string) error {
	if m.compareFunc != nil {
		return m.compareFunc(hash, password)
	}
	if hash != "hashed:"+password {
		return commoncrypto.ErrPasswordMismatch
	}
	return nil
}

type mockStore struct {
	findByKeyFunc   func(ctx context.Context, key string) (string, error)
	saveFunc        func(ctx context.Context, key, token string) error
	deleteByKeyFunc func(ctx context.Context, key string) error
	transactFunc    func(ctx context.Context, key string, fn store.TransitionFunc) (store.Record, error)
}

func (m *mockStore) FindByKey(ctx context.Context, key string) (string, error) {
	if m.findByKeyFunc != nil {
		return m.findByKeyFunc(ctx, key)
	}
	return "", store.ErrNotFound
}

func (m *mockStore) Save(ctx context.Context, key, token string) error {
	if m.saveFunc != nil {
		return m.saveFunc(ctx, key, token)
	}
	return nil
}

func (m *mockStore) DeleteByKey(ctx context.Context, key string) error {
	if m.deleteByKeyFunc != nil {
		return m.deleteByKeyFunc(ctx, key)
	}
	return nil
}

func (m *mockStore) Transact(ctx context.Context, key string, fn store.TransitionFunc) (store.Record, error) {
	if m.transactFunc != nil {
		return m.transactFunc(ctx, key, fn)
	}
	return fn(store.Record{})
}

const testSecret = "0123456789abcdef0123456789abcdef"

type testEnv struct {
	svc      *AuthService
	accounts *mockAccountFinder
	store    *store.MemoryStore
	codec    *token.Codec
	clock    *clock.MockClock
}

func newTestCodec(t *testing.T, c clock.Clock) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		Secret:     []byte(testSecret),
		AccessTTL:  30 * time.Minute,
		RefreshTTL: 14 * 24 * time.Hour,
		Issuer:     "filmdoms",
	}, c, commoncrypto.NewUUIDGenerator())
	if err != nil {
		t.Fatalf("failed to create codec: %v", err)
	}
	return codec
}

func newTestLogger() *logger.Logger {
	return logger.NewWithWriter(&bytes.Buffer{}, "auth", "error")
}

func setupAuthService(t *testing.T, accounts ...accountdomain.Account) *testEnv {
	t.Helper()

	mc := clock.NewMockClock(time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC))
	codec := newTestCodec(t, mc)
	memStore := store.NewMemoryStore()

	finder := &mockAccountFinder{
		findByEmailFunc: func(_ context.Context, email string) (accountdomain.Account, error) {
			for _, a := range accounts {
				if a.Email == email {
					return a, nil
				}
			}
			return accountdomain.Account{}, accountdomain.ErrAccountNotFound
		},
	}

	svc := NewAuthService(AuthServiceDeps{
		Accounts: finder,
		Store:    memStore,
		Codec:    codec,
		Hasher:   &mockHasher{},
		Log:      newTestLogger(),
	})

	return &testEnv{svc: svc, accounts: finder, store: memStore, codec: codec, clock: mc}
}

func testAccount(id int64, email, password string) accountdomain.Account {
	return accountdomain.Account{
		ID:           id,
		Email:        email,
		Nickname:     "user" + email,
		PasswordHash: "hashed:" + password,
		Role:         accountdomain.RoleUser,
	}
}

// tamper flips one character in the middle of the signature segment.
func tamper(tok string) string {
	b := []byte(tok)
	i := len(b) - 10
	if b[i] == 'a' {
		b[i] = 'b'
	} else {
		b[i] = 'a'
	}
	return string(b)
}
