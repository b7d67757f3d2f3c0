package store

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/filmdoms/community/internal/common/constants"
)

const backendMemory = "memory"

// MemoryStore is a process-local store. Operations on one key are
// serialized by a striped lock table; different keys rarely share a stripe.
type MemoryStore struct {
	stripes []sync.Mutex
	mu      sync.RWMutex
	tokens  map[string]string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		stripes: make([]sync.Mutex, constants.RefreshStoreStripes),
		tokens:  make(map[string]string),
	}
}

func (s *MemoryStore) stripe(key string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return &s.stripes[h.Sum32()%uint32(len(s.stripes))]
}

func (s *MemoryStore) load(key string) Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	token, ok := s.tokens[key]
	return Record{Token: token, Present: ok}
}

func (s *MemoryStore) store(key string, r Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Present {
		s.tokens[key] = r.Token
	} else {
		delete(s.tokens, key)
	}
}

func (s *MemoryStore) FindByKey(ctx context.Context, key string) (string, error) {
	defer observe(backendMemory, "find", time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	r := s.load(key)
	if !r.Present {
		return "", ErrNotFound
	}
	return r.Token, nil
}

func (s *MemoryStore) Save(ctx context.Context, key, token string) error {
	_, err := s.Transact(ctx, key, func(Record) (Record, error) {
		return Record{Token: token, Present: true}, nil
	})
	return err
}

func (s *MemoryStore) DeleteByKey(ctx context.Context, key string) error {
	_, err := s.Transact(ctx, key, func(Record) (Record, error) {
		return Record{}, nil
	})
	return err
}

func (s *MemoryStore) Transact(ctx context.Context, key string, fn TransitionFunc) (Record, error) {
	defer observe(backendMemory, "transact", time.Now())
	if err := checkKey(key); err != nil {
		return Record{}, err
	}

	lock := s.stripe(key)
	lock.Lock()
	defer lock.Unlock()

	if err := ctx.Err(); err != nil {
		return Record{}, err
	}

	next, err := fn(s.load(key))
	if err != nil {
		return Record{}, err
	}
	if err := checkRecord(next); err != nil {
		return Record{}, err
	}

	s.store(key, next)
	return next, nil
}

// Len reports how many keys hold a token.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.tokens)
}
