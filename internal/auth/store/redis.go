package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/filmdoms/community/internal/common/constants"
	"github.com/filmdoms/community/internal/observability/metrics"
)

const (
	backendRedis      = "redis"
	defaultRedisSpace = "refresh:"
)

type RedisStoreConfig struct {
	// Prefix namespaces keys; defaults to "refresh:".
	Prefix string
	// TTL bounds how long a key may outlive the token it holds.
	TTL         time.Duration
	MaxAttempts int
}

// RedisStore keeps one string value per identity key. Transact uses
// WATCH/MULTI optimistic transactions and retries on conflict.
type RedisStore struct {
	client      redis.UniversalClient
	prefix      string
	ttl         time.Duration
	maxAttempts int
}

func NewRedisStore(client redis.UniversalClient, cfg RedisStoreConfig) *RedisStore {
	if cfg.Prefix == "" {
		cfg.Prefix = defaultRedisSpace
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = constants.RedisTxMaxAttempts
	}
	return &RedisStore{
		client:      client,
		prefix:      cfg.Prefix,
		ttl:         cfg.TTL,
		maxAttempts: cfg.MaxAttempts,
	}
}

func (s *RedisStore) redisKey(key string) string {
	return s.prefix + key
}

func (s *RedisStore) FindByKey(ctx context.Context, key string) (string, error) {
	defer observe(backendRedis, "find", time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}

	token, err := s.client.Get(ctx, s.redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to find refresh token: %w", err)
	}
	return token, nil
}

func (s *RedisStore) Save(ctx context.Context, key, token string) error {
	defer observe(backendRedis, "save", time.Now())
	if err := checkKey(key); err != nil {
		return err
	}
	if err := checkRecord(Record{Token: token, Present: true}); err != nil {
		return err
	}

	if err := s.client.Set(ctx, s.redisKey(key), token, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save refresh token: %w", err)
	}
	return nil
}

func (s *RedisStore) DeleteByKey(ctx context.Context, key string) error {
	defer observe(backendRedis, "delete", time.Now())
	if err := checkKey(key); err != nil {
		return err
	}

	if err := s.client.Del(ctx, s.redisKey(key)).Err(); err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}
	return nil
}

// Transact writes nothing when fn returns the record unchanged, so re-saving
// the token on record keeps its remaining TTL and never extends the key past
// the token's own expiry.
func (s *RedisStore) Transact(ctx context.Context, key string, fn TransitionFunc) (Record, error) {
	defer observe(backendRedis, "transact", time.Now())
	if err := checkKey(key); err != nil {
		return Record{}, err
	}

	rk := s.redisKey(key)
	var (
		result Record
		fnErr  error
	)

	txf := func(tx *redis.Tx) error {
		current := Record{}
		token, err := tx.Get(ctx, rk).Result()
		switch {
		case errors.Is(err, redis.Nil):
		case err != nil:
			return err
		default:
			current = Record{Token: token, Present: true}
		}

		next, err := fn(current)
		if err == nil {
			err = checkRecord(next)
		}
		if err != nil {
			fnErr = err
			return err
		}

		if !next.Present {
			next = Record{}
		}
		if next == current {
			result = next
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			if next.Present {
				pipe.Set(ctx, rk, next.Token, s.ttl)
			} else {
				pipe.Del(ctx, rk)
			}
			return nil
		})
		if err != nil {
			return err
		}
		result = next
		return nil
	}

	for attempt := 1; attempt <= s.maxAttempts; attempt++ {
		fnErr = nil
		err := s.client.Watch(ctx, txf, rk)
		if err == nil {
			return result, nil
		}
		if fnErr != nil {
			return Record{}, fnErr
		}
		if errors.Is(err, redis.TxFailedErr) {
			metrics.RefreshStoreTxConflicts.Inc()
			continue
		}
		return Record{}, fmt.Errorf("failed to transact refresh token: %w", err)
	}
	return Record{}, ErrTxConflict
}
