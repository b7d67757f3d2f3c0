// Package store keeps the single refresh token on record for each identity
// key.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/filmdoms/community/internal/observability/metrics"
)

var (
	ErrNotFound    = errors.New("refresh token not found")
	ErrTxConflict  = errors.New("refresh token transaction kept conflicting")
	ErrInvalidKey  = errors.New("refresh token key must not be empty")
	ErrEmptyRecord = errors.New("present record must carry a token")
)

// Record is the state for one key: Present with the token on record, or
// absent.
type Record struct {
	Token   string
	Present bool
}

// TransitionFunc computes the next record from the current one. Returning
// an error aborts the transaction without writing.
type TransitionFunc func(current Record) (Record, error)

type RefreshTokenStore interface {
	FindByKey(ctx context.Context, key string) (string, error)
	Save(ctx context.Context, key, token string) error
	DeleteByKey(ctx context.Context, key string) error
	// Transact runs fn against the current record and persists its result
	// atomically with respect to every other operation on the same key.
	Transact(ctx context.Context, key string, fn TransitionFunc) (Record, error)
}

func checkKey(key string) error {
	if key == "" {
		return ErrInvalidKey
	}
	return nil
}

func checkRecord(r Record) error {
	if r.Present && r.Token == "" {
		return ErrEmptyRecord
	}
	return nil
}

func observe(backend, operation string, start time.Time) {
	metrics.RefreshStoreOperationDuration.WithLabelValues(backend, operation).Observe(time.Since(start).Seconds())
}
