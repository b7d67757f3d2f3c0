package store

import (
	"context"
	"errors"
	"time"

	pgx "github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"github.com/filmdoms/community/internal/common/db"
)

const backendPostgres = "postgres"

// PgStore keeps refresh tokens in the refresh_tokens table. Every write
// takes a transaction-scoped advisory lock on the key first, so writes to
// one key are serialized even when the row does not exist yet.
type PgStore struct {
	pool  *pgxpool.Pool
	txMgr db.TxManager
}

func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool, txMgr: db.NewPgTxManager(pool)}
}

func (s *PgStore) FindByKey(ctx context.Context, key string) (string, error) {
	defer observe(backendPostgres, "find", time.Now())
	if err := checkKey(key); err != nil {
		return "", err
	}

	start := time.Now()
	var token string
	err := s.pool.QueryRow(ctx, `SELECT token FROM refresh_tokens WHERE key = $1`, key).Scan(&token)
	if err := db.HandleQueryError(err, ErrNotFound, "find refresh token", start); err != nil {
		return "", err
	}
	return token, nil
}

func (s *PgStore) Save(ctx context.Context, key, token string) error {
	_, err := s.Transact(ctx, key, func(Record) (Record, error) {
		return Record{Token: token, Present: true}, nil
	})
	return err
}

func (s *PgStore) DeleteByKey(ctx context.Context, key string) error {
	_, err := s.Transact(ctx, key, func(Record) (Record, error) {
		return Record{}, nil
	})
	return err
}

func (s *PgStore) Transact(ctx context.Context, key string, fn TransitionFunc) (Record, error) {
	defer observe(backendPostgres, "transact", time.Now())
	if err := checkKey(key); err != nil {
		return Record{}, err
	}

	var result Record
	err := s.txMgr.WithTx(ctx, func(ctx context.Context, tx pgx.Tx) error {
		start := time.Now()
		_, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, key)
		if err := db.HandleExecError(err, "lock refresh token key", start); err != nil {
			return err
		}

		current, err := readRecord(ctx, tx, key)
		if err != nil {
			return err
		}

		next, err := fn(current)
		if err != nil {
			return err
		}
		if err := checkRecord(next); err != nil {
			return err
		}

		if err := writeRecord(ctx, tx, key, current, next); err != nil {
			return err
		}
		result = next
		return nil
	})
	if err != nil {
		return Record{}, err
	}
	return result, nil
}

func readRecord(ctx context.Context, tx pgx.Tx, key string) (Record, error) {
	start := time.Now()
	var token string
	err := tx.QueryRow(ctx, `SELECT token FROM refresh_tokens WHERE key = $1`, key).Scan(&token)
	if err := db.HandleQueryError(err, ErrNotFound, "read refresh token", start); err != nil {
		if errors.Is(err, ErrNotFound) {
			return Record{}, nil
		}
		return Record{}, err
	}
	return Record{Token: token, Present: true}, nil
}

func writeRecord(ctx context.Context, tx pgx.Tx, key string, current, next Record) error {
	start := time.Now()
	switch {
	case !next.Present:
		if !current.Present {
			return nil
		}
		_, err := tx.Exec(ctx, `DELETE FROM refresh_tokens WHERE key = $1`, key)
		return db.HandleExecError(err, "delete refresh token", start)
	case current.Present && current.Token == next.Token:
		_, err := tx.Exec(ctx, `UPDATE refresh_tokens SET updated_at = now() WHERE key = $1`, key)
		return db.HandleExecError(err, "touch refresh token", start)
	default:
		_, err := tx.Exec(
			ctx,
			`INSERT INTO refresh_tokens (key, token, updated_at)
			 VALUES ($1, $2, now())
			 ON CONFLICT (key) DO UPDATE SET token = EXCLUDED.token, updated_at = EXCLUDED.updated_at`,
			key,
			next.Token,
		)
		return db.HandleExecError(err, "save refresh token", start)
	}
}
