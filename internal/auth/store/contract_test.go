package store

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errRejected = errors.New("transition rejected")

// runContract exercises the behaviour every backing must share.
func runContract(t *testing.T, newStore func(t *testing.T) RefreshTokenStore) {
	t.Run("find absent key", func(t *testing.T) {
		s := newStore(t)
		_, err := s.FindByKey(context.Background(), "missing")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("save is an upsert", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, "k", "t1"))
		require.NoError(t, s.Save(ctx, "k", "t1"))
		got, err := s.FindByKey(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "t1", got)

		require.NoError(t, s.Save(ctx, "k", "t2"))
		got, err = s.FindByKey(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "t2", got)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.DeleteByKey(ctx, "k"))
		require.NoError(t, s.Save(ctx, "k", "t1"))
		require.NoError(t, s.DeleteByKey(ctx, "k"))
		require.NoError(t, s.DeleteByKey(ctx, "k"))

		_, err := s.FindByKey(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("keys are independent", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		require.NoError(t, s.Save(ctx, "a", "ta"))
		require.NoError(t, s.Save(ctx, "b", "tb"))
		require.NoError(t, s.DeleteByKey(ctx, "a"))

		got, err := s.FindByKey(ctx, "b")
		require.NoError(t, err)
		assert.Equal(t, "tb", got)
	})

	t.Run("empty key rejected", func(t *testing.T) {
		s := newStore(t)
		assert.ErrorIs(t, s.Save(context.Background(), "", "t"), ErrInvalidKey)
	})

	t.Run("transact sees current record", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		var seen Record
		_, err := s.Transact(ctx, "k", func(cur Record) (Record, error) {
			seen = cur
			return Record{Token: "t1", Present: true}, nil
		})
		require.NoError(t, err)
		assert.False(t, seen.Present)

		rec, err := s.Transact(ctx, "k", func(cur Record) (Record, error) {
			seen = cur
			return cur, nil
		})
		require.NoError(t, err)
		assert.Equal(t, Record{Token: "t1", Present: true}, seen)
		assert.Equal(t, Record{Token: "t1", Present: true}, rec)
	})

	t.Run("transact error writes nothing", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, "k", "t1"))

		_, err := s.Transact(ctx, "k", func(Record) (Record, error) {
			return Record{}, errRejected
		})
		assert.ErrorIs(t, err, errRejected)

		got, err := s.FindByKey(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "t1", got)
	})

	t.Run("transact present without token rejected", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		_, err := s.Transact(ctx, "k", func(Record) (Record, error) {
			return Record{Present: true}, nil
		})
		assert.ErrorIs(t, err, ErrEmptyRecord)

		_, err = s.FindByKey(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("transact delete", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()
		require.NoError(t, s.Save(ctx, "k", "t1"))

		rec, err := s.Transact(ctx, "k", func(Record) (Record, error) {
			return Record{}, nil
		})
		require.NoError(t, err)
		assert.False(t, rec.Present)

		_, err = s.FindByKey(ctx, "k")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("concurrent create-if-absent yields one token", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const workers = 8
		results := make([]string, workers)
		errs := make([]error, workers)

		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				rec, err := s.Transact(ctx, "k", func(cur Record) (Record, error) {
					if cur.Present {
						return cur, nil
					}
					return Record{Token: "token-" + strconv.Itoa(i), Present: true}, nil
				})
				results[i], errs[i] = rec.Token, err
			}(i)
		}
		wg.Wait()

		for i := 0; i < workers; i++ {
			require.NoError(t, errs[i])
			assert.Equal(t, results[0], results[i])
		}
		stored, err := s.FindByKey(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, results[0], stored)
	})

	t.Run("concurrent read-modify-write loses no update", func(t *testing.T) {
		s := newStore(t)
		ctx := context.Background()

		const workers, rounds = 4, 5
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for j := 0; j < rounds; j++ {
					_, err := s.Transact(ctx, "counter", func(cur Record) (Record, error) {
						n := 0
						if cur.Present {
							n, _ = strconv.Atoi(cur.Token)
						}
						return Record{Token: strconv.Itoa(n + 1), Present: true}, nil
					})
					assert.NoError(t, err)
				}
			}()
		}
		wg.Wait()

		got, err := s.FindByKey(ctx, "counter")
		require.NoError(t, err)
		assert.Equal(t, strconv.Itoa(workers*rounds), got)
	})
}
