package store

import (
	"context"
	"os"
	"testing"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/stretchr/testify/require"
)

// TestPgStore runs against TEST_DATABASE_URL with the refresh_tokens
// migration applied, and is skipped when the variable is unset.
func TestPgStore(t *testing.T) {
	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.Connect(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	runContract(t, func(t *testing.T) RefreshTokenStore {
		_, err := pool.Exec(context.Background(), `TRUNCATE refresh_tokens`)
		require.NoError(t, err)
		return NewPgStore(pool)
	})
}
