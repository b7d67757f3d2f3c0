package db

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgconn"
	pgx "github.com/jackc/pgx/v4"
)

var errNotFound = errors.New("not found")

func TestHandleQueryError(t *testing.T) {
	start := time.Now()

	if err := HandleQueryError(nil, errNotFound, "find account", start); err != nil {
		t.Errorf("nil error must stay nil, got %v", err)
	}
	if err := HandleQueryError(pgx.ErrNoRows, errNotFound, "find account", start); !errors.Is(err, errNotFound) {
		t.Errorf("no rows must map to the not-found error, got %v", err)
	}

	boom := errors.New("conn reset")
	err := HandleQueryError(boom, errNotFound, "find account", start)
	if !errors.Is(err, boom) {
		t.Errorf("infrastructure error must be wrapped, got %v", err)
	}
	if err.Error() != "failed to find account: conn reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
}

func TestExtractTableFromOperation(t *testing.T) {
	cases := map[string]string{
		"find account by email": "accounts",
		"save refresh token":    "refresh_tokens",
		"create image file":     "image_files",
		"vacuum":                "unknown",
	}
	for op, want := range cases {
		if got := extractTableFromOperation(op); got != want {
			t.Errorf("%q: expected %q, got %q", op, want, got)
		}
	}
}

func TestUniqueViolation(t *testing.T) {
	err := &pgconn.PgError{Code: "23505", ConstraintName: "accounts_nickname_key"}
	name, ok := UniqueViolation(err)
	if !ok || name != "accounts_nickname_key" {
		t.Errorf("expected unique violation on accounts_nickname_key, got %q %v", name, ok)
	}

	if _, ok := UniqueViolation(&pgconn.PgError{Code: "23503"}); ok {
		t.Error("foreign key violation must not be reported as unique")
	}
}
