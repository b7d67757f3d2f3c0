package identitykey

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerive_KnownValues(t *testing.T) {
	cases := map[string]string{
		"":                  "d41d8cd9-8f00-3204-a980-0998ecf8427e",
		"a@x.com":           "74317378-8aa9-3668-81df-2e18f0e7ff24",
		"A@x.com":           "1ce18fae-fc5c-319d-b30e-48e9de7ea4f1",
		"user@filmdoms.com": "415ed620-a3c1-3cac-b98c-404c53e02af2",
	}
	for email, want := range cases {
		assert.Equal(t, want, Derive(email), "email %q", email)
	}
}

func TestDerive_Deterministic(t *testing.T) {
	assert.Equal(t, Derive("a@x.com"), Derive("a@x.com"))
}

func TestDerive_CaseSensitive(t *testing.T) {
	assert.NotEqual(t, Derive("a@x.com"), Derive("A@x.com"))
	assert.NotEqual(t, Derive("a@x.com"), Derive(" a@x.com"))
}

func TestDerive_IsVersion3UUID(t *testing.T) {
	key := Derive("user@filmdoms.com")
	require.Len(t, key, 36)

	parsed, err := uuid.Parse(key)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(3), parsed.Version())
	assert.Equal(t, uuid.RFC4122, parsed.Variant())
}
