// Package identitykey derives the per-account key under which the refresh
// token on record is stored.
package identitykey

import (
	"crypto/md5"

	"github.com/google/uuid"
)

// Derive returns the name-based (version 3, MD5) UUID of the email bytes,
// without a namespace. The email is hashed verbatim: no case folding and no
// trimming, so callers must pass the stored account email.
func Derive(email string) string {
	sum := md5.Sum([]byte(email))
	sum[6] = sum[6]&0x0f | 0x30
	sum[8] = sum[8]&0x3f | 0x80
	return uuid.UUID(sum).String()
}
