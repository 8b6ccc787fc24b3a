package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"github.com/google/uuid"
)

// NewToken mints an opaque bearer or capability token: two random UUIDs
// with dashes stripped, 64 hex characters (32 bytes of entropy). The
// plaintext is returned to the caller exactly once and only its hash is
// ever stored.
func NewToken() string {
	return strings.ReplaceAll(uuid.NewString()+uuid.NewString(), "-", "")
}

// HashToken is the one-way, deterministic hash used for storage and
// lookup of every token in the system.
func HashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}

// VerifyToken compares a supplied plaintext token against a stored hash
// in constant time.
func VerifyToken(token, storedHash string) bool {
	h := HashToken(token)
	return subtle.ConstantTimeCompare([]byte(h), []byte(storedHash)) == 1
}

// VerifyAdminSecret compares the supplied credential against the
// operator-configured admin secret: length check first, then a
// constant-time byte compare. The secret is never stored in the
// database; there is exactly one admin identity.
func VerifyAdminSecret(supplied, secret string) bool {
	if secret == "" || len(supplied) != len(secret) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(secret)) == 1
}
