// Package crypto implements server-side password hashing and verification.
package crypto

import (
	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor used for new hashes.
const PasswordCost = 10

// MaxPasswordBytes is the longest password prefix bcrypt takes into account.
// Longer passwords are truncated on both hash and verify.
const MaxPasswordBytes = 72

// HashPassword returns a randomly salted bcrypt hash of password.
func HashPassword(password []byte) ([]byte, error) {
	return bcrypt.GenerateFromPassword(truncate(password), PasswordCost)
}

// VerifyPassword reports whether password matches the stored bcrypt hash.
func VerifyPassword(password, hash []byte) bool {
	return bcrypt.CompareHashAndPassword(hash, truncate(password)) == nil
}

func truncate(password []byte) []byte {
	if len(password) > MaxPasswordBytes {
		return password[:MaxPasswordBytes]
	}
	return password
}
