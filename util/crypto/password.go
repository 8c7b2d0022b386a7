// Package crypto provides password hashing and the symmetric cipher used to
// protect patient fields at rest.
package crypto

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// PasswordCost is the bcrypt work factor for new hashes.
var PasswordCost = 12

// HashPasswordAsBcrypt generates a bcrypt hash of the given password.
func HashPasswordAsBcrypt(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), PasswordCost)
	return string(hash), err
}

// HashPasswordLegacy returns the unsalted SHA-256 hex digest older accounts
// were stored with. Only used to verify and to build fixtures.
func HashPasswordLegacy(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// IsBcryptHash reports whether hash carries a bcrypt version prefix.
func IsBcryptHash(hash string) bool {
	return strings.HasPrefix(hash, "$2a$") ||
		strings.HasPrefix(hash, "$2b$") ||
		strings.HasPrefix(hash, "$2y$")
}

// NeedsUpgrade reports whether a stored hash should be replaced by a bcrypt
// hash after the next successful login.
func NeedsUpgrade(hash string) bool {
	return hash != "" && !IsBcryptHash(hash)
}

// CheckPasswordHash verifies password against either hash format.
func CheckPasswordHash(hash, password string) bool {
	if hash == "" {
		return false
	}
	if IsBcryptHash(hash) {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
	}
	provided := HashPasswordLegacy(password)
	return subtle.ConstantTimeCompare([]byte(provided), []byte(strings.ToLower(hash))) == 1
}
