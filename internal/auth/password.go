package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"

	apperrors "github.com/Abdallah85/Collaborative-Notes-App/pkg/errors"
)

// bcryptCost is the cost factor for bcrypt password hashing.
const bcryptCost = 12

// HashPassword hashes a plaintext password with bcrypt. Empty input is
// rejected; any other failure is a wrapped internal error.
func HashPassword(plaintext string) (string, error) {
	if plaintext == "" {
		return "", apperrors.InvalidInput("password must not be empty")
	}

	digest, err := bcrypt.GenerateFromPassword([]byte(plaintext), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(digest), nil
}

// CheckPassword reports whether the plaintext password matches the bcrypt
// digest. bcrypt's comparison is constant-time over the hash output, and a
// malformed digest simply reports false rather than an error.
func CheckPassword(plaintext, digest string) bool {
	return bcrypt.CompareHashAndPassword([]byte(digest), []byte(plaintext)) == nil
}
