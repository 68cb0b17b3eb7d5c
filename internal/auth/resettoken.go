package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// resetSecretBytes is the entropy of a reset secret (256 bits).
const resetSecretBytes = 32

// DefaultResetSecretTTL is how long an issued reset secret stays valid.
const DefaultResetSecretTTL = time.Hour

// ResetSecret is a freshly issued password reset secret. Plaintext goes to
// the user via the notification channel; only the digest is persisted.
type ResetSecret struct {
	Plaintext string
	Digest    string
	ExpiresAt time.Time
}

// ResetTokenManager issues single-use password reset secrets. Issuing a new
// secret supersedes any prior one for the same user because the store holds
// at most one digest per user. Presented secrets are matched against the
// stored digest by the store itself, in the same conditional update that
// consumes them.
type ResetTokenManager struct {
	ttl time.Duration
	now func() time.Time
}

// NewResetTokenManager creates a manager with the given secret lifetime.
// A non-positive ttl falls back to DefaultResetSecretTTL.
func NewResetTokenManager(ttl time.Duration) *ResetTokenManager {
	if ttl <= 0 {
		ttl = DefaultResetSecretTTL
	}
	return &ResetTokenManager{
		ttl: ttl,
		now: func() time.Time { return time.Now().UTC() },
	}
}

// Issue generates a cryptographically random hex-encoded secret and its
// expiry. The caller persists the digest and expiry on the user record.
func (m *ResetTokenManager) Issue() (*ResetSecret, error) {
	buf := make([]byte, resetSecretBytes)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("generate reset secret: %w", err)
	}

	plaintext := hex.EncodeToString(buf)
	return &ResetSecret{
		Plaintext: plaintext,
		Digest:    DigestResetSecret(plaintext),
		ExpiresAt: m.now().Add(m.ttl),
	}, nil
}

// DigestResetSecret returns the SHA-256 hex digest of a reset secret. The
// store only ever sees digests; a leaked users table does not expose
// usable reset secrets.
func DigestResetSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}
