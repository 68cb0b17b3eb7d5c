package domain

import (
	"time"
)

// User represents a registered user in the system.
//
// ResetSecretDigest holds the SHA-256 digest of the active password reset
// secret, never the secret itself. The digest and its expiry are set and
// cleared together: a user either has an active reset secret with a future
// expiry, or neither field.
type User struct {
	ID                   string     `json:"id"`
	Email                string     `json:"email"`
	Name                 string     `json:"name"`
	Role                 Role       `json:"role"`
	PasswordHash         string     `json:"-"`
	ResetSecretDigest    string     `json:"-"`
	ResetSecretExpiresAt *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

// HasActiveResetSecret reports whether the user holds a reset secret that
// has not yet expired.
func (u *User) HasActiveResetSecret(now time.Time) bool {
	return u.ResetSecretDigest != "" && u.ResetSecretExpiresAt != nil && u.ResetSecretExpiresAt.After(now)
}

// AuthResult pairs a user with a freshly issued session token. The user's
// sensitive fields carry `json:"-"` tags, so the marshaled form never
// contains the password hash or reset secret digest.
type AuthResult struct {
	User  *User  `json:"user"`
	Token string `json:"token"`
}
