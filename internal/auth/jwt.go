package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/Abdallah85/Collaborative-Notes-App/internal/domain"
)

// Sentinel errors for token verification failures. An expired token should
// prompt re-login; an invalid token is always a hard reject.
var (
	ErrTokenExpired = errors.New("token has expired")
	ErrTokenInvalid = errors.New("token is invalid")
)

// SessionClaims are the JWT claims carried by a session token.
type SessionClaims struct {
	UserID string      `json:"user_id"`
	Email  string      `json:"email"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// TokenManager signs and verifies HS256 session tokens. The signing secret
// is supplied once at construction and never exposed.
type TokenManager struct {
	secret []byte
	expiry time.Duration
	issuer string
}

// NewTokenManager creates a token manager with the given secret and token lifetime.
func NewTokenManager(secret string, expiry time.Duration) *TokenManager {
	return &TokenManager{
		secret: []byte(secret),
		expiry: expiry,
		issuer: "auth-service",
	}
}

// Generate creates a signed session token for the given user.
func (m *TokenManager) Generate(user *domain.User) (string, error) {
	now := time.Now().UTC()
	claims := &SessionClaims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.expiry)),
			Issuer:    m.issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("sign session token: %w", err)
	}

	return signed, nil
}

// Verify parses and validates a session token, returning its claims.
// Expiry and signature/structure failures are distinguishable via
// ErrTokenExpired and ErrTokenInvalid.
func (m *TokenManager) Verify(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %w", ErrTokenExpired, err)
		}
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("%w: unexpected claims type", ErrTokenInvalid)
	}

	if !claims.Role.Valid() {
		return nil, fmt.Errorf("%w: unknown role %q", ErrTokenInvalid, claims.Role)
	}

	return claims, nil
}
