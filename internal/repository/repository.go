package repository

import (
	"context"
	"time"

	"github.com/Abdallah85/Collaborative-Notes-App/internal/domain"
)

// UserRepository defines the interface for user persistence operations.
type UserRepository interface {
	// Create inserts a new user into the store.
	Create(ctx context.Context, user *domain.User) error

	// GetByID retrieves a user by their unique identifier.
	GetByID(ctx context.Context, id string) (*domain.User, error)

	// GetByEmail retrieves a user by their email address.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List returns all users ordered by creation time, newest first.
	List(ctx context.Context) ([]domain.User, error)

	// UpdatePassword replaces the user's password hash.
	UpdatePassword(ctx context.Context, id, passwordHash string) error

	// SetResetSecret stores the digest of a newly issued reset secret,
	// replacing any previous one for the user.
	SetResetSecret(ctx context.Context, id, digest string, expiresAt time.Time) error

	// ConsumeResetSecret atomically sets a new password hash and clears the
	// stored reset secret, but only if the given digest matches an unexpired
	// secret. Returns ErrInvalidOrExpired when no row qualifies, so that at
	// most one concurrent caller can succeed per issued secret.
	ConsumeResetSecret(ctx context.Context, digest, passwordHash string) (*domain.User, error)

	// Delete removes a user from the store by their identifier.
	Delete(ctx context.Context, id string) error
}
