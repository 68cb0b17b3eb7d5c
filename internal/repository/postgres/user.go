package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/Abdallah85/Collaborative-Notes-App/internal/domain"
	apperrors "github.com/Abdallah85/Collaborative-Notes-App/pkg/errors"
)

// DB is the subset of pgxpool.Pool used by the repositories. It is satisfied
// by both *pgxpool.Pool and pgxmock's pool interface.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// UserRepository implements repository.UserRepository using PostgreSQL.
type UserRepository struct {
	db DB
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(db DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, email, name, password_hash, role, reset_secret_digest, reset_secret_expires_at, created_at, updated_at`

// Create inserts a new user into the database.
func (r *UserRepository) Create(ctx context.Context, u *domain.User) error {
	query := `
		INSERT INTO users (id, email, name, password_hash, role, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.db.Exec(ctx, query,
		u.ID,
		u.Email,
		u.Name,
		u.PasswordHash,
		u.Role,
		u.CreatedAt,
		u.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.AlreadyExists("user", "email", u.Email)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	return nil
}

// GetByID retrieves a user by their ID.
func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	return r.scanUser(ctx, query, id)
}

// GetByEmail retrieves a user by their email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`

	return r.scanUser(ctx, query, email)
}

// List returns all users, newest first.
func (r *UserRepository) List(ctx context.Context) ([]domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []domain.User
	for rows.Next() {
		var u domain.User
		if err := scanUserRow(rows, &u); err != nil {
			return nil, fmt.Errorf("scan user row: %w", err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate user rows: %w", err)
	}

	if users == nil {
		users = []domain.User{}
	}

	return users, nil
}

// UpdatePassword replaces the user's password hash.
func (r *UserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	query := `
		UPDATE users
		SET password_hash = $1, updated_at = $2
		WHERE id = $3`

	ct, err := r.db.Exec(ctx, query, passwordHash, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// SetResetSecret stores a reset secret digest for the user, replacing any
// previous one.
func (r *UserRepository) SetResetSecret(ctx context.Context, id, digest string, expiresAt time.Time) error {
	query := `
		UPDATE users
		SET reset_secret_digest = $1, reset_secret_expires_at = $2, updated_at = $3
		WHERE id = $4`

	ct, err := r.db.Exec(ctx, query, digest, expiresAt, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("set reset secret: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// ConsumeResetSecret sets the new password hash and clears the reset secret
// in a single conditional UPDATE. The WHERE clause requires a matching,
// unexpired digest, so when two callers race on the same secret the database
// guarantees only one of them finds a qualifying row.
func (r *UserRepository) ConsumeResetSecret(ctx context.Context, digest, passwordHash string) (*domain.User, error) {
	query := `
		UPDATE users
		SET password_hash = $1, reset_secret_digest = '', reset_secret_expires_at = NULL, updated_at = $2
		WHERE reset_secret_digest = $3 AND reset_secret_digest <> '' AND reset_secret_expires_at > $2
		RETURNING ` + userColumns

	var u domain.User
	row := r.db.QueryRow(ctx, query, passwordHash, time.Now().UTC(), digest)
	if err := scanUserRow(row, &u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrInvalidOrExpired
		}
		return nil, fmt.Errorf("consume reset secret: %w", err)
	}

	return &u, nil
}

// Delete removes a user from the database by their ID.
func (r *UserRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM users WHERE id = $1`

	ct, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if ct.RowsAffected() == 0 {
		return apperrors.NotFound("user", id)
	}

	return nil
}

// scanUser is a helper that executes a query expected to return a single user row.
func (r *UserRepository) scanUser(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var u domain.User

	err := scanUserRow(r.db.QueryRow(ctx, query, args...), &u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}

	return &u, nil
}

func scanUserRow(row pgx.Row, u *domain.User) error {
	return row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.Role,
		&u.ResetSecretDigest,
		&u.ResetSecretExpiresAt,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation (SQLSTATE 23505).
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "23505")
}
