package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Abdallah85/Collaborative-Notes-App/internal/auth"
	"github.com/Abdallah85/Collaborative-Notes-App/internal/domain"
	"github.com/Abdallah85/Collaborative-Notes-App/internal/repository"
	apperrors "github.com/Abdallah85/Collaborative-Notes-App/pkg/errors"
)

// minPasswordLength is the minimum password length required.
const minPasswordLength = 8

// EventProducer publishes auth domain events.
type EventProducer interface {
	PublishUserRegistered(ctx context.Context, user *domain.User) error
	PublishPasswordResetRequested(ctx context.Context, user *domain.User, secret string, expiresAt time.Time) error
	PublishPasswordChanged(ctx context.Context, user *domain.User) error
	PublishUserDeleted(ctx context.Context, user *domain.User) error
}

// AuthService implements the business logic for credential and session
// operations.
type AuthService struct {
	userRepo    repository.UserRepository
	tokens      *auth.TokenManager
	resetTokens *auth.ResetTokenManager
	producer    EventProducer
	logger      *slog.Logger
}

// NewAuthService creates a new auth service.
func NewAuthService(
	userRepo repository.UserRepository,
	tokens *auth.TokenManager,
	resetTokens *auth.ResetTokenManager,
	producer EventProducer,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		userRepo:    userRepo,
		tokens:      tokens,
		resetTokens: resetTokens,
		producer:    producer,
		logger:      logger,
	}
}

// --- Input types ---

// RegisterInput holds the parameters for registering a new user. Role is
// optional and defaults to USER.
type RegisterInput struct {
	Email    string
	Name     string
	Password string
	Role     domain.Role
}

// LoginInput holds the parameters for user login.
type LoginInput struct {
	Email    string
	Password string
}

// --- Auth Operations ---

// Register creates a new user account, hashes the password, and returns the
// user together with a signed session token.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*domain.AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if strings.TrimSpace(input.Name) == "" {
		return nil, apperrors.InvalidInput("name is required")
	}
	if err := validatePassword(input.Password); err != nil {
		return nil, err
	}

	role := input.Role
	if role == "" {
		role = domain.RoleUser
	}
	if !role.Valid() {
		return nil, apperrors.InvalidInput("role must be USER or ADMIN")
	}

	hashedPassword, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New().String(),
		Email:        email,
		Name:         strings.TrimSpace(input.Name),
		PasswordHash: hashedPassword,
		Role:         role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	// Publish registration event (non-blocking on failure).
	if err := s.producer.PublishUserRegistered(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user_registered event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user registered",
		slog.String("user_id", user.ID),
		slog.String("email", user.Email),
	)

	return &domain.AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user with email and password. Failures are reported
// with a single message regardless of cause, so callers cannot discover
// which email addresses have accounts.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*domain.AuthResult, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, apperrors.InvalidInput("email is required")
	}
	if input.Password == "" {
		return nil, apperrors.InvalidInput("password is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("get user by email: %w", err)
	}

	if !auth.CheckPassword(input.Password, user.PasswordHash) {
		return nil, apperrors.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	s.logger.InfoContext(ctx, "user logged in",
		slog.String("user_id", user.ID),
	)

	return &domain.AuthResult{User: user, Token: token}, nil
}

// ResolveSession verifies a session token and returns the live user record
// it refers to. Expired tokens are distinguished from malformed ones; a
// token whose subject no longer exists resolves to an authorization failure.
func (s *AuthService) ResolveSession(ctx context.Context, token string) (*domain.User, error) {
	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			return nil, &apperrors.AppError{
				Code:    "TOKEN_EXPIRED",
				Message: "session token has expired",
				Status:  http.StatusUnauthorized,
				Err:     apperrors.ErrUnauthorized,
			}
		}
		return nil, apperrors.Unauthorized("invalid session token")
	}

	user, err := s.userRepo.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized("session user no longer exists")
		}
		return nil, fmt.Errorf("get session user: %w", err)
	}

	return user, nil
}

// RequestPasswordReset issues a time-bounded single-use reset secret for the
// account and hands it to the notification pipeline. When the email is not
// registered the call succeeds without doing anything, so the response does
// not reveal which addresses have accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return apperrors.InvalidInput("email is required")
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if !errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("get user by email: %w", err)
		}
		// The response must not reveal whether the email is registered.
		s.logger.InfoContext(ctx, "password reset requested for unknown email")
		return nil
	}

	secret, err := s.resetTokens.Issue()
	if err != nil {
		return fmt.Errorf("issue reset secret: %w", err)
	}

	// A new request supersedes any previously issued secret.
	if user.HasActiveResetSecret(time.Now().UTC()) {
		s.logger.InfoContext(ctx, "superseding active reset secret",
			slog.String("user_id", user.ID),
		)
	}
	if err := s.userRepo.SetResetSecret(ctx, user.ID, secret.Digest, secret.ExpiresAt); err != nil {
		return fmt.Errorf("store reset secret: %w", err)
	}

	// Delivery is the whole point of the operation, so a publish failure is
	// surfaced to the caller instead of being swallowed.
	if err := s.producer.PublishPasswordResetRequested(ctx, user, secret.Plaintext, secret.ExpiresAt); err != nil {
		return fmt.Errorf("publish password_reset_requested event: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset requested",
		slog.String("user_id", user.ID),
	)

	return nil
}

// ResetPassword consumes a reset secret, sets a new password, and logs the
// user in with a fresh session token. The secret is matched and cleared in
// one conditional update, so when two callers race on the same secret
// exactly one of them succeeds.
func (s *AuthService) ResetPassword(ctx context.Context, secret, newPassword string) (*domain.AuthResult, error) {
	if secret == "" {
		return nil, apperrors.InvalidOrExpired("reset token is invalid or has expired")
	}
	if err := validatePassword(newPassword); err != nil {
		return nil, err
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash new password: %w", err)
	}

	user, err := s.userRepo.ConsumeResetSecret(ctx, auth.DigestResetSecret(secret), hashedPassword)
	if err != nil {
		if errors.Is(err, apperrors.ErrInvalidOrExpired) {
			return nil, apperrors.InvalidOrExpired("reset token is invalid or has expired")
		}
		return nil, fmt.Errorf("consume reset secret: %w", err)
	}

	// The secret is already consumed at this point, so a failed confirmation
	// notice surfaces as an error without making the secret reusable.
	if err := s.producer.PublishPasswordChanged(ctx, user); err != nil {
		return nil, fmt.Errorf("publish password_changed event: %w", err)
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return nil, fmt.Errorf("generate session token: %w", err)
	}

	s.logger.InfoContext(ctx, "password reset completed",
		slog.String("user_id", user.ID),
	)

	return &domain.AuthResult{User: user, Token: token}, nil
}

// ChangePassword allows an authenticated user to change their password after
// proving knowledge of the current one.
func (s *AuthService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	if currentPassword == "" {
		return apperrors.InvalidInput("current password is required")
	}
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if currentPassword == newPassword {
		return apperrors.InvalidInput("new password must be different from current password")
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for password change: %w", err)
	}

	if !auth.CheckPassword(currentPassword, user.PasswordHash) {
		return apperrors.Unauthorized("current password is incorrect")
	}

	hashedPassword, err := auth.HashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("hash new password: %w", err)
	}

	if err := s.userRepo.UpdatePassword(ctx, user.ID, hashedPassword); err != nil {
		return fmt.Errorf("update password: %w", err)
	}

	if err := s.producer.PublishPasswordChanged(ctx, user); err != nil {
		return fmt.Errorf("publish password_changed event: %w", err)
	}

	s.logger.InfoContext(ctx, "password changed",
		slog.String("user_id", user.ID),
	)

	return nil
}

// --- User Operations ---

// GetUser retrieves a user by their ID.
func (s *AuthService) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// ListUsers returns all registered users.
func (s *AuthService) ListUsers(ctx context.Context) ([]domain.User, error) {
	users, err := s.userRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// DeleteUser removes a user account.
func (s *AuthService) DeleteUser(ctx context.Context, userID string) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("get user for delete: %w", err)
	}

	if err := s.userRepo.Delete(ctx, userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}

	if err := s.producer.PublishUserDeleted(ctx, user); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish user_deleted event",
			slog.String("user_id", user.ID),
			slog.String("error", err.Error()),
		)
	}

	s.logger.InfoContext(ctx, "user deleted",
		slog.String("user_id", user.ID),
	)

	return nil
}

// normalizeEmail lowercases and trims an email address so lookups are
// case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// validatePassword checks that the password meets the minimum length.
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return apperrors.InvalidInput(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}
	return nil
}
