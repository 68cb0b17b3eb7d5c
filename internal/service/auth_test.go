package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Abdallah85/Collaborative-Notes-App/internal/auth"
	"github.com/Abdallah85/Collaborative-Notes-App/internal/domain"
	apperrors "github.com/Abdallah85/Collaborative-Notes-App/pkg/errors"
)

// --- Mock User Repository ---

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) List(ctx context.Context) ([]domain.User, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.User), args.Error(1)
}

func (m *mockUserRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	args := m.Called(ctx, id, passwordHash)
	return args.Error(0)
}

func (m *mockUserRepository) SetResetSecret(ctx context.Context, id, digest string, expiresAt time.Time) error {
	args := m.Called(ctx, id, digest, expiresAt)
	return args.Error(0)
}

func (m *mockUserRepository) ConsumeResetSecret(ctx context.Context, digest, passwordHash string) (*domain.User, error) {
	args := m.Called(ctx, digest, passwordHash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// --- Mock Event Producer ---

type mockEventProducer struct {
	mock.Mock
}

func (m *mockEventProducer) PublishUserRegistered(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockEventProducer) PublishPasswordResetRequested(ctx context.Context, user *domain.User, secret string, expiresAt time.Time) error {
	args := m.Called(ctx, user, secret, expiresAt)
	return args.Error(0)
}

func (m *mockEventProducer) PublishPasswordChanged(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockEventProducer) PublishUserDeleted(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

// --- Fixtures ---

const testJWTSecret = "test-secret-key-for-unit-tests-0123456789"

func newTestService(userRepo *mockUserRepository, producer *mockEventProducer) *AuthService {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokenManager(testJWTSecret, 24*time.Hour)
	resetTokens := auth.NewResetTokenManager(time.Hour)
	return NewAuthService(userRepo, tokens, resetTokens, producer, logger)
}

func hashedUser(t *testing.T, password string) *domain.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)

	now := time.Now().UTC()
	return &domain.User{
		ID:           "u-1",
		Email:        "jane@example.com",
		Name:         "Jane Doe",
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// ---------------------------------------------------------------------------
// Register
// ---------------------------------------------------------------------------

func TestAuthService_Register_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "jane@example.com" &&
			u.Name == "Jane Doe" &&
			u.Role == domain.RoleUser &&
			u.PasswordHash != "" &&
			u.PasswordHash != "Password1"
	})).Return(nil)
	producer.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "jane@example.com",
		Name:     "Jane Doe",
		Password: "Password1",
	})
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "jane@example.com", result.User.Email)

	// The stored hash verifies against the original password.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(result.User.PasswordHash), []byte("Password1")))

	userRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestAuthService_Register_NormalizesEmail(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Email == "jane@example.com"
	})).Return(nil)
	producer.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "  JANE@Example.COM ",
		Name:     "Jane Doe",
		Password: "Password1",
	})
	require.NoError(t, err)
	assert.Equal(t, "jane@example.com", result.User.Email)
	userRepo.AssertExpectations(t)
}

func TestAuthService_RegisterThenLogin(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	var created *domain.User
	userRepo.On("Create", mock.Anything, mock.Anything).
		Run(func(args mock.Arguments) { created = args.Get(1).(*domain.User) }).
		Return(nil)
	producer.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil)

	_, err := svc.Register(context.Background(), RegisterInput{
		Email:    "jane@example.com",
		Name:     "Jane Doe",
		Password: "secret123",
	})
	require.NoError(t, err)
	require.NotNil(t, created)

	// The stored hash must verify against the password it was derived from.
	userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(created, nil)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "secret123",
	})
	require.NoError(t, err)
	assert.Equal(t, created.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)

	_, err = svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "secret124",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
}

func TestAuthService_Register_ExplicitAdminRole(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	userRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
		return u.Role == domain.RoleAdmin
	})).Return(nil)
	producer.On("PublishUserRegistered", mock.Anything, mock.Anything).Return(nil)

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "admin@example.com",
		Name:     "Admin",
		Password: "Password1",
		Role:     domain.RoleAdmin,
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, result.User.Role)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	userRepo.On("Create", mock.Anything, mock.Anything).
		Return(apperrors.AlreadyExists("user", "email", "jane@example.com"))

	result, err := svc.Register(context.Background(), RegisterInput{
		Email:    "jane@example.com",
		Name:     "Jane Doe",
		Password: "Password1",
	})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, apperrors.ErrAlreadyExists))
	producer.AssertNotCalled(t, "PublishUserRegistered", mock.Anything, mock.Anything)
}

func TestAuthService_Register_InvalidInput(t *testing.T) {
	svc := newTestService(&mockUserRepository{}, &mockEventProducer{})

	tests := []struct {
		name  string
		input RegisterInput
	}{
		{"empty email", RegisterInput{Name: "Jane", Password: "Password1"}},
		{"empty name", RegisterInput{Email: "jane@example.com", Password: "Password1"}},
		{"short password", RegisterInput{Email: "jane@example.com", Name: "Jane", Password: "Pw1"}},
		{"unknown role", RegisterInput{Email: "jane@example.com", Name: "Jane", Password: "Password1", Role: "SUPERUSER"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := svc.Register(context.Background(), tt.input)
			require.Error(t, err)
			assert.Nil(t, result)
			assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
		})
	}
}

// ---------------------------------------------------------------------------
// Login
// ---------------------------------------------------------------------------

func TestAuthService_Login_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(user, nil)

	result, err := svc.Login(context.Background(), LoginInput{
		Email:    "Jane@Example.com",
		Password: "Password1",
	})
	require.NoError(t, err)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)
	userRepo.AssertExpectations(t)
}

func TestAuthService_Login_UniformFailureMessage(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	user := hashedUser(t, "Password1")
	userRepo.On("GetByEmail", mock.Anything, "jane@example.com").Return(user, nil)
	userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, apperrors.ErrNotFound)

	_, wrongPassErr := svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "WrongPass1",
	})
	_, unknownEmailErr := svc.Login(context.Background(), LoginInput{
		Email:    "nobody@example.com",
		Password: "Password1",
	})

	require.Error(t, wrongPassErr)
	require.Error(t, unknownEmailErr)
	assert.True(t, errors.Is(wrongPassErr, apperrors.ErrUnauthorized))
	assert.True(t, errors.Is(unknownEmailErr, apperrors.ErrUnauthorized))

	// An attacker must not be able to tell the two failures apart.
	assert.Equal(t, wrongPassErr.Error(), unknownEmailErr.Error())
}

func TestAuthService_Login_StoreOutageIsNotUnauthorized(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	userRepo.On("GetByEmail", mock.Anything, "jane@example.com").
		Return(nil, errors.New("connection refused"))

	_, err := svc.Login(context.Background(), LoginInput{
		Email:    "jane@example.com",
		Password: "Password1",
	})
	require.Error(t, err)

	// A store outage is a dependent failure, not a credential failure.
	assert.False(t, errors.Is(err, apperrors.ErrUnauthorized))
	assert.Contains(t, err.Error(), "connection refused")
}

// ---------------------------------------------------------------------------
// ResolveSession
// ---------------------------------------------------------------------------

func TestAuthService_ResolveSession_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	user := hashedUser(t, "Password1")
	token, err := auth.NewTokenManager(testJWTSecret, 24*time.Hour).Generate(user)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	got, err := svc.ResolveSession(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.Equal(t, user.Role, got.Role)
}

func TestAuthService_ResolveSession_ExpiredToken(t *testing.T) {
	svc := newTestService(&mockUserRepository{}, &mockEventProducer{})

	user := hashedUser(t, "Password1")
	token, err := auth.NewTokenManager(testJWTSecret, -time.Minute).Generate(user)
	require.NoError(t, err)

	got, resolveErr := svc.ResolveSession(context.Background(), token)
	require.Error(t, resolveErr)
	assert.Nil(t, got)

	var appErr *apperrors.AppError
	require.True(t, errors.As(resolveErr, &appErr))
	assert.Equal(t, "TOKEN_EXPIRED", appErr.Code)
	assert.Equal(t, 401, appErr.Status)
}

func TestAuthService_ResolveSession_InvalidToken(t *testing.T) {
	svc := newTestService(&mockUserRepository{}, &mockEventProducer{})

	got, err := svc.ResolveSession(context.Background(), "not-a-token")
	require.Error(t, err)
	assert.Nil(t, got)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))

	var appErr *apperrors.AppError
	require.True(t, errors.As(err, &appErr))
	assert.NotEqual(t, "TOKEN_EXPIRED", appErr.Code)
}

func TestAuthService_ResolveSession_DeletedUser(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	user := hashedUser(t, "Password1")
	token, err := auth.NewTokenManager(testJWTSecret, 24*time.Hour).Generate(user)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.ID).Return(nil, apperrors.ErrNotFound)

	got, resolveErr := svc.ResolveSession(context.Background(), token)
	require.Error(t, resolveErr)
	assert.Nil(t, got)
	assert.True(t, errors.Is(resolveErr, apperrors.ErrUnauthorized))
}

func TestAuthService_ResolveSession_StoreOutageIsNotUnauthorized(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	user := hashedUser(t, "Password1")
	token, err := auth.NewTokenManager(testJWTSecret, 24*time.Hour).Generate(user)
	require.NoError(t, err)

	userRepo.On("GetByID", mock.Anything, user.ID).
		Return(nil, errors.New("connection refused"))

	got, resolveErr := svc.ResolveSession(context.Background(), token)
	require.Error(t, resolveErr)
	assert.Nil(t, got)
	assert.False(t, errors.Is(resolveErr, apperrors.ErrUnauthorized))
	assert.Contains(t, resolveErr.Error(), "connection refused")
}

// ---------------------------------------------------------------------------
// RequestPasswordReset
// ---------------------------------------------------------------------------

func TestAuthService_RequestPasswordReset_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)

	var storedDigest, publishedSecret string
	userRepo.On("SetResetSecret", mock.Anything, user.ID, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { storedDigest = args.String(2) }).
		Return(nil)
	producer.On("PublishPasswordResetRequested", mock.Anything, user, mock.AnythingOfType("string"), mock.AnythingOfType("time.Time")).
		Run(func(args mock.Arguments) { publishedSecret = args.String(2) }).
		Return(nil)

	err := svc.RequestPasswordReset(context.Background(), user.Email)
	require.NoError(t, err)

	// The store receives only the digest; the plaintext goes to the
	// notification pipeline and the two must correspond.
	require.NotEmpty(t, storedDigest)
	require.NotEmpty(t, publishedSecret)
	assert.NotEqual(t, publishedSecret, storedDigest)
	assert.Equal(t, auth.DigestResetSecret(publishedSecret), storedDigest)

	userRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestAuthService_RequestPasswordReset_UnknownEmailSilentlySucceeds(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	userRepo.On("GetByEmail", mock.Anything, "nobody@example.com").Return(nil, apperrors.ErrNotFound)

	err := svc.RequestPasswordReset(context.Background(), "nobody@example.com")
	assert.NoError(t, err)
	userRepo.AssertNotCalled(t, "SetResetSecret", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	producer.AssertNotCalled(t, "PublishPasswordResetRequested", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_RequestPasswordReset_StoreOutagePropagates(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	userRepo.On("GetByEmail", mock.Anything, "jane@example.com").
		Return(nil, errors.New("connection refused"))

	// Only an unknown email gets the silent success; an outage surfaces.
	err := svc.RequestPasswordReset(context.Background(), "jane@example.com")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection refused")
}

func TestAuthService_RequestPasswordReset_PublishFailurePropagates(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	userRepo.On("GetByEmail", mock.Anything, user.Email).Return(user, nil)
	userRepo.On("SetResetSecret", mock.Anything, user.ID, mock.Anything, mock.Anything).Return(nil)
	producer.On("PublishPasswordResetRequested", mock.Anything, user, mock.Anything, mock.Anything).
		Return(errors.New("broker unreachable"))

	err := svc.RequestPasswordReset(context.Background(), user.Email)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}

// ---------------------------------------------------------------------------
// ResetPassword
// ---------------------------------------------------------------------------

func TestAuthService_ResetPassword_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	secret := "a-valid-reset-secret"

	userRepo.On("ConsumeResetSecret", mock.Anything, auth.DigestResetSecret(secret), mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("NewPassword1")) == nil
	})).Return(user, nil)
	producer.On("PublishPasswordChanged", mock.Anything, user).Return(nil)

	result, err := svc.ResetPassword(context.Background(), secret, "NewPassword1")
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, user.ID, result.User.ID)
	assert.NotEmpty(t, result.Token)
	userRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestAuthService_ResetPassword_PublishFailurePropagates(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	userRepo.On("ConsumeResetSecret", mock.Anything, mock.Anything, mock.Anything).Return(user, nil)
	producer.On("PublishPasswordChanged", mock.Anything, user).
		Return(errors.New("broker unreachable"))

	result, err := svc.ResetPassword(context.Background(), "a-valid-reset-secret", "NewPassword1")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestAuthService_ResetPassword_SecretIsSingleUse(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	secret := "a-valid-reset-secret"
	digest := auth.DigestResetSecret(secret)

	// The first consume clears the digest; the second finds no row.
	userRepo.On("ConsumeResetSecret", mock.Anything, digest, mock.Anything).
		Return(user, nil).Once()
	userRepo.On("ConsumeResetSecret", mock.Anything, digest, mock.Anything).
		Return(nil, apperrors.ErrInvalidOrExpired).Once()
	producer.On("PublishPasswordChanged", mock.Anything, user).Return(nil).Once()

	first, err := svc.ResetPassword(context.Background(), secret, "NewPassword1")
	require.NoError(t, err)
	assert.NotEmpty(t, first.Token)

	second, err := svc.ResetPassword(context.Background(), secret, "OtherPassword1")
	require.Error(t, err)
	assert.Nil(t, second)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOrExpired))
	userRepo.AssertExpectations(t)
	producer.AssertExpectations(t)
}

func TestAuthService_ResetPassword_InvalidOrExpiredSecret(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	userRepo.On("ConsumeResetSecret", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, apperrors.ErrInvalidOrExpired)

	result, err := svc.ResetPassword(context.Background(), "stale-secret", "NewPassword1")
	require.Error(t, err)
	assert.Nil(t, result)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOrExpired))
	producer.AssertNotCalled(t, "PublishPasswordChanged", mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword_EmptySecret(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	_, err := svc.ResetPassword(context.Background(), "", "NewPassword1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidOrExpired))
	userRepo.AssertNotCalled(t, "ConsumeResetSecret", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ResetPassword_WeakPassword(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	_, err := svc.ResetPassword(context.Background(), "some-secret", "weak")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
	userRepo.AssertNotCalled(t, "ConsumeResetSecret", mock.Anything, mock.Anything, mock.Anything)
}

// ---------------------------------------------------------------------------
// ChangePassword
// ---------------------------------------------------------------------------

func TestAuthService_ChangePassword_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	userRepo.On("UpdatePassword", mock.Anything, user.ID, mock.MatchedBy(func(hash string) bool {
		return bcrypt.CompareHashAndPassword([]byte(hash), []byte("NewPassword1")) == nil
	})).Return(nil)
	producer.On("PublishPasswordChanged", mock.Anything, user).Return(nil)

	err := svc.ChangePassword(context.Background(), user.ID, "Password1", "NewPassword1")
	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestAuthService_ChangePassword_WrongCurrentPassword(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	user := hashedUser(t, "Password1")
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)

	err := svc.ChangePassword(context.Background(), user.ID, "WrongPass1", "NewPassword1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrUnauthorized))
	userRepo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
}

func TestAuthService_ChangePassword_PublishFailurePropagates(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	userRepo.On("UpdatePassword", mock.Anything, user.ID, mock.Anything).Return(nil)
	producer.On("PublishPasswordChanged", mock.Anything, user).
		Return(errors.New("broker unreachable"))

	err := svc.ChangePassword(context.Background(), user.ID, "Password1", "NewPassword1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unreachable")
}

func TestAuthService_ChangePassword_SamePassword(t *testing.T) {
	svc := newTestService(&mockUserRepository{}, &mockEventProducer{})

	err := svc.ChangePassword(context.Background(), "u-1", "Password1", "Password1")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrInvalidInput))
}

// ---------------------------------------------------------------------------
// User operations
// ---------------------------------------------------------------------------

func TestAuthService_ListUsers(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	users := []domain.User{*hashedUser(t, "Password1")}
	userRepo.On("List", mock.Anything).Return(users, nil)

	got, err := svc.ListUsers(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestAuthService_DeleteUser_Success(t *testing.T) {
	userRepo := &mockUserRepository{}
	producer := &mockEventProducer{}
	svc := newTestService(userRepo, producer)

	user := hashedUser(t, "Password1")
	userRepo.On("GetByID", mock.Anything, user.ID).Return(user, nil)
	userRepo.On("Delete", mock.Anything, user.ID).Return(nil)
	producer.On("PublishUserDeleted", mock.Anything, user).Return(nil)

	err := svc.DeleteUser(context.Background(), user.ID)
	assert.NoError(t, err)
	userRepo.AssertExpectations(t)
}

func TestAuthService_DeleteUser_NotFound(t *testing.T) {
	userRepo := &mockUserRepository{}
	svc := newTestService(userRepo, &mockEventProducer{})

	userRepo.On("GetByID", mock.Anything, "missing").Return(nil, apperrors.ErrNotFound)

	err := svc.DeleteUser(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrNotFound))
	userRepo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}
