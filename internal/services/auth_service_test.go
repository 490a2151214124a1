package services_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"teamhub/internal/apperrors"
	"teamhub/internal/events"
	"teamhub/internal/logger"
	"teamhub/internal/models"
	"teamhub/internal/repositories"
	"teamhub/internal/services"

	"github.com/dgrijalva/jwt-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockUserRepository is a mock implementation of repositories.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(user)
	return args.Error(0)
}

func (m *MockUserRepository) user(args mock.Arguments) (*models.User, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return m.user(m.Called(id))
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return m.user(m.Called(username))
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return m.user(m.Called(email))
}

func (m *MockUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return m.user(m.Called(login))
}

func (m *MockUserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return m.user(m.Called(token))
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	return m.Called(user).Error(0)
}

func (m *MockUserRepository) Purge(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	return m.Called(id).Error(0)
}

// mockStore runs transactions inline over a MockUserRepository.
type mockStore struct {
	users *MockUserRepository
}

func (s *mockStore) Users() repositories.UserRepository { return s.users }
func (s *mockStore) Teams() repositories.TeamRepository { return nil }
func (s *mockStore) Transaction(ctx context.Context, fn func(tx repositories.Store) error) error {
	return fn(s)
}

func newAuthService(t *testing.T) (*services.AuthService, repositories.Store, *fakeClock, *recordingBroker) {
	t.Helper()
	store := newStore(t)
	clock := newClock()
	broker := &recordingBroker{}
	publisher := events.NewPublisher(broker, "teamhub", logger.Nop())
	return services.NewAuthService(store, authConfig(clock), publisher, logger.Nop()), store, clock, broker
}

func registerInput(username string) services.RegisterInput {
	return services.RegisterInput{
		FirstName: "Jane",
		LastName:  "Doe",
		Username:  username,
		Email:     username + "@example.com",
		Password:  testPassword,
	}
}

func TestAuthService_RegisterUser(t *testing.T) {
	authService, store, _, broker := newAuthService(t)
	ctx := context.Background()

	result, err := authService.RegisterUser(ctx, registerInput("jane"))
	require.NoError(t, err)
	assert.NotEmpty(t, result.User.ID)
	assert.False(t, result.User.IsActive)
	assert.Len(t, result.VerificationToken, 12)
	assert.NotEqual(t, testPassword, result.User.Password)

	claims, err := authService.ValidateToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims["user_id"])
	assert.Equal(t, false, claims["active"])

	stored, err := store.Users().GetByUsername(ctx, "jane")
	require.NoError(t, err)
	assert.Equal(t, result.VerificationToken, stored.VerificationToken)
	assert.Equal(t, []string{events.UserRegistered}, broker.Keys())

	payloads := broker.Payloads(t, events.UserRegistered)
	require.Len(t, payloads, 1)
	expiresAt, err := time.Parse(time.RFC3339Nano, payloads[0]["expiresAt"].(string))
	require.NoError(t, err)
	assert.WithinDuration(t, result.User.CreatedAt.Add(60*time.Minute), expiresAt, time.Millisecond)
}

func TestAuthService_RegisterUser_Reservation(t *testing.T) {
	t.Run("pending account holds its username", func(t *testing.T) {
		authService, _, clock, _ := newAuthService(t)
		ctx := context.Background()

		_, err := authService.RegisterUser(ctx, registerInput("jane"))
		require.NoError(t, err)

		clock.Advance(59 * time.Minute)
		in := registerInput("jane")
		in.Email = "other@example.com"
		_, err = authService.RegisterUser(ctx, in)
		assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
	})

	t.Run("pending account holds its email", func(t *testing.T) {
		authService, _, _, _ := newAuthService(t)
		ctx := context.Background()

		_, err := authService.RegisterUser(ctx, registerInput("jane"))
		require.NoError(t, err)

		in := registerInput("janet")
		in.Email = "jane@example.com"
		_, err = authService.RegisterUser(ctx, in)
		assert.ErrorIs(t, err, apperrors.ErrEmailTaken)
	})

	t.Run("expired reservation is reclaimed", func(t *testing.T) {
		authService, store, clock, _ := newAuthService(t)
		ctx := context.Background()

		first, err := authService.RegisterUser(ctx, registerInput("jane"))
		require.NoError(t, err)

		clock.Advance(60 * time.Minute)
		second, err := authService.RegisterUser(ctx, registerInput("jane"))
		require.NoError(t, err)
		assert.NotEqual(t, first.User.ID, second.User.ID)

		_, err = store.Users().GetByID(ctx, first.User.ID)
		assert.ErrorIs(t, err, apperrors.ErrUserNotFound)
	})

	t.Run("active account is never reclaimed", func(t *testing.T) {
		authService, store, clock, _ := newAuthService(t)
		seedUser(t, store, "jane")

		clock.Advance(48 * time.Hour)
		_, err := authService.RegisterUser(context.Background(), registerInput("jane"))
		assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
	})

	t.Run("deleted account keeps its username", func(t *testing.T) {
		authService, store, _, _ := newAuthService(t)
		ctx := context.Background()
		user := seedUser(t, store, "jane")
		require.NoError(t, store.Users().Delete(ctx, user.ID))

		_, err := authService.RegisterUser(ctx, registerInput("jane"))
		assert.ErrorIs(t, err, apperrors.ErrUsernameTaken)
	})
}

func TestAuthService_RegisterUser_RepositoryError(t *testing.T) {
	mockRepo := new(MockUserRepository)
	authService := services.NewAuthService(&mockStore{users: mockRepo}, services.AuthConfig{JWTSecret: "test_jwt_secret"}, nil, logger.Nop())

	dbErr := errors.New("connection reset")
	mockRepo.On("GetByUsername", "jane").Return(nil, dbErr).Once()

	_, err := authService.RegisterUser(context.Background(), registerInput("jane"))
	assert.ErrorIs(t, err, dbErr)
	mockRepo.AssertExpectations(t)
	mockRepo.AssertNotCalled(t, "Create", mock.Anything)
}

func TestAuthService_RegisterUser_PurgesExpiredHolder(t *testing.T) {
	mockRepo := new(MockUserRepository)
	clock := newClock()
	authService := services.NewAuthService(&mockStore{users: mockRepo}, authConfig(clock), nil, logger.Nop())

	stale := &models.User{ID: "stale-id", Username: "jane", CreatedAt: clock.Now().Add(-2 * time.Hour)}
	mockRepo.On("GetByUsername", "jane").Return(stale, nil).Once()
	mockRepo.On("Purge", "stale-id").Return(nil).Once()
	mockRepo.On("GetByEmail", "jane@example.com").Return(nil, apperrors.ErrUserNotFound).Once()
	mockRepo.On("Create", mock.AnythingOfType("*models.User")).Return(nil).Once()

	_, err := authService.RegisterUser(context.Background(), registerInput("jane"))
	require.NoError(t, err)
	mockRepo.AssertExpectations(t)
}

func TestAuthService_ActivateUser(t *testing.T) {
	authService, _, _, broker := newAuthService(t)
	ctx := context.Background()

	result, err := authService.RegisterUser(ctx, registerInput("jane"))
	require.NoError(t, err)

	_, err = authService.ActivateUser(ctx, result.User.ID, "wrong-token")
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)

	token, err := authService.ActivateUser(ctx, result.User.ID, result.VerificationToken)
	require.NoError(t, err)
	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, true, claims["active"])

	_, err = authService.ActivateUser(ctx, result.User.ID, result.VerificationToken)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyActive)
	assert.Contains(t, broker.Keys(), events.UserActivated)
}

func TestAuthService_ActivateUser_Expired(t *testing.T) {
	authService, _, clock, _ := newAuthService(t)
	ctx := context.Background()

	result, err := authService.RegisterUser(ctx, registerInput("jane"))
	require.NoError(t, err)

	clock.Advance(61 * time.Minute)
	_, err = authService.ActivateUser(ctx, result.User.ID, result.VerificationToken)
	assert.ErrorIs(t, err, apperrors.ErrTokenExpired)
}

func TestAuthService_LoginUser(t *testing.T) {
	authService, store, _, _ := newAuthService(t)
	ctx := context.Background()
	seedUser(t, store, "alice")
	_, err := authService.RegisterUser(ctx, registerInput("bob"))
	require.NoError(t, err)

	tests := []struct {
		name     string
		login    string
		password string
		wantErr  error
	}{
		{"by username", "alice", testPassword, nil},
		{"by email", "alice@example.com", testPassword, nil},
		{"wrong password", "alice", "wrongpass", apperrors.ErrInvalidCredentials},
		{"unknown user", "nobody", testPassword, apperrors.ErrInvalidCredentials},
		{"inactive account", "bob", testPassword, apperrors.ErrAccountInactive},
		{"inactive account wrong password", "bob", "wrongpass", apperrors.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, user, err := authService.LoginUser(ctx, tt.login, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Empty(t, token)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "alice", user.Username)
			assert.NotEmpty(t, token)
		})
	}
}

func TestAuthService_PasswordReset(t *testing.T) {
	authService, store, clock, broker := newAuthService(t)
	ctx := context.Background()
	user := seedUser(t, store, "alice")

	require.NoError(t, authService.RequestPasswordReset(ctx, "alice@example.com"))
	assert.Contains(t, broker.Keys(), events.UserPasswordResetRequested)

	stored, err := store.Users().GetByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.ResetToken)
	token := *stored.ResetToken

	require.NoError(t, authService.VerifyResetToken(ctx, token))
	assert.ErrorIs(t, authService.VerifyResetToken(ctx, "not-a-token"), apperrors.ErrInvalidToken)

	require.NoError(t, authService.ChangePassword(ctx, token, "newpassword"))
	assert.ErrorIs(t, authService.VerifyResetToken(ctx, token), apperrors.ErrInvalidToken)

	_, _, err = authService.LoginUser(ctx, "alice", testPassword)
	assert.ErrorIs(t, err, apperrors.ErrInvalidCredentials)
	_, _, err = authService.LoginUser(ctx, "alice", "newpassword")
	require.NoError(t, err)

	t.Run("expired reset token", func(t *testing.T) {
		require.NoError(t, authService.RequestPasswordReset(ctx, "alice"))
		stored, err := store.Users().GetByID(ctx, user.ID)
		require.NoError(t, err)

		clock.Advance(time.Hour)
		assert.ErrorIs(t, authService.ChangePassword(ctx, *stored.ResetToken, "another1"), apperrors.ErrTokenExpired)
	})
}

func TestAuthService_RequestPasswordReset_Inactive(t *testing.T) {
	authService, _, _, _ := newAuthService(t)
	ctx := context.Background()
	_, err := authService.RegisterUser(ctx, registerInput("bob"))
	require.NoError(t, err)

	assert.ErrorIs(t, authService.RequestPasswordReset(ctx, "bob"), apperrors.ErrAccountInactive)
	assert.ErrorIs(t, authService.RequestPasswordReset(ctx, "nobody"), apperrors.ErrUserNotFound)
}

func TestAuthService_ValidateToken(t *testing.T) {
	authService, store, _, _ := newAuthService(t)
	seedUser(t, store, "alice")

	token, _, err := authService.LoginUser(context.Background(), "alice", testPassword)
	require.NoError(t, err)

	claims, err := authService.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "alice", claims["username"])

	_, err = authService.ValidateToken("invalid.token.string")
	assert.Error(t, err)

	forged, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "someone",
		"exp":     time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("another_secret"))
	require.NoError(t, err)
	_, err = authService.ValidateToken(forged)
	assert.Error(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte("test_jwt_secret"))
	require.NoError(t, err)
	_, err = authService.ValidateToken(noSubject)
	assert.Error(t, err)

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": "someone",
		"exp":     time.Now().Add(-time.Hour).Unix(),
	}).SignedString([]byte("test_jwt_secret"))
	require.NoError(t, err)
	_, err = authService.ValidateToken(expired)
	assert.Error(t, err)
}
