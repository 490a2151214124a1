package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"teamhub/internal/apperrors"
	"teamhub/internal/events"
	"teamhub/internal/logger"
	"teamhub/internal/models"
	"teamhub/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

// AuthConfig holds the settings of AuthService.
type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
	// ReservationWindow is how long an unverified account holds its username
	// and email, and how long activation and reset tokens stay valid.
	ReservationWindow time.Duration
	Now               func() time.Time
}

// AuthService handles registration, login, activation and password recovery.
type AuthService struct {
	store     repositories.Store
	jwtSecret []byte
	tokenTTL  time.Duration
	window    time.Duration
	now       func() time.Time
	events    *events.Publisher
	log       *logger.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(store repositories.Store, cfg AuthConfig, publisher *events.Publisher, log *logger.Logger) *AuthService {
	if cfg.TokenTTL == 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	if cfg.ReservationWindow == 0 {
		cfg.ReservationWindow = 60 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AuthService{
		store:     store,
		jwtSecret: []byte(cfg.JWTSecret),
		tokenTTL:  cfg.TokenTTL,
		window:    cfg.ReservationWindow,
		now:       cfg.Now,
		events:    publisher,
		log:       log,
	}
}

// RegisterInput is the data a new account is created from.
type RegisterInput struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
	Password  string
}

// RegisterResult is returned by RegisterUser.
type RegisterResult struct {
	User              *models.User
	VerificationToken string
	// AccessToken is an inactive bearer token the client activates with.
	AccessToken string
}

// RegisterUser creates an inactive account. A username or email held by an
// account whose reservation has expired is reclaimed; any other holder is a
// conflict.
func (s *AuthService) RegisterUser(ctx context.Context, in RegisterInput) (*RegisterResult, error) {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		FirstName:         in.FirstName,
		LastName:          in.LastName,
		Username:          in.Username,
		Email:             in.Email,
		Password:          string(hashedPassword),
		VerificationToken: NewToken(),
		IsActive:          false,
		CreatedAt:         s.now(),
	}

	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		users := tx.Users()
		if err := s.reserve(ctx, users, users.GetByUsername, user.Username, "", apperrors.ErrUsernameTaken); err != nil {
			return err
		}
		if err := s.reserve(ctx, users, users.GetByEmail, user.Email, "", apperrors.ErrEmailTaken); err != nil {
			return err
		}
		return users.Create(ctx, user)
	})
	if err != nil {
		return nil, err
	}

	accessToken, err := s.issueToken(user)
	if err != nil {
		return nil, err
	}

	s.events.Publish(events.UserRegistered, events.UserRegisteredEvent{
		UserID:            user.ID,
		Username:          user.Username,
		Email:             user.Email,
		VerificationToken: user.VerificationToken,
		ExpiresAt:         user.ReservationExpiresAt(s.window),
	})
	s.log.WithUser(user.ID).Info("user registered", "username", user.Username)

	return &RegisterResult{
		User:              user,
		VerificationToken: user.VerificationToken,
		AccessToken:       accessToken,
	}, nil
}

// reserve checks that value, looked up with lookup, is free for ownerID.
// An account whose reservation expired is purged so the value can be reused.
func (s *AuthService) reserve(ctx context.Context, users repositories.UserRepository,
	lookup func(context.Context, string) (*models.User, error), value, ownerID string, taken error) error {
	return reserve(ctx, users, lookup, value, ownerID, taken, s.now(), s.window, s.log)
}

func reserve(ctx context.Context, users repositories.UserRepository,
	lookup func(context.Context, string) (*models.User, error), value, ownerID string, taken error,
	now time.Time, window time.Duration, log *logger.Logger) error {
	existing, err := lookup(ctx, value)
	if errors.Is(err, apperrors.ErrUserNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if existing.ID == ownerID {
		return nil
	}
	if existing.State(now, window) != models.AccountExpired {
		return taken
	}

	if err := users.Purge(ctx, existing.ID); err != nil {
		return fmt.Errorf("failed to reclaim expired reservation: %w", err)
	}
	log.Audit("expired reservation reclaimed", "user_id", existing.ID, "username", existing.Username)
	return nil
}

// LoginUser authenticates by username or email and returns a bearer token.
func (s *AuthService) LoginUser(ctx context.Context, login, password string) (string, *models.User, error) {
	user, err := s.store.Users().GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return "", nil, apperrors.ErrInvalidCredentials
		}
		return "", nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return "", nil, apperrors.ErrInvalidCredentials
	}
	if !user.IsActive {
		return "", nil, apperrors.ErrAccountInactive
	}

	token, err := s.issueToken(user)
	if err != nil {
		return "", nil, err
	}
	return token, user, nil
}

// ActivateUser activates userID's account with its verification token. The
// token is only honoured within the reservation window after registration.
// It returns a fresh bearer token carrying the active claim.
func (s *AuthService) ActivateUser(ctx context.Context, userID, token string) (string, error) {
	var user *models.User
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		var err error
		user, err = tx.Users().GetByID(ctx, userID)
		if err != nil {
			return err
		}
		if user.IsActive {
			return apperrors.ErrAlreadyActive
		}
		if subtle.ConstantTimeCompare([]byte(user.VerificationToken), []byte(token)) != 1 {
			return apperrors.ErrInvalidToken
		}
		if user.State(s.now(), s.window) == models.AccountExpired {
			return apperrors.ErrTokenExpired
		}

		user.IsActive = true
		return tx.Users().Update(ctx, user)
	})
	if err != nil {
		return "", err
	}

	s.events.Publish(events.UserActivated, events.UserActivatedEvent{UserID: user.ID})
	s.log.WithUser(user.ID).Info("user activated")
	return s.issueToken(user)
}

// RequestPasswordReset issues a reset token for the active account named by
// login. The token is delivered through the user.password_reset_requested
// event only.
func (s *AuthService) RequestPasswordReset(ctx context.Context, login string) error {
	users := s.store.Users()
	user, err := users.GetByLogin(ctx, login)
	if err != nil {
		return err
	}
	if !user.IsActive {
		return apperrors.ErrAccountInactive
	}

	token := NewToken()
	requestedAt := s.now()
	user.ResetToken = &token
	user.ResetRequestedAt = &requestedAt
	if err := users.Update(ctx, user); err != nil {
		return err
	}

	s.events.Publish(events.UserPasswordResetRequested, events.PasswordResetRequestedEvent{
		UserID:     user.ID,
		Email:      user.Email,
		ResetToken: token,
	})
	return nil
}

// VerifyResetToken checks that token belongs to an outstanding reset.
func (s *AuthService) VerifyResetToken(ctx context.Context, token string) error {
	_, err := s.userForResetToken(ctx, s.store.Users(), token)
	return err
}

// ChangePassword sets a new password using a reset token and consumes it.
func (s *AuthService) ChangePassword(ctx context.Context, token, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	return s.store.Transaction(ctx, func(tx repositories.Store) error {
		user, err := s.userForResetToken(ctx, tx.Users(), token)
		if err != nil {
			return err
		}
		user.Password = string(hashedPassword)
		user.ResetToken = nil
		user.ResetRequestedAt = nil
		return tx.Users().Update(ctx, user)
	})
}

func (s *AuthService) userForResetToken(ctx context.Context, users repositories.UserRepository, token string) (*models.User, error) {
	user, err := users.GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, apperrors.ErrUserNotFound) {
			return nil, apperrors.ErrInvalidToken
		}
		return nil, err
	}
	if !user.ResetTokenValid(token, s.now(), s.window) {
		return nil, apperrors.ErrTokenExpired
	}
	return user, nil
}

func (s *AuthService) issueToken(user *models.User) (string, error) {
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":  user.ID,
		"username": user.Username,
		"active":   user.IsActive,
		"exp":      now.Add(s.tokenTTL).Unix(),
		"iat":      now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates a JWT token, returning the claims if valid.
func (s *AuthService) ValidateToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		if _, ok := claims["user_id"].(string); !ok {
			return nil, fmt.Errorf("invalid token: missing user_id")
		}
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
