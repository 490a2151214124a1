package services

import (
	"context"
	"fmt"
	"time"

	"teamhub/internal/apperrors"
	"teamhub/internal/events"
	"teamhub/internal/logger"
	"teamhub/internal/models"
	"teamhub/internal/repositories"

	"golang.org/x/crypto/bcrypt"
)

// AccountService handles the profile of an authenticated user.
type AccountService struct {
	store  repositories.Store
	teams  *TeamService
	window time.Duration
	now    func() time.Time
	events *events.Publisher
	log    *logger.Logger
}

// NewAccountService creates a new AccountService. window and now follow
// AuthConfig.
func NewAccountService(store repositories.Store, teams *TeamService, cfg AuthConfig, publisher *events.Publisher, log *logger.Logger) *AccountService {
	if cfg.ReservationWindow == 0 {
		cfg.ReservationWindow = 60 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &AccountService{
		store:  store,
		teams:  teams,
		window: cfg.ReservationWindow,
		now:    cfg.Now,
		events: publisher,
		log:    log,
	}
}

// ProfileUpdate holds the profile fields to change; empty fields are kept.
type ProfileUpdate struct {
	FirstName string
	LastName  string
	Username  string
	Email     string
}

// GetProfile returns the user's account.
func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.Users().GetByID(ctx, userID)
}

// UpdateProfile applies upd. A new username or email goes through the same
// reservation check as registration.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	var user *models.User
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		users := tx.Users()
		var err error
		if user, err = users.GetByID(ctx, userID); err != nil {
			return err
		}

		if upd.Username != "" && upd.Username != user.Username {
			if err := reserve(ctx, users, users.GetByUsername, upd.Username, user.ID, apperrors.ErrUsernameTaken, s.now(), s.window, s.log); err != nil {
				return err
			}
			user.Username = upd.Username
		}
		if upd.Email != "" && upd.Email != user.Email {
			if err := reserve(ctx, users, users.GetByEmail, upd.Email, user.ID, apperrors.ErrEmailTaken, s.now(), s.window, s.log); err != nil {
				return err
			}
			user.Email = upd.Email
		}
		if upd.FirstName != "" {
			user.FirstName = upd.FirstName
		}
		if upd.LastName != "" {
			user.LastName = upd.LastName
		}
		return users.Update(ctx, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// ResetPassword changes the password of an authenticated user.
func (s *AccountService) ResetPassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	users := s.store.Users()
	user, err := users.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.Password = string(hashedPassword)
	return users.Update(ctx, user)
}

// DeleteAccount confirms the password, makes the user leave every team and
// soft-deletes the account, all in one transaction.
func (s *AccountService) DeleteAccount(ctx context.Context, userID, password string) error {
	user, err := s.store.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return apperrors.ErrInvalidCredentials
	}

	var results []*DetachResult
	err = s.store.Transaction(ctx, func(tx repositories.Store) error {
		var err error
		if results, err = leaveAll(ctx, tx, userID); err != nil {
			return err
		}
		return tx.Users().Delete(ctx, userID)
	})
	if err != nil {
		return err
	}

	for _, result := range results {
		s.teams.afterDetach(ctx, events.TeamMemberLeft, result)
	}
	s.events.Publish(events.UserDeleted, events.UserDeletedEvent{UserID: userID})
	s.log.WithUser(userID).Audit("account deleted", "teams_left", len(results))
	return nil
}
