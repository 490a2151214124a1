package repositories

import (
	"context"
	"errors"
	"fmt"

	"teamhub/internal/apperrors"
	"teamhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GORMUserRepository is a GORM implementation of UserRepository.
type GORMUserRepository struct {
	db *gorm.DB
}

// NewGORMUserRepository creates a new instance of GORMUserRepository.
func NewGORMUserRepository(db *gorm.DB) *GORMUserRepository {
	return &GORMUserRepository{
		db: db,
	}
}

// Create creates a new user in the database.
func (r *GORMUserRepository) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a live user by their ID.
func (r *GORMUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// GetByUsername retrieves a user by their username, deleted or not.
func (r *GORMUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Unscoped(), "username = ?", username)
}

// GetByEmail retrieves a user by their email, deleted or not.
func (r *GORMUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx).Unscoped(), "email = ?", email)
}

// GetByLogin retrieves a live user whose username or email equals login.
func (r *GORMUserRepository) GetByLogin(ctx context.Context, login string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx), "username = ? OR email = ?", login, login)
}

// GetByResetToken retrieves the live user holding a password reset token.
func (r *GORMUserRepository) GetByResetToken(ctx context.Context, token string) (*models.User, error) {
	return r.first(r.db.WithContext(ctx), "reset_token = ?", token)
}

// Update writes every column of user except its creation time.
func (r *GORMUserRepository) Update(ctx context.Context, user *models.User) error {
	res := r.db.WithContext(ctx).Model(user).Select("*").Omit("CreatedAt").Updates(user)
	if res.Error != nil {
		return fmt.Errorf("failed to update user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", user.ID, apperrors.ErrUserNotFound)
	}
	return nil
}

// Purge permanently deletes a user row.
func (r *GORMUserRepository) Purge(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Unscoped().Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to purge user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", id, apperrors.ErrUserNotFound)
	}
	return nil
}

// Delete soft-deletes a user.
func (r *GORMUserRepository) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.User{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete user: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("user with ID %s: %w", id, apperrors.ErrUserNotFound)
	}
	return nil
}

func (r *GORMUserRepository) first(db *gorm.DB, query string, args ...interface{}) (*models.User, error) {
	var user models.User
	if err := db.Where(query, args...).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}
