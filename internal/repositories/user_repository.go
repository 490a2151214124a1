package repositories

import (
	"context"

	"teamhub/internal/models"
)

// UserRepository defines the interface for user data access.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	// GetByUsername and GetByEmail include soft-deleted accounts: a deleted
	// account keeps its username and email.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	// GetByLogin finds a live account by username or email.
	GetByLogin(ctx context.Context, login string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	// Purge removes the row for good; used to reclaim expired reservations.
	Purge(ctx context.Context, id string) error
	Delete(ctx context.Context, id string) error
}
