package repositories

import (
	"context"

	"gorm.io/gorm"
)

// Store groups the repositories that share one database connection or
// transaction.
type Store interface {
	Users() UserRepository
	Teams() TeamRepository
	// Transaction runs fn inside a single database transaction. The Store
	// passed to fn is bound to that transaction; fn's error rolls it back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// GORMStore is a GORM implementation of Store.
type GORMStore struct {
	db    *gorm.DB
	users *GORMUserRepository
	teams *GORMTeamRepository
}

// NewGORMStore creates a new GORMStore.
func NewGORMStore(db *gorm.DB) *GORMStore {
	return &GORMStore{
		db:    db,
		users: NewGORMUserRepository(db),
		teams: NewGORMTeamRepository(db),
	}
}

func (s *GORMStore) Users() UserRepository { return s.users }

func (s *GORMStore) Teams() TeamRepository { return s.teams }

// Transaction implements Store.
func (s *GORMStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewGORMStore(tx))
	})
}
