package models

import (
	"time"

	"gorm.io/gorm"
)

// AccountState is the lifecycle state of a user account, derived at read time.
type AccountState string

const (
	// AccountPending is an unverified account still holding its username
	// and email reservation.
	AccountPending AccountState = "pending"
	// AccountExpired is an unverified account whose reservation has lapsed.
	// Its username and email may be reclaimed by a new registration.
	AccountExpired AccountState = "expired"
	AccountActive  AccountState = "active"
	AccountDeleted AccountState = "deleted"
)

// User represents a registered account.
type User struct {
	ID                string         `json:"id" gorm:"primaryKey;type:varchar(36)"`
	FirstName         string         `json:"first_name" gorm:"type:varchar(100);not null"`
	LastName          string         `json:"last_name" gorm:"type:varchar(100);not null"`
	Username          string         `json:"username" gorm:"uniqueIndex;type:varchar(100);not null"`
	Email             string         `json:"email" gorm:"uniqueIndex;type:varchar(255);not null"`
	Password          string         `json:"-" gorm:"type:varchar(255);not null"` // bcrypt hash
	VerificationToken string         `json:"-" gorm:"type:varchar(32);not null"`
	IsActive          bool           `json:"is_active" gorm:"not null"`
	ResetToken        *string        `json:"-" gorm:"type:varchar(32);index"`
	ResetRequestedAt  *time.Time     `json:"-"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
	DeletedAt         gorm.DeletedAt `json:"-" gorm:"index"`
}

// State derives the account state at now. window is how long an unverified
// account keeps its reservation.
func (u *User) State(now time.Time, window time.Duration) AccountState {
	switch {
	case u.DeletedAt.Valid:
		return AccountDeleted
	case u.IsActive:
		return AccountActive
	case now.Sub(u.CreatedAt) >= window:
		return AccountExpired
	default:
		return AccountPending
	}
}

// ReservationExpiresAt is the moment an unverified account stops holding its
// username and email.
func (u *User) ReservationExpiresAt(window time.Duration) time.Time {
	return u.CreatedAt.Add(window)
}

// ResetTokenValid reports whether token matches an outstanding password reset
// that is younger than window.
func (u *User) ResetTokenValid(token string, now time.Time, window time.Duration) bool {
	if u.ResetToken == nil || *u.ResetToken != token || u.ResetRequestedAt == nil {
		return false
	}
	return now.Sub(*u.ResetRequestedAt) < window
}
