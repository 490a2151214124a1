package apperrors

import (
	"errors"

	"gorm.io/gorm"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindServer Kind = iota
	KindNotFound
	KindConflict
	KindUnauthorized
	KindForbidden
	KindGone
)

var kinds = map[error]Kind{
	ErrUserNotFound:       KindNotFound,
	ErrTeamNotFound:       KindNotFound,
	ErrMembershipNotFound: KindNotFound,
	ErrInvalidToken:       KindNotFound,
	ErrUsernameTaken:      KindConflict,
	ErrEmailTaken:         KindConflict,
	ErrAlreadyActive:      KindConflict,
	ErrAlreadyMember:      KindConflict,
	ErrLastAdmin:          KindConflict,
	ErrSelfRemoval:        KindConflict,
	gorm.ErrDuplicatedKey: KindConflict,
	ErrInvalidCredentials: KindUnauthorized,
	ErrAccountInactive:    KindForbidden,
	ErrNotTeamAdmin:       KindForbidden,
	ErrTokenExpired:       KindGone,
}

// messages replaces the text of sentinels that come from outside the domain.
var messages = map[error]string{
	gorm.ErrDuplicatedKey: "Resource already exists",
}

// KindOf returns the kind of the first known sentinel wrapped by err.
// Unknown errors are server errors.
func KindOf(err error) Kind {
	for sentinel, kind := range kinds {
		if errors.Is(err, sentinel) {
			return kind
		}
	}
	return KindServer
}

// Tag is the short machine-readable type reported to clients.
func Tag(err error) string {
	switch {
	case errors.Is(err, ErrAlreadyMember), errors.Is(err, ErrUsernameTaken),
		errors.Is(err, ErrEmailTaken), errors.Is(err, gorm.ErrDuplicatedKey):
		return "exists"
	case errors.Is(err, ErrLastAdmin):
		return "last_admin"
	case errors.Is(err, ErrAccountInactive):
		return "inactive"
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrInvalidToken):
		return "token"
	}

	switch KindOf(err) {
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindGone:
		return "expired"
	default:
		return "server"
	}
}

// Message returns the client-facing text of err: the message of the known
// sentinel it wraps, or a generic text for server errors.
func Message(err error) string {
	for sentinel := range kinds {
		if errors.Is(err, sentinel) {
			if msg, ok := messages[sentinel]; ok {
				return msg
			}
			return sentinel.Error()
		}
	}
	return "Something went wrong!"
}
