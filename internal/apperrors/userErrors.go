package apperrors

import "errors"

var (
	ErrUserNotFound       = errors.New("user not found")
	ErrUsernameTaken      = errors.New("Username is already taken")
	ErrEmailTaken         = errors.New("Email is already taken")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrAccountInactive    = errors.New("account is not activated")
	ErrAlreadyActive      = errors.New("account is already activated")
	ErrInvalidToken       = errors.New("token is invalid")
	ErrTokenExpired       = errors.New("token has expired")
)
