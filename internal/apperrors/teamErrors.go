package apperrors

import "errors"

var (
	ErrTeamNotFound       = errors.New("team not found")
	ErrMembershipNotFound = errors.New("membership not found")
	ErrAlreadyMember      = errors.New("already a member of this team")
	ErrNotTeamAdmin       = errors.New("only team admins can do this")
	ErrLastAdmin          = errors.New("team must keep at least one admin")
	ErrSelfRemoval        = errors.New("admins leave a team instead of removing themselves")
	ErrCodeExhausted      = errors.New("could not generate a unique team code")
	ErrTeamCodeTaken      = errors.New("team code already in use")
)
