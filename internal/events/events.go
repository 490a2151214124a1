package events

import "time"

// Routing keys of the domain events.
const (
	UserRegistered             = "user.registered"
	UserActivated              = "user.activated"
	UserPasswordResetRequested = "user.password_reset_requested"
	UserDeleted                = "user.deleted"

	TeamCreated       = "team.created"
	TeamMemberJoined  = "team.member_joined"
	TeamMemberLeft    = "team.member_left"
	TeamMemberRemoved = "team.member_removed"
	TeamAdminPromoted = "team.admin_promoted"
	TeamDeleted       = "team.deleted"
)

// Event is the envelope of every published message.
type Event struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

type UserRegisteredEvent struct {
	UserID            string `json:"userId"`
	Username          string `json:"username"`
	Email             string `json:"email"`
	VerificationToken string    `json:"verificationToken"`
	ExpiresAt         time.Time `json:"expiresAt"`
}

type UserActivatedEvent struct {
	UserID string `json:"userId"`
}

type PasswordResetRequestedEvent struct {
	UserID     string `json:"userId"`
	Email      string `json:"email"`
	ResetToken string `json:"resetToken"`
}

type UserDeletedEvent struct {
	UserID string `json:"userId"`
}

type TeamCreatedEvent struct {
	TeamID  string `json:"teamId"`
	Name    string `json:"name"`
	Code    string `json:"code"`
	OwnerID string `json:"ownerId"`
}

type TeamMemberEvent struct {
	TeamID string `json:"teamId"`
	UserID string `json:"userId"`
}

type TeamDeletedEvent struct {
	TeamID string `json:"teamId"`
}
