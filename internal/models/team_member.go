package models

import "time"

// Role is the role of a user inside a team.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

// Toggle returns the opposite role.
func (r Role) Toggle() Role {
	if r == RoleAdmin {
		return RoleMember
	}
	return RoleAdmin
}

// TeamMember links a user to a team. The auto-increment ID records join order.
type TeamMember struct {
	ID         uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	TeamID     string    `json:"team_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_team_user"`
	UserID     string    `json:"user_id" gorm:"type:varchar(36);not null;uniqueIndex:idx_team_user;index"`
	Role       Role      `json:"role" gorm:"type:varchar(10);not null"`
	IsArchived bool      `json:"is_archived" gorm:"not null"`
	Team       *Team     `json:"team,omitempty" gorm:"foreignKey:TeamID"`
	User       *User     `json:"user,omitempty" gorm:"foreignKey:UserID"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// TableName keeps the historical join table name.
func (TeamMember) TableName() string {
	return "team_has_members"
}

// IsAdmin reports whether the member holds the admin role.
func (m *TeamMember) IsAdmin() bool {
	return m.Role == RoleAdmin
}
