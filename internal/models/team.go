package models

import "time"

// Team is a group of users joined through an invite code.
type Team struct {
	ID          string    `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name        string    `json:"name" gorm:"type:varchar(100);not null"`
	Description string    `json:"description" gorm:"type:varchar(500)"`
	Code        string    `json:"code" gorm:"uniqueIndex;type:varchar(6);not null"`
	Members     int       `json:"members" gorm:"not null"` // kept equal to the number of TeamMember rows
	BannerURL   string    `json:"banner_url" gorm:"type:varchar(255);not null"`
	Color       string    `json:"color" gorm:"type:varchar(7)"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}
