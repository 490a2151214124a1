package repositories

import (
	"context"

	"teamhub/internal/models"
)

// TeamRepository defines the interface for team and membership data access.
type TeamRepository interface {
	Create(ctx context.Context, team *models.Team) error
	GetByID(ctx context.Context, id string) (*models.Team, error)
	// Lock and LockByCode read a team and hold a row lock on it until the
	// surrounding transaction ends.
	Lock(ctx context.Context, id string) (*models.Team, error)
	LockByCode(ctx context.Context, code string) (*models.Team, error)
	CodeExists(ctx context.Context, code string) (bool, error)
	UpdateDetails(ctx context.Context, id, name, description string) error
	AdjustMembers(ctx context.Context, id string, delta int) error
	Delete(ctx context.Context, id string) error

	AddMember(ctx context.Context, member *models.TeamMember) error
	GetMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error)
	// ListMembers returns a team's members in join order with their users.
	ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error)
	// ListByUser returns a user's memberships with their teams. A nil
	// archived lists every membership.
	ListByUser(ctx context.Context, userID string, archived *bool) ([]models.TeamMember, error)
	UpdateMember(ctx context.Context, member *models.TeamMember) error
	RemoveMember(ctx context.Context, teamID, userID string) error
	CountMembers(ctx context.Context, teamID string) (int64, error)
}
