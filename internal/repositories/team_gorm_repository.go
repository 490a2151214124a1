package repositories

import (
	"context"
	"errors"
	"fmt"

	"teamhub/internal/apperrors"
	"teamhub/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GORMTeamRepository is a GORM implementation of TeamRepository.
type GORMTeamRepository struct {
	db *gorm.DB
}

// NewGORMTeamRepository creates a new instance of GORMTeamRepository.
func NewGORMTeamRepository(db *gorm.DB) *GORMTeamRepository {
	return &GORMTeamRepository{
		db: db,
	}
}

// Create creates a new team in the database.
func (r *GORMTeamRepository) Create(ctx context.Context, team *models.Team) error {
	if team.ID == "" {
		team.ID = uuid.New().String()
	}
	if err := r.db.WithContext(ctx).Create(team).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("team code %s: %w", team.Code, apperrors.ErrTeamCodeTaken)
		}
		return fmt.Errorf("failed to create team: %w", err)
	}
	return nil
}

// GetByID retrieves a single team by its ID.
func (r *GORMTeamRepository) GetByID(ctx context.Context, id string) (*models.Team, error) {
	return r.first(r.db.WithContext(ctx), "id = ?", id)
}

// Lock retrieves a team by ID with SELECT ... FOR UPDATE.
func (r *GORMTeamRepository) Lock(ctx context.Context, id string) (*models.Team, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "id = ?", id)
}

// LockByCode retrieves a team by invite code with SELECT ... FOR UPDATE.
func (r *GORMTeamRepository) LockByCode(ctx context.Context, code string) (*models.Team, error) {
	return r.first(r.db.WithContext(ctx).Clauses(clause.Locking{Strength: "UPDATE"}), "code = ?", code)
}

// CodeExists reports whether an invite code is already in use.
func (r *GORMTeamRepository) CodeExists(ctx context.Context, code string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Team{}).Where("code = ?", code).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check team code: %w", err)
	}
	return count > 0, nil
}

// UpdateDetails changes a team's name and description.
func (r *GORMTeamRepository) UpdateDetails(ctx context.Context, id, name, description string) error {
	res := r.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", id).
		Updates(map[string]interface{}{"name": name, "description": description})
	if res.Error != nil {
		return fmt.Errorf("failed to update team: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("team with ID %s: %w", id, apperrors.ErrTeamNotFound)
	}
	return nil
}

// AdjustMembers adds delta to the team's member counter in place.
func (r *GORMTeamRepository) AdjustMembers(ctx context.Context, id string, delta int) error {
	res := r.db.WithContext(ctx).Model(&models.Team{}).Where("id = ?", id).
		Update("members", gorm.Expr("members + ?", delta))
	if res.Error != nil {
		return fmt.Errorf("failed to update member count: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("team with ID %s: %w", id, apperrors.ErrTeamNotFound)
	}
	return nil
}

// Delete deletes a team and any membership rows still pointing at it.
func (r *GORMTeamRepository) Delete(ctx context.Context, id string) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("team_id = ?", id).Delete(&models.TeamMember{}).Error; err != nil {
		return fmt.Errorf("failed to delete team memberships: %w", err)
	}
	res := db.Delete(&models.Team{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete team: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("team with ID %s: %w", id, apperrors.ErrTeamNotFound)
	}
	return nil
}

// AddMember inserts a membership row.
func (r *GORMTeamRepository) AddMember(ctx context.Context, member *models.TeamMember) error {
	if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(member).Error; err != nil {
		return fmt.Errorf("failed to add team member: %w", err)
	}
	return nil
}

// GetMember retrieves the membership of userID in teamID.
func (r *GORMTeamRepository) GetMember(ctx context.Context, teamID, userID string) (*models.TeamMember, error) {
	var member models.TeamMember
	err := r.db.WithContext(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).First(&member).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrMembershipNotFound
		}
		return nil, fmt.Errorf("failed to get team member: %w", err)
	}
	return &member, nil
}

// ListMembers implements TeamRepository.
func (r *GORMTeamRepository) ListMembers(ctx context.Context, teamID string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := r.db.WithContext(ctx).Preload("User").Where("team_id = ?", teamID).Order("id ASC").Find(&members).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list team members: %w", err)
	}
	return members, nil
}

// ListByUser implements TeamRepository.
func (r *GORMTeamRepository) ListByUser(ctx context.Context, userID string, archived *bool) ([]models.TeamMember, error) {
	query := r.db.WithContext(ctx).Preload("Team").Where("user_id = ?", userID)
	if archived != nil {
		query = query.Where("is_archived = ?", *archived)
	}

	var members []models.TeamMember
	if err := query.Order("id ASC").Find(&members).Error; err != nil {
		return nil, fmt.Errorf("failed to list user teams: %w", err)
	}
	return members, nil
}

// UpdateMember saves the role and archive flag of a membership.
func (r *GORMTeamRepository) UpdateMember(ctx context.Context, member *models.TeamMember) error {
	res := r.db.WithContext(ctx).Model(&models.TeamMember{}).Where("id = ?", member.ID).
		Updates(map[string]interface{}{"role": member.Role, "is_archived": member.IsArchived})
	if res.Error != nil {
		return fmt.Errorf("failed to update team member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrMembershipNotFound
	}
	return nil
}

// RemoveMember deletes the membership of userID in teamID.
func (r *GORMTeamRepository) RemoveMember(ctx context.Context, teamID, userID string) error {
	res := r.db.WithContext(ctx).Where("team_id = ? AND user_id = ?", teamID, userID).Delete(&models.TeamMember{})
	if res.Error != nil {
		return fmt.Errorf("failed to remove team member: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperrors.ErrMembershipNotFound
	}
	return nil
}

// CountMembers counts the membership rows of a team.
func (r *GORMTeamRepository) CountMembers(ctx context.Context, teamID string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.TeamMember{}).Where("team_id = ?", teamID).Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count team members: %w", err)
	}
	return count, nil
}

func (r *GORMTeamRepository) first(db *gorm.DB, query string, args ...interface{}) (*models.Team, error) {
	var team models.Team
	if err := db.Where(query, args...).First(&team).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrTeamNotFound
		}
		return nil, fmt.Errorf("failed to get team: %w", err)
	}
	return &team, nil
}
