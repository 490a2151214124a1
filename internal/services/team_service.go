package services

import (
	"context"
	"errors"
	"fmt"

	"teamhub/internal/apperrors"
	"teamhub/internal/events"
	"teamhub/internal/logger"
	"teamhub/internal/models"
	"teamhub/internal/repositories"
)

const maxCodeAttempts = 5

// TeamCache caches team views by team ID.
type TeamCache interface {
	Get(ctx context.Context, key string) (*models.Team, bool)
	Set(ctx context.Context, key string, value *models.Team)
	Delete(ctx context.Context, key string)
}

// TeamService handles team creation, joining and membership management.
type TeamService struct {
	store   repositories.Store
	cache   TeamCache
	events  *events.Publisher
	log     *logger.Logger
	newCode func() string
}

// TeamOption customises a TeamService.
type TeamOption func(*TeamService)

// WithCodeGenerator replaces the invite code generator.
func WithCodeGenerator(fn func() string) TeamOption {
	return func(s *TeamService) { s.newCode = fn }
}

// NewTeamService creates a new TeamService. cache may be nil.
func NewTeamService(store repositories.Store, cache TeamCache, publisher *events.Publisher, log *logger.Logger, opts ...TeamOption) *TeamService {
	s := &TeamService{
		store:   store,
		cache:   cache,
		events:  publisher,
		log:     log,
		newCode: NewTeamCode,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateTeam creates a team with ownerID as its only member and admin. A
// colliding invite code is regenerated. Deleted accounts cannot own teams.
func (s *TeamService) CreateTeam(ctx context.Context, ownerID, name, description string) (*models.Team, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		team := &models.Team{
			Name:        name,
			Description: description,
			Code:        s.newCode(),
			Members:     1,
			BannerURL:   RandomBannerURL(),
			Color:       RandomColor(),
		}

		err := s.store.Transaction(ctx, func(tx repositories.Store) error {
			if _, err := tx.Users().GetByID(ctx, ownerID); err != nil {
				return err
			}
			teams := tx.Teams()
			exists, err := teams.CodeExists(ctx, team.Code)
			if err != nil {
				return err
			}
			if exists {
				return apperrors.ErrTeamCodeTaken
			}
			if err := teams.Create(ctx, team); err != nil {
				return err
			}
			return teams.AddMember(ctx, &models.TeamMember{
				TeamID: team.ID,
				UserID: ownerID,
				Role:   models.RoleAdmin,
			})
		})
		if errors.Is(err, apperrors.ErrTeamCodeTaken) {
			s.log.Warn("team code collision, regenerating", "code", team.Code, "attempt", attempt+1)
			continue
		}
		if err != nil {
			return nil, err
		}

		s.events.Publish(events.TeamCreated, events.TeamCreatedEvent{
			TeamID:  team.ID,
			Name:    team.Name,
			Code:    team.Code,
			OwnerID: ownerID,
		})
		s.log.WithUser(ownerID).Info("team created", "team_id", team.ID)
		return team, nil
	}
	return nil, apperrors.ErrCodeExhausted
}

// JoinTeam adds userID to the team with the given invite code as a member.
// A token that outlived its account gets ErrUserNotFound.
func (s *TeamService) JoinTeam(ctx context.Context, userID, code string) (*models.Team, error) {
	var team *models.Team
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		if _, err := tx.Users().GetByID(ctx, userID); err != nil {
			return err
		}
		teams := tx.Teams()
		var err error
		team, err = teams.LockByCode(ctx, code)
		if err != nil {
			return err
		}

		_, err = teams.GetMember(ctx, team.ID, userID)
		if err == nil {
			return apperrors.ErrAlreadyMember
		}
		if !errors.Is(err, apperrors.ErrMembershipNotFound) {
			return err
		}

		if err := teams.AddMember(ctx, &models.TeamMember{
			TeamID: team.ID,
			UserID: userID,
			Role:   models.RoleMember,
		}); err != nil {
			return err
		}
		if err := teams.AdjustMembers(ctx, team.ID, 1); err != nil {
			return err
		}
		team.Members++
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, team.ID)
	s.events.Publish(events.TeamMemberJoined, events.TeamMemberEvent{TeamID: team.ID, UserID: userID})
	return team, nil
}

// ListUserTeams returns the user's non-archived memberships.
func (s *TeamService) ListUserTeams(ctx context.Context, userID string) ([]models.TeamMember, error) {
	archived := false
	return s.store.Teams().ListByUser(ctx, userID, &archived)
}

// ListArchivedTeams returns the user's archived memberships.
func (s *TeamService) ListArchivedTeams(ctx context.Context, userID string) ([]models.TeamMember, error) {
	archived := true
	return s.store.Teams().ListByUser(ctx, userID, &archived)
}

// GetTeam returns a team, from the cache when possible.
func (s *TeamService) GetTeam(ctx context.Context, teamID string) (*models.Team, error) {
	if s.cache != nil {
		if team, ok := s.cache.Get(ctx, teamID); ok {
			return team, nil
		}
	}

	team, err := s.store.Teams().GetByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		s.cache.Set(ctx, teamID, team)
	}
	return team, nil
}

// ListMembers returns the roster of a team the user belongs to, in join order.
func (s *TeamService) ListMembers(ctx context.Context, userID, teamID string) ([]models.TeamMember, error) {
	teams := s.store.Teams()
	if _, err := teams.GetMember(ctx, teamID, userID); err != nil {
		return nil, err
	}
	return teams.ListMembers(ctx, teamID)
}

// UpdateTeam changes a team's name and description. Admins only.
func (s *TeamService) UpdateTeam(ctx context.Context, actorID, teamID, name, description string) (*models.Team, error) {
	var team *models.Team
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		teams := tx.Teams()
		var err error
		if team, err = teams.Lock(ctx, teamID); err != nil {
			return err
		}
		if err := requireAdmin(ctx, teams, teamID, actorID); err != nil {
			return err
		}
		if err := teams.UpdateDetails(ctx, teamID, name, description); err != nil {
			return err
		}
		team.Name, team.Description = name, description
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, teamID)
	return team, nil
}

func (s *TeamService) invalidate(ctx context.Context, teamID string) {
	if s.cache != nil {
		s.cache.Delete(ctx, teamID)
	}
}

func requireAdmin(ctx context.Context, teams repositories.TeamRepository, teamID, userID string) error {
	member, err := teams.GetMember(ctx, teamID, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrMembershipNotFound) {
			return fmt.Errorf("user %s is not in team %s: %w", userID, teamID, apperrors.ErrNotTeamAdmin)
		}
		return err
	}
	if !member.IsAdmin() {
		return apperrors.ErrNotTeamAdmin
	}
	return nil
}
