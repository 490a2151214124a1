package services

import (
	"context"
	"sort"

	"teamhub/internal/apperrors"
	"teamhub/internal/events"
	"teamhub/internal/models"
	"teamhub/internal/repositories"
)

// DetachResult describes what happened to a team when a member left it.
type DetachResult struct {
	TeamID      string
	UserID      string
	TeamDeleted bool
	// PromotedUserID is the member who inherited the admin role, if any.
	PromotedUserID string
}

// detach removes userID from the locked team. The steps run in a fixed
// order: delete the membership, delete the team if nobody is left,
// otherwise promote the earliest-joined member when no admin remains, and
// finally decrement the member counter.
func detach(ctx context.Context, teams repositories.TeamRepository, teamID, userID string) (*DetachResult, error) {
	member, err := teams.GetMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	if err := teams.RemoveMember(ctx, teamID, userID); err != nil {
		return nil, err
	}

	result := &DetachResult{TeamID: teamID, UserID: userID}

	remaining, err := teams.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if len(remaining) == 0 {
		if err := teams.Delete(ctx, teamID); err != nil {
			return nil, err
		}
		result.TeamDeleted = true
		return result, nil
	}

	if member.IsAdmin() && !hasAdmin(remaining) {
		successor := remaining[0]
		successor.Role = models.RoleAdmin
		if err := teams.UpdateMember(ctx, &successor); err != nil {
			return nil, err
		}
		result.PromotedUserID = successor.UserID
	}

	if err := teams.AdjustMembers(ctx, teamID, -1); err != nil {
		return nil, err
	}
	return result, nil
}

func hasAdmin(members []models.TeamMember) bool {
	for i := range members {
		if members[i].IsAdmin() {
			return true
		}
	}
	return false
}

func countAdmins(members []models.TeamMember) int {
	n := 0
	for i := range members {
		if members[i].IsAdmin() {
			n++
		}
	}
	return n
}

// LeaveTeam removes the user from a team, handing the admin role over and
// deleting the team as needed.
func (s *TeamService) LeaveTeam(ctx context.Context, userID, teamID string) (*DetachResult, error) {
	var result *DetachResult
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		teams := tx.Teams()
		if _, err := teams.Lock(ctx, teamID); err != nil {
			return err
		}
		var err error
		result, err = detach(ctx, teams, teamID, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterDetach(ctx, events.TeamMemberLeft, result)
	return result, nil
}

// RemoveMember lets an admin remove another member. It shares the leave
// path, so succession and orphan cleanup apply here too.
func (s *TeamService) RemoveMember(ctx context.Context, actorID, teamID, targetID string) (*DetachResult, error) {
	if actorID == targetID {
		return nil, apperrors.ErrSelfRemoval
	}

	var result *DetachResult
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		teams := tx.Teams()
		if _, err := teams.Lock(ctx, teamID); err != nil {
			return err
		}
		if err := requireAdmin(ctx, teams, teamID, actorID); err != nil {
			return err
		}
		var err error
		result, err = detach(ctx, teams, teamID, targetID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.afterDetach(ctx, events.TeamMemberRemoved, result)
	return result, nil
}

// ToggleRole flips the target's role between admin and member. The last
// admin of a team cannot be demoted.
func (s *TeamService) ToggleRole(ctx context.Context, actorID, teamID, targetID string) (*models.TeamMember, error) {
	var target *models.TeamMember
	err := s.store.Transaction(ctx, func(tx repositories.Store) error {
		teams := tx.Teams()
		if _, err := teams.Lock(ctx, teamID); err != nil {
			return err
		}
		if err := requireAdmin(ctx, teams, teamID, actorID); err != nil {
			return err
		}

		var err error
		if target, err = teams.GetMember(ctx, teamID, targetID); err != nil {
			return err
		}
		if target.IsAdmin() {
			members, err := teams.ListMembers(ctx, teamID)
			if err != nil {
				return err
			}
			if countAdmins(members) <= 1 {
				return apperrors.ErrLastAdmin
			}
		}

		target.Role = target.Role.Toggle()
		return teams.UpdateMember(ctx, target)
	})
	if err != nil {
		return nil, err
	}

	if target.IsAdmin() {
		s.events.Publish(events.TeamAdminPromoted, events.TeamMemberEvent{TeamID: teamID, UserID: targetID})
	}
	s.log.WithUser(actorID).Audit("team role changed", "team_id", teamID, "target_id", targetID, "role", target.Role)
	return target, nil
}

// ToggleArchive flips the archive flag on the user's own membership.
func (s *TeamService) ToggleArchive(ctx context.Context, userID, teamID string) (*models.TeamMember, error) {
	teams := s.store.Teams()
	member, err := teams.GetMember(ctx, teamID, userID)
	if err != nil {
		return nil, err
	}
	member.IsArchived = !member.IsArchived
	if err := teams.UpdateMember(ctx, member); err != nil {
		return nil, err
	}
	return member, nil
}

// leaveAll detaches userID from every team inside tx.
func leaveAll(ctx context.Context, tx repositories.Store, userID string) ([]*DetachResult, error) {
	teams := tx.Teams()
	memberships, err := teams.ListByUser(ctx, userID, nil)
	if err != nil {
		return nil, err
	}

	// Lock in team order so concurrent account deletions cannot deadlock.
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].TeamID < memberships[j].TeamID
	})

	results := make([]*DetachResult, 0, len(memberships))
	for _, m := range memberships {
		if _, err := teams.Lock(ctx, m.TeamID); err != nil {
			return nil, err
		}
		result, err := detach(ctx, teams, m.TeamID, userID)
		if err != nil {
			return nil, err
		}
		results = append(results, result)
	}
	return results, nil
}

// afterDetach runs the side effects of a committed detach.
func (s *TeamService) afterDetach(ctx context.Context, eventType string, result *DetachResult) {
	s.invalidate(ctx, result.TeamID)
	s.events.Publish(eventType, events.TeamMemberEvent{TeamID: result.TeamID, UserID: result.UserID})

	if result.TeamDeleted {
		s.events.Publish(events.TeamDeleted, events.TeamDeletedEvent{TeamID: result.TeamID})
		s.log.Audit("team deleted after its last member left", "team_id", result.TeamID)
	}
	if result.PromotedUserID != "" {
		s.events.Publish(events.TeamAdminPromoted, events.TeamMemberEvent{TeamID: result.TeamID, UserID: result.PromotedUserID})
		s.log.Audit("admin role handed over", "team_id", result.TeamID, "user_id", result.PromotedUserID)
	}
}
