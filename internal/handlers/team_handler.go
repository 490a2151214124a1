package handlers

import (
	"teamhub/internal/logger"
	"teamhub/internal/middleware"
	"teamhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// TeamHandler handles HTTP requests for teams and memberships.
type TeamHandler struct {
	teamService *services.TeamService
	validate    *validator.Validate
	log         *logger.Logger
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teamService *services.TeamService, log *logger.Logger) *TeamHandler {
	return &TeamHandler{
		teamService: teamService,
		validate:    NewValidator(),
		log:         log,
	}
}

// RegisterRoutes registers the team routes behind guards. GET /:id is
// registered last so it does not shadow the static routes.
func (h *TeamHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	teamRoutes := router.Group("/team", guards...)
	teamRoutes.Post("/create", h.HandleCreateTeam)
	teamRoutes.Post("/join", h.HandleJoinTeam)
	teamRoutes.Get("/userTeams", h.HandleUserTeams)
	teamRoutes.Get("/archivedTeams", h.HandleArchivedTeams)
	teamRoutes.Get("/members/:id", h.HandleListMembers)
	teamRoutes.Put("/update/:id", h.HandleUpdateTeam)
	teamRoutes.Put("/archive/:id", h.HandleToggleArchive)
	teamRoutes.Put("/role/:id", h.HandleToggleRole)
	teamRoutes.Delete("/leave/:id", h.HandleLeaveTeam)
	teamRoutes.Delete("/removeMember/:id", h.HandleRemoveMember)
	teamRoutes.Get("/:id", h.HandleGetTeam)
}

// CreateTeamRequest represents the request body for team creation.
type CreateTeamRequest struct {
	TeamName        string `json:"teamName" validate:"required,max=100"`
	TeamDescription string `json:"teamDescription" validate:"max=500"`
}

// HandleCreateTeam creates a team with the caller as admin.
func (h *TeamHandler) HandleCreateTeam(c *fiber.Ctx) error {
	var req CreateTeamRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	team, err := h.teamService.CreateTeam(c.UserContext(), middleware.UserID(c), req.TeamName, req.TeamDescription)
	if err != nil {
		return fail(c, h.log, "create team", err)
	}
	return ok(c, fiber.StatusCreated, "Team is created successfully", fiber.Map{"team": team})
}

// JoinTeamRequest represents the request body for joining by code.
type JoinTeamRequest struct {
	TeamCode string `json:"teamCode" validate:"required,len=6,alphanum"`
}

// HandleJoinTeam adds the caller to the team with the given code.
func (h *TeamHandler) HandleJoinTeam(c *fiber.Ctx) error {
	var req JoinTeamRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	team, err := h.teamService.JoinTeam(c.UserContext(), middleware.UserID(c), req.TeamCode)
	if err != nil {
		return fail(c, h.log, "join team", err)
	}
	return ok(c, fiber.StatusOK, "User has joined successfully", fiber.Map{"team": team})
}

// HandleUserTeams lists the caller's non-archived teams.
func (h *TeamHandler) HandleUserTeams(c *fiber.Ctx) error {
	teams, err := h.teamService.ListUserTeams(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, "user teams", err)
	}
	return ok(c, fiber.StatusOK, "Teams fetched successfully", fiber.Map{"userTeams": teams})
}

// HandleArchivedTeams lists the caller's archived teams.
func (h *TeamHandler) HandleArchivedTeams(c *fiber.Ctx) error {
	teams, err := h.teamService.ListArchivedTeams(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, "archived teams", err)
	}
	return ok(c, fiber.StatusOK, "Archived teams fetched successfully", fiber.Map{"archivedTeams": teams})
}

// HandleGetTeam returns a single team.
func (h *TeamHandler) HandleGetTeam(c *fiber.Ctx) error {
	team, err := h.teamService.GetTeam(c.UserContext(), c.Params("id"))
	if err != nil {
		return fail(c, h.log, "get team", err)
	}
	return ok(c, fiber.StatusOK, "Team fetched successfully", fiber.Map{"teamData": team})
}

// HandleListMembers returns the roster of a team the caller belongs to.
func (h *TeamHandler) HandleListMembers(c *fiber.Ctx) error {
	members, err := h.teamService.ListMembers(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, h.log, "list members", err)
	}
	return ok(c, fiber.StatusOK, "Members fetched successfully", fiber.Map{"members": members})
}

// UpdateTeamRequest represents the request body for team updates.
type UpdateTeamRequest struct {
	TeamName        string `json:"teamName" validate:"required,max=100"`
	TeamDescription string `json:"teamDescription" validate:"max=500"`
}

// HandleUpdateTeam renames a team.
func (h *TeamHandler) HandleUpdateTeam(c *fiber.Ctx) error {
	var req UpdateTeamRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	team, err := h.teamService.UpdateTeam(c.UserContext(), middleware.UserID(c), c.Params("id"), req.TeamName, req.TeamDescription)
	if err != nil {
		return fail(c, h.log, "update team", err)
	}
	return ok(c, fiber.StatusOK, "Team updated successfully", fiber.Map{"team": team})
}

// HandleToggleArchive flips the caller's archive flag for a team.
func (h *TeamHandler) HandleToggleArchive(c *fiber.Ctx) error {
	member, err := h.teamService.ToggleArchive(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, h.log, "toggle archive", err)
	}
	message := "Team unarchived successfully"
	if member.IsArchived {
		message = "Team archived successfully"
	}
	return ok(c, fiber.StatusOK, message, fiber.Map{"membership": member})
}

// MemberRequest names the member an admin acts on.
type MemberRequest struct {
	UserID string `json:"userId" validate:"required"`
}

// HandleToggleRole flips a member's role.
func (h *TeamHandler) HandleToggleRole(c *fiber.Ctx) error {
	var req MemberRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	member, err := h.teamService.ToggleRole(c.UserContext(), middleware.UserID(c), c.Params("id"), req.UserID)
	if err != nil {
		return fail(c, h.log, "toggle role", err)
	}
	return ok(c, fiber.StatusOK, "Role updated successfully", fiber.Map{"membership": member})
}

// HandleLeaveTeam removes the caller from a team.
func (h *TeamHandler) HandleLeaveTeam(c *fiber.Ctx) error {
	result, err := h.teamService.LeaveTeam(c.UserContext(), middleware.UserID(c), c.Params("id"))
	if err != nil {
		return fail(c, h.log, "leave team", err)
	}
	return ok(c, fiber.StatusOK, "You have left the team", detachPayload(result))
}

// HandleRemoveMember lets an admin remove a member.
func (h *TeamHandler) HandleRemoveMember(c *fiber.Ctx) error {
	var req MemberRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	result, err := h.teamService.RemoveMember(c.UserContext(), middleware.UserID(c), c.Params("id"), req.UserID)
	if err != nil {
		return fail(c, h.log, "remove member", err)
	}
	return ok(c, fiber.StatusOK, "Member removed successfully", detachPayload(result))
}

func detachPayload(result *services.DetachResult) fiber.Map {
	payload := fiber.Map{"teamDeleted": result.TeamDeleted}
	if result.PromotedUserID != "" {
		payload["promotedUserId"] = result.PromotedUserID
	}
	return payload
}
