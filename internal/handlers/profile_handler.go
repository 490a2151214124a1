package handlers

import (
	"teamhub/internal/logger"
	"teamhub/internal/middleware"
	"teamhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ProfileHandler handles the authenticated account routes.
type ProfileHandler struct {
	accountService *services.AccountService
	validate       *validator.Validate
	log            *logger.Logger
}

// NewProfileHandler creates a new ProfileHandler.
func NewProfileHandler(accountService *services.AccountService, log *logger.Logger) *ProfileHandler {
	return &ProfileHandler{
		accountService: accountService,
		validate:       NewValidator(),
		log:            log,
	}
}

// RegisterRoutes registers the profile routes under /auth. The guards are
// attached per route since /auth also serves the public routes.
func (h *ProfileHandler) RegisterRoutes(router fiber.Router, guards ...fiber.Handler) {
	profileRoutes := router.Group("/auth")
	profileRoutes.Get("/profile", guarded(guards, h.HandleGetProfile)...)
	profileRoutes.Put("/updateProfile", guarded(guards, h.HandleUpdateProfile)...)
	profileRoutes.Put("/resetPassword", guarded(guards, h.HandleResetPassword)...)
	profileRoutes.Post("/deleteAccount", guarded(guards, h.HandleDeleteAccount)...)
}

// HandleGetProfile returns the caller's profile.
func (h *ProfileHandler) HandleGetProfile(c *fiber.Ctx) error {
	user, err := h.accountService.GetProfile(c.UserContext(), middleware.UserID(c))
	if err != nil {
		return fail(c, h.log, "get profile", err)
	}
	return ok(c, fiber.StatusOK, "Profile fetched successfully", fiber.Map{"user": user})
}

// UpdateProfileRequest holds the profile fields to change.
type UpdateProfileRequest struct {
	FirstName string `json:"firstName" validate:"omitempty,alphaspace,max=100"`
	LastName  string `json:"lastName" validate:"omitempty,alphaspace,max=100"`
	Username  string `json:"username" validate:"omitempty,min=3,max=100"`
	Email     string `json:"email" validate:"omitempty,min=6,max=255,email"`
}

// HandleUpdateProfile changes the caller's profile.
func (h *ProfileHandler) HandleUpdateProfile(c *fiber.Ctx) error {
	var req UpdateProfileRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	user, err := h.accountService.UpdateProfile(c.UserContext(), middleware.UserID(c), services.ProfileUpdate{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
	})
	if err != nil {
		return fail(c, h.log, "update profile", err)
	}
	return ok(c, fiber.StatusOK, "Profile updated successfully", fiber.Map{"user": user})
}

// ResetPasswordRequest changes the password of a signed-in user.
type ResetPasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6"`
}

// HandleResetPassword changes the caller's password.
func (h *ProfileHandler) HandleResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	if err := h.accountService.ResetPassword(c.UserContext(), middleware.UserID(c), req.OldPassword, req.NewPassword); err != nil {
		return fail(c, h.log, "reset password", err)
	}
	return ok(c, fiber.StatusOK, "Password updated successfully", nil)
}

// DeleteAccountRequest confirms account deletion with the password.
type DeleteAccountRequest struct {
	Password string `json:"password" validate:"required"`
}

// HandleDeleteAccount deletes the caller's account.
func (h *ProfileHandler) HandleDeleteAccount(c *fiber.Ctx) error {
	var req DeleteAccountRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	if err := h.accountService.DeleteAccount(c.UserContext(), middleware.UserID(c), req.Password); err != nil {
		return fail(c, h.log, "delete account", err)
	}
	return ok(c, fiber.StatusOK, "Account deleted successfully", nil)
}
