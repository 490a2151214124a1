package handlers

import (
	"teamhub/internal/logger"
	"teamhub/internal/middleware"
	"teamhub/internal/services"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// AuthHandler handles HTTP requests for authentication and account recovery.
type AuthHandler struct {
	authService *services.AuthService
	validate    *validator.Validate
	log         *logger.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService, log *logger.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		validate:    NewValidator(),
		log:         log,
	}
}

// RegisterRoutes registers the authentication routes. authRequired guards
// activation, which is the only route here that needs a bearer token.
func (h *AuthHandler) RegisterRoutes(router fiber.Router, authRequired fiber.Handler) {
	authRoutes := router.Group("/auth")
	authRoutes.Post("/register", h.HandleRegister)
	authRoutes.Post("/login", h.HandleLogin)
	authRoutes.Put("/activate/:token", authRequired, h.HandleActivate)
	authRoutes.Post("/verify", h.HandleVerifyAccount)
	authRoutes.Post("/verifyToken/:token", h.HandleVerifyToken)
	authRoutes.Put("/password", h.HandleChangePassword)
}

// RegisterRequest represents the request body for registration.
type RegisterRequest struct {
	FirstName string `json:"firstName" validate:"required,alphaspace,max=100"`
	LastName  string `json:"lastName" validate:"required,alphaspace,max=100"`
	Username  string `json:"username" validate:"required,min=3,max=100"`
	Email     string `json:"email" validate:"required,min=6,max=255,email"`
	Password  string `json:"password" validate:"required,min=6"`
}

// HandleRegister handles new user registration.
func (h *AuthHandler) HandleRegister(c *fiber.Ctx) error {
	var req RegisterRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	result, err := h.authService.RegisterUser(c.UserContext(), services.RegisterInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
	})
	if err != nil {
		return fail(c, h.log, "register", err)
	}

	return ok(c, fiber.StatusCreated, "User registered successfully", fiber.Map{
		"verification_token": result.VerificationToken,
		"token":              result.AccessToken,
		"user":               result.User,
	})
}

// LoginRequest represents the request body for login. Username may also
// hold an email address.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleLogin handles user login and issues a JWT token.
func (h *AuthHandler) HandleLogin(c *fiber.Ctx) error {
	var req LoginRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	token, user, err := h.authService.LoginUser(c.UserContext(), req.Username, req.Password)
	if err != nil {
		return fail(c, h.log, "login", err)
	}

	return ok(c, fiber.StatusOK, "Login successful", fiber.Map{
		"token": token,
		"user":  user,
	})
}

// HandleActivate activates the caller's account with the verification
// token from the path.
func (h *AuthHandler) HandleActivate(c *fiber.Ctx) error {
	token, err := h.authService.ActivateUser(c.UserContext(), middleware.UserID(c), c.Params("token"))
	if err != nil {
		return fail(c, h.log, "activate", err)
	}
	return ok(c, fiber.StatusOK, "Account activated successfully", fiber.Map{"token": token})
}

// VerifyAccountRequest names the account a password reset is requested for.
type VerifyAccountRequest struct {
	Username string `json:"username" validate:"required"`
}

// HandleVerifyAccount starts a password reset.
func (h *AuthHandler) HandleVerifyAccount(c *fiber.Ctx) error {
	var req VerifyAccountRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	if err := h.authService.RequestPasswordReset(c.UserContext(), req.Username); err != nil {
		return fail(c, h.log, "verify account", err)
	}
	return ok(c, fiber.StatusOK, "Password reset requested", nil)
}

// HandleVerifyToken checks a password reset token.
func (h *AuthHandler) HandleVerifyToken(c *fiber.Ctx) error {
	if err := h.authService.VerifyResetToken(c.UserContext(), c.Params("token")); err != nil {
		return fail(c, h.log, "verify token", err)
	}
	return ok(c, fiber.StatusOK, "Token is valid", nil)
}

// ChangePasswordRequest sets a new password with a reset token.
type ChangePasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6"`
}

// HandleChangePassword completes a password reset.
func (h *AuthHandler) HandleChangePassword(c *fiber.Ctx) error {
	var req ChangePasswordRequest
	if valid, err := parseAndValidate(c, h.validate, &req); !valid {
		return err
	}

	if err := h.authService.ChangePassword(c.UserContext(), req.Token, req.Password); err != nil {
		return fail(c, h.log, "change password", err)
	}
	return ok(c, fiber.StatusOK, "Password changed successfully", nil)
}
