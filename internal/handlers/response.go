package handlers

import (
	"fmt"
	"regexp"

	"teamhub/internal/apperrors"
	"teamhub/internal/logger"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var alphaSpace = regexp.MustCompile(`^[A-Za-z\s]+$`)

// NewValidator returns a validator with the custom rules request bodies use.
func NewValidator() *validator.Validate {
	v := validator.New()
	// Registering a rule only fails on an empty tag or nil function.
	_ = v.RegisterValidation("alphaspace", func(fl validator.FieldLevel) bool {
		return alphaSpace.MatchString(fl.Field().String())
	})
	return v
}

// parseAndValidate decodes the request body into req and validates it. On
// failure it writes the error response and returns false.
func parseAndValidate(c *fiber.Ctx, v *validator.Validate, req interface{}) (bool, error) {
	if err := c.BodyParser(req); err != nil {
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"type":    "payload",
			"message": "Invalid request body",
		})
	}

	if err := v.Struct(req); err != nil {
		errorMessages := make(map[string]string)
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, e := range validationErrors {
				errorMessages[e.Field()] = fmt.Sprintf("Field '%s' failed on the '%s' tag", e.Field(), e.Tag())
			}
		}
		return false, c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"type":    "payload",
			"message": "Invalid payload",
			"errors":  errorMessages,
		})
	}
	return true, nil
}

var statusByKind = map[apperrors.Kind]int{
	apperrors.KindServer:       fiber.StatusInternalServerError,
	apperrors.KindNotFound:     fiber.StatusNotFound,
	apperrors.KindConflict:     fiber.StatusConflict,
	apperrors.KindUnauthorized: fiber.StatusUnauthorized,
	apperrors.KindForbidden:    fiber.StatusForbidden,
	apperrors.KindGone:         fiber.StatusGone,
}

// fail writes the envelope for a service error. Server errors are logged
// and reported generically.
func fail(c *fiber.Ctx, log *logger.Logger, op string, err error) error {
	kind := apperrors.KindOf(err)
	if kind == apperrors.KindServer {
		log.Error("request failed", "op", op, "path", c.Path(), "error", err)
	}
	return c.Status(statusByKind[kind]).JSON(fiber.Map{
		"success": false,
		"type":    apperrors.Tag(err),
		"message": apperrors.Message(err),
	})
}

// ok writes a successful envelope with payload merged in.
func ok(c *fiber.Ctx, status int, message string, payload fiber.Map) error {
	body := fiber.Map{"success": true, "message": message}
	for k, v := range payload {
		body[k] = v
	}
	return c.Status(status).JSON(body)
}

func guarded(guards []fiber.Handler, handler fiber.Handler) []fiber.Handler {
	chain := make([]fiber.Handler, 0, len(guards)+1)
	chain = append(chain, guards...)
	return append(chain, handler)
}
