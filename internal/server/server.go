package server

import (
	"time"

	"teamhub/internal/config"
	"teamhub/internal/events"
	"teamhub/internal/handlers"
	"teamhub/internal/logger"
	"teamhub/internal/middleware"
	"teamhub/internal/repositories"
	"teamhub/internal/services"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"gorm.io/gorm"
)

// Deps are the collaborators the HTTP server is built from. Publisher and
// TeamCache are optional.
type Deps struct {
	Config    *config.Config
	DB        *gorm.DB
	Publisher *events.Publisher
	TeamCache services.TeamCache
	Log       *logger.Logger
	// Now overrides the clock of the account services.
	Now func() time.Time
}

// New wires repositories, services and handlers into a fiber app.
func New(deps Deps) *fiber.App {
	store := repositories.NewGORMStore(deps.DB)

	authCfg := services.AuthConfig{
		JWTSecret:         deps.Config.JWTSecret,
		TokenTTL:          deps.Config.TokenTTL,
		ReservationWindow: deps.Config.ReservationWindow,
		Now:               deps.Now,
	}
	authService := services.NewAuthService(store, authCfg, deps.Publisher, deps.Log)
	teamService := services.NewTeamService(store, deps.TeamCache, deps.Publisher, deps.Log)
	accountService := services.NewAccountService(store, teamService, authCfg, deps.Publisher, deps.Log)

	app := fiber.New(fiber.Config{
		AppName:      "teamhub",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	if !deps.Config.IsProduction() {
		app.Use(fiberlogger.New())
	}
	app.Use(cors.New(cors.Config{AllowOrigins: deps.Config.CORSOrigins}))

	app.Get("/health", func(c *fiber.Ctx) error {
		status := "healthy"
		if sqlDB, err := deps.DB.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			status = "degraded"
		}
		return c.Status(fiber.StatusOK).JSON(fiber.Map{
			"status": status,
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	authRequired := middleware.AuthRequired(authService, deps.Log)
	requireActive := middleware.RequireActive()

	handlers.NewAuthHandler(authService, deps.Log).RegisterRoutes(app, authRequired)
	handlers.NewProfileHandler(accountService, deps.Log).RegisterRoutes(app, authRequired, requireActive)
	handlers.NewTeamHandler(teamService, deps.Log).RegisterRoutes(app, authRequired, requireActive)

	return app
}
