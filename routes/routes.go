package routes

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"anime-api-backend/controllers"
	"anime-api-backend/jikan"
	"anime-api-backend/middlewares"
	"anime-api-backend/models"
)

// Deps holds everything the handlers need, passed in once at startup.
type Deps struct {
	DB    *gorm.DB
	JWT   middlewares.JWTConfig
	Jikan *jikan.Client
}

// Register wires all HTTP routes. Each group is gated by exactly one
// credential scheme: /auth is public, /user and /admin take the session
// token, /api takes the API key.
func Register(app *fiber.App, deps Deps) {
	// Health check
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "OK",
			"message": "Anime API Gateway is running",
		})
	})

	// Public auth endpoints
	auth := app.Group("/auth")
	auth.Post("/register", controllers.Register(deps.DB))
	auth.Post("/login", controllers.Login(deps.DB, deps.JWT))

	// Session-token endpoints
	user := app.Group("/user")
	user.Use(middlewares.SessionAuth(deps.DB, deps.JWT))
	user.Get("/me", controllers.Me(deps.DB))
	user.Get("/api-key", controllers.GetAPIKey(deps.DB))
	user.Post("/api-key/regenerate", controllers.RegenerateAPIKey(deps.DB))

	// Admin endpoints (session token + admin role)
	admin := app.Group("/admin")
	admin.Use(middlewares.SessionAuth(deps.DB, deps.JWT))
	admin.Use(middlewares.RequireRole(models.RoleAdmin))
	admin.Get("/users", controllers.ListUsers(deps.DB))
	admin.Get("/logs", controllers.ListLogs(deps.DB))

	// Gateway endpoints (API key, never the session token)
	api := app.Group("/api")
	api.Use(middlewares.APIKeyAuth(deps.DB))
	api.Get("/anime", controllers.SearchUpstream(deps.DB, deps.Jikan, jikan.KindAnime))
	api.Get("/anime/:id", controllers.DetailsUpstream(deps.DB, deps.Jikan, jikan.KindAnime))
	api.Get("/manga", controllers.SearchUpstream(deps.DB, deps.Jikan, jikan.KindManga))
	api.Get("/manga/:id", controllers.DetailsUpstream(deps.DB, deps.Jikan, jikan.KindManga))
}
