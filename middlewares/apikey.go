package middlewares

import (
	"errors"

	"anime-api-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// APIKeyHeader carries the gateway credential, independent of the session
// token scheme.
const APIKeyHeader = "X-API-Key"

// APIUser is the lightweight identity APIKeyAuth attaches under APIUserKey,
// a slot separate from the session identity.
type APIUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// APIKeyAuth validates the X-API-Key header by exact match against the user
// table. Keys are 32 random bytes hex-encoded, so secrecy rather than lookup
// shape is the guard against guessing.
func APIKeyAuth(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiKey := c.Get(APIKeyHeader)
		if apiKey == "" {
			return unauthenticated(c, "Access denied. No API key provided. Include X-API-Key header.")
		}

		var user models.User
		err := db.Where("api_key = ?", apiKey).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"success": false,
				"message": "Access denied. Invalid API key.",
			})
		}
		if err != nil {
			return internalError(c)
		}

		c.Locals(APIUserKey, APIUser{
			ID:       user.Id,
			Username: user.Username,
			Role:     user.Role,
		})
		return c.Next()
	}
}
