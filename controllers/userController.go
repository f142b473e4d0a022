package controllers

import (
	"errors"

	"anime-api-backend/middlewares"
	"anime-api-backend/models"
	"anime-api-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

func sessionUser(c *fiber.Ctx) (middlewares.AuthUser, bool) {
	user, ok := c.Locals(middlewares.SessionUserKey).(middlewares.AuthUser)
	return user, ok
}

// Me returns the authenticated user's safe projection. The account can
// vanish between token issue and this call, hence the 404 branch.
func Me(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth, ok := sessionUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}

		var user models.User
		if err := db.First(&user, auth.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(c, "User not found")
			}
			return internalError(c)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"id":            user.Id,
				"username":      user.Username,
				"role":          user.Role,
				"last_login_at": user.LastLoginAt,
				"createdAt":     user.CreatedAt,
			},
		})
	}
}

// GetAPIKey returns the caller's gateway key. Accounts without one (created
// before keys were issued at registration) get a key generated on the spot,
// and the response says so explicitly.
func GetAPIKey(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth, ok := sessionUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}

		var user models.User
		if err := db.First(&user, auth.UserID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound(c, "User not found")
			}
			return internalError(c)
		}

		if user.ApiKey == nil {
			apiKey, err := utils.GenerateAPIKey()
			if err != nil {
				return internalError(c)
			}
			if err := db.Model(&user).Update("api_key", apiKey).Error; err != nil {
				return internalError(c)
			}
			return c.JSON(fiber.Map{
				"success": true,
				"data": fiber.Map{
					"api_key": apiKey,
					"message": "API key generated for first time",
				},
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data": fiber.Map{
				"api_key": *user.ApiKey,
			},
		})
	}
}

// RegenerateAPIKey replaces the stored key in a single-row atomic update;
// the old key stops working the moment the update is durable. Concurrent
// rotations by the same user are last-writer-wins.
func RegenerateAPIKey(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		auth, ok := sessionUser(c)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}

		apiKey, err := utils.GenerateAPIKey()
		if err != nil {
			return internalError(c)
		}

		res := db.Model(&models.User{}).Where("id = ?", auth.UserID).Update("api_key", apiKey)
		if res.Error != nil {
			return internalError(c)
		}
		if res.RowsAffected == 0 {
			return notFound(c, "User not found")
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "API key regenerated successfully. Old key is now invalid.",
			"data": fiber.Map{
				"api_key": apiKey,
			},
		})
	}
}
