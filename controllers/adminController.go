package controllers

import (
	"anime-api-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// recentLogLimit caps the admin log listing to keep the join cheap.
const recentLogLimit = 100

// ListUsers returns every registered user, newest first. Password hash and
// API key never leave the server; the projection below is the whole contract.
func ListUsers(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var users []models.User
		err := db.
			Select("id", "username", "role", "last_login_at", "created_at", "updated_at").
			Order("created_at DESC").
			Find(&users).Error
		if err != nil {
			return internalError(c)
		}

		out := make([]fiber.Map, 0, len(users))
		for _, u := range users {
			out = append(out, fiber.Map{
				"id":            u.Id,
				"username":      u.Username,
				"role":          u.Role,
				"last_login_at": u.LastLoginAt,
				"createdAt":     u.CreatedAt,
				"updatedAt":     u.UpdatedAt,
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data":    out,
		})
	}
}

// ListLogs returns the most recent audit rows joined with the originating
// username, newest first.
func ListLogs(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var logs []models.ApiLog
		err := db.
			Preload("User").
			Order("timestamp DESC, id DESC").
			Limit(recentLogLimit).
			Find(&logs).Error
		if err != nil {
			return internalError(c)
		}

		out := make([]fiber.Map, 0, len(logs))
		for _, l := range logs {
			out = append(out, fiber.Map{
				"id":           l.Id,
				"userId":       l.UserId,
				"endpoint":     l.Endpoint,
				"query_params": l.QueryParams,
				"statusCode":   l.StatusCode,
				"timestamp":    l.Timestamp,
				"user": fiber.Map{
					"username": l.User.Username,
				},
			})
		}

		return c.JSON(fiber.Map{
			"success": true,
			"data":    out,
		})
	}
}
