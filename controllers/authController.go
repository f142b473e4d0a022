package controllers

import (
	"errors"
	"time"

	"anime-api-backend/middlewares"
	"anime-api-backend/models"
	"anime-api-backend/utils"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type registerInput struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Password string `json:"password" validate:"required"`
}

type loginInput struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// invalidCredentials is deliberately the same for unknown usernames and
// wrong passwords so the two cases cannot be told apart.
const invalidCredentials = "Invalid username or password"

// Register creates a new account. Any role field in the request body is
// ignored by construction; accounts always start as plain users. The API
// key is generated here so the gateway works right after registration.
func Register(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input registerInput
		if err := middlewares.BindAndValidate(c, &input); err != nil {
			return err
		}

		apiKey, err := utils.GenerateAPIKey()
		if err != nil {
			return internalError(c)
		}

		user := models.User{
			Username: input.Username,
			Role:     models.RoleUser,
			ApiKey:   &apiKey,
		}
		if err := user.SetPassword(input.Password); err != nil {
			return internalError(c)
		}

		// The unique index is the duplicate check; a check-then-create
		// pre-read would leave a race window where a concurrent duplicate
		// surfaces as a 500.
		if err := db.Create(&user).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return c.Status(fiber.StatusConflict).JSON(fiber.Map{
					"success": false,
					"message": "Username already exists",
				})
			}
			return internalError(c)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"message": "User registered successfully",
			"data": fiber.Map{
				"id":       user.Id,
				"username": user.Username,
			},
		})
	}
}

// Login checks credentials, stamps last_login_at and issues a session token.
// Tokens are not stored server-side, so pre-expiry revocation is not
// supported.
func Login(db *gorm.DB, cfg middlewares.JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var input loginInput
		if err := middlewares.BindAndValidate(c, &input); err != nil {
			return err
		}

		var user models.User
		err := db.Where("username = ?", input.Username).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": invalidCredentials,
			})
		}
		if err != nil {
			return internalError(c)
		}

		if err := user.ComparePassword(input.Password); err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"success": false,
				"message": invalidCredentials,
			})
		}

		if err := db.Model(&user).Update("last_login_at", time.Now()).Error; err != nil {
			return internalError(c)
		}

		token, err := middlewares.GenerateToken(cfg, user.Id, user.Role)
		if err != nil {
			return internalError(c)
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": "Login successful",
			"token":   token,
			"user": fiber.Map{
				"userId":   user.Id,
				"username": user.Username,
				"role":     user.Role,
			},
		})
	}
}
