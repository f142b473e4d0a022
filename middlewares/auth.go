package middlewares

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"anime-api-backend/models"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

const (
	authHeader   = "Authorization"
	bearerPrefix = "Bearer "
)

// Locals keys for the two identity slots. They are distinct so that the
// session scheme and the API-key scheme can coexist in one process without
// clobbering each other.
const (
	SessionUserKey = "user"
	APIUserKey     = "apiUser"
)

// JWTConfig carries the signing secret and token lifetime, passed in
// explicitly at startup instead of being read from ambient globals.
type JWTConfig struct {
	Secret []byte
	TTL    time.Duration
}

// Claims is the session token payload: subject holds the user id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// AuthUser is the identity SessionAuth attaches for downstream handlers.
type AuthUser struct {
	UserID   uint   `json:"userId"`
	Username string `json:"username"`
	Role     string `json:"role"`
}

// GenerateToken signs a new HS256 session token for the given user.
func GenerateToken(cfg JWTConfig, userID uint, role string) (string, error) {
	if len(cfg.Secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}
	now := time.Now()
	claims := &Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatUint(uint64(userID), 10),
			ExpiresAt: jwt.NewNumericDate(now.Add(cfg.TTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(cfg.Secret)
}

// SessionAuth validates a Bearer token, enforces HS256, re-fetches the user
// and populates c.Locals(SessionUserKey) with an AuthUser. The re-fetch means
// a deleted account invalidates its outstanding tokens even though their
// signatures still verify.
func SessionAuth(db *gorm.DB, cfg JWTConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if len(cfg.Secret) == 0 {
			return internalError(c)
		}

		h := c.Get(authHeader)
		if h == "" || !strings.HasPrefix(h, bearerPrefix) {
			return unauthenticated(c, "Access denied. No token provided.")
		}
		raw := strings.TrimSpace(h[len(bearerPrefix):])
		if raw == "" {
			return unauthenticated(c, "Access denied. No token provided.")
		}

		parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
		var claims Claims
		token, err := parser.ParseWithClaims(raw, &claims, func(t *jwt.Token) (interface{}, error) {
			return cfg.Secret, nil
		})
		if err != nil || !token.Valid {
			if errors.Is(err, jwt.ErrTokenExpired) {
				return unauthenticated(c, "Token has expired. Please login again.")
			}
			return unauthenticated(c, "Invalid token.")
		}

		userID, err := strconv.ParseUint(claims.Subject, 10, 64)
		if err != nil {
			return unauthenticated(c, "Invalid token.")
		}

		var user models.User
		if err := db.First(&user, uint(userID)).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return unauthenticated(c, "User not found. Token is invalid.")
			}
			return internalError(c)
		}

		c.Locals(SessionUserKey, AuthUser{
			UserID:   user.Id,
			Username: user.Username,
			Role:     user.Role,
		})
		return c.Next()
	}
}

func unauthenticated(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
		"success": false,
		"message": message,
	})
}

func internalError(c *fiber.Ctx) error {
	return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
		"success": false,
		"message": "Internal server error",
	})
}
