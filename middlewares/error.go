package middlewares

import (
	"log"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

// ErrorHandler centralizes error responses in the uniform
// {success:false, message} envelope and keeps messages sanitized.
func ErrorHandler(c *fiber.Ctx, err error) error {
	// Fiber errors carry their own status code + message.
	if fe, ok := err.(*fiber.Error); ok {
		return c.Status(fe.Code).JSON(fiber.Map{
			"success": false,
			"message": fe.Message,
		})
	}

	// Validation errors: 400 + per-field info.
	if ve, ok := err.(validator.ValidationErrors); ok {
		out := make(map[string]string, len(ve))
		for _, fe := range ve {
			out[fe.Field()] = fe.Tag()
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"success": false,
			"message": "validation failed",
			"errors":  out,
		})
	}

	// Anything else is a 500; details stay in the server log.
	log.Printf("internal error: %v", err)
	return internalError(c)
}

var validate = validator.New()

// BindAndValidate parses the request body into dst and checks its
// constraints. Both failure kinds come back through ErrorHandler above:
// unparseable bodies as a 400 fiber error, violations as the per-field map.
func BindAndValidate(c *fiber.Ctx, dst interface{}) error {
	if err := c.BodyParser(dst); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	return validate.Struct(dst)
}
