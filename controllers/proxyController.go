package controllers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"strconv"
	"time"

	"anime-api-backend/jikan"
	"anime-api-backend/middlewares"
	"anime-api-backend/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// SearchUpstream proxies a keyword search for one content kind. Exactly one
// audit row is written per request that reached this handler, on every exit
// path: success, upstream error, validation failure, transport failure, or
// panic. The deferred writer is armed before anything can fail.
func SearchUpstream(db *gorm.DB, client *jikan.Client, kind jikan.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiUser, ok := c.Locals(middlewares.APIUserKey).(middlewares.APIUser)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}

		statusCode := fiber.StatusInternalServerError
		defer func() {
			logAccess(db, c, apiUser.ID, &statusCode)
		}()

		values := queryValues(c)
		if values.Get("q") == "" {
			statusCode = fiber.StatusBadRequest
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "Query parameter 'q' is required",
			})
		}

		resp, err := client.Search(c.UserContext(), kind, values)
		if err != nil {
			log.Printf("upstream error (%s search): %v", kind, err)
			statusCode = fiber.StatusInternalServerError
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to fetch data from Jikan API",
			})
		}

		statusCode = resp.StatusCode
		return relay(c, resp)
	}
}

// DetailsUpstream proxies a full-detail fetch by id for one content kind,
// with the same audit guarantee as SearchUpstream.
func DetailsUpstream(db *gorm.DB, client *jikan.Client, kind jikan.Kind) fiber.Handler {
	return func(c *fiber.Ctx) error {
		apiUser, ok := c.Locals(middlewares.APIUserKey).(middlewares.APIUser)
		if !ok {
			return fiber.NewError(fiber.StatusUnauthorized, "Authentication required")
		}

		statusCode := fiber.StatusInternalServerError
		defer func() {
			logAccess(db, c, apiUser.ID, &statusCode)
		}()

		id, err := strconv.Atoi(c.Params("id"))
		if err != nil || id <= 0 {
			statusCode = fiber.StatusBadRequest
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": fmt.Sprintf("%s ID must be a positive integer", kind),
			})
		}

		resp, err := client.Details(c.UserContext(), kind, id)
		if err != nil {
			log.Printf("upstream error (%s details): %v", kind, err)
			statusCode = fiber.StatusInternalServerError
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Failed to fetch data from Jikan API",
			})
		}

		statusCode = resp.StatusCode
		return relay(c, resp)
	}
}

// relay forwards the upstream answer. A 2xx payload is passed through
// verbatim as 200; a non-2xx is wrapped, preserving the upstream status code
// and its original error body.
func relay(c *fiber.Ctx, resp *jikan.Response) error {
	if resp.OK() {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.Status(fiber.StatusOK).Send(resp.Body)
	}

	var detail interface{}
	if json.Valid(resp.Body) {
		detail = json.RawMessage(resp.Body)
	} else {
		detail = string(resp.Body)
	}
	return c.Status(resp.StatusCode).JSON(fiber.Map{
		"success": false,
		"message": "Jikan API error",
		"error":   detail,
	})
}

// queryValues collects the raw query string into url.Values, keeping every
// occurrence of a repeated parameter (c.Queries would keep only the last).
func queryValues(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Request().URI().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

// logAccess appends the audit row for one gated request: the API-key user,
// the path with the query string stripped, every query parameter serialized
// (null when none), and the status decided for the branch taken. A failed
// write is logged and swallowed; it never alters the response.
func logAccess(db *gorm.DB, c *fiber.Ctx, userID uint, statusCode *int) {
	var params datatypes.JSON
	if values := queryValues(c); len(values) > 0 {
		obj := make(map[string]interface{}, len(values))
		for k, vs := range values {
			if len(vs) == 1 {
				obj[k] = vs[0]
			} else {
				obj[k] = vs
			}
		}
		if b, err := json.Marshal(obj); err == nil {
			params = b
		}
	}

	entry := models.ApiLog{
		UserId:      userID,
		Endpoint:    c.Path(),
		QueryParams: params,
		StatusCode:  *statusCode,
		Timestamp:   time.Now(),
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("failed to log API access: %v", err)
	}
}
