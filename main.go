package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"anime-api-backend/database"
	"anime-api-backend/jikan"
	"anime-api-backend/middlewares"
	"anime-api-backend/routes"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
)

// envInt reads an int env var with a default fallback.
func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using process environment")
	}

	// ---- Database
	if err := database.Connect(); err != nil {
		log.Fatal(err)
	}
	if err := database.AutoMigrate(); err != nil {
		log.Fatal(err)
	}

	// ---- Auth config (explicit, no ambient globals in the pipeline stages)
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		log.Fatal("JWT_SECRET is required")
	}
	jwtCfg := middlewares.JWTConfig{
		Secret: []byte(secret),
		TTL:    time.Duration(envInt("JWT_EXPIRES_IN_HOURS", 24)) * time.Hour,
	}

	// ---- Upstream client (timeout bounds upstream hangs)
	upstream := jikan.New(
		os.Getenv("JIKAN_BASE_URL"),
		time.Duration(envInt("UPSTREAM_TIMEOUT_SECONDS", 10))*time.Second,
	)

	// ---- Fiber app with global error handler
	app := fiber.New(fiber.Config{
		ErrorHandler: middlewares.ErrorHandler,
	})

	// Panics become 500s; the audit defer in the proxy handlers has already
	// run by the time this catches.
	app.Use(recover.New())
	app.Use(requestid.New(requestid.Config{Generator: uuid.NewString}))
	app.Use(logger.New())

	// ---- CORS
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowCredentials: false, // Bearer tokens and API keys, not cookies
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-API-Key",
	}))

	// ---- Global rate limiter (tune via env)
	rlMax := envInt("RATE_LIMIT_MAX", 60)
	rlWindow := time.Duration(envInt("RATE_LIMIT_WINDOW_SECONDS", 60)) * time.Second
	app.Use(limiter.New(limiter.Config{
		Max:        rlMax,
		Expiration: rlWindow,
	}))

	// ---- Routes
	routes.Register(app, routes.Deps{
		DB:    database.DB,
		JWT:   jwtCfg,
		Jikan: upstream,
	})

	// ---- Start
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	log.Println("API server starting on port", port)
	if err := app.Listen(":" + port); err != nil {
		log.Fatal(err)
	}
}
