package database

import (
	"fmt"
	"os"

	"anime-api-backend/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

var DB *gorm.DB

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// Connect opens the shared database handle. The dialect is selected with
// DB_DIALECT (mysql or postgres, default mysql).
func Connect() error {
	var (
		dialect  = env("DB_DIALECT", "mysql")
		host     = env("DB_HOST", "localhost")
		user     = os.Getenv("DB_USER")
		password = os.Getenv("DB_PASSWORD")
		name     = os.Getenv("DB_NAME")
	)

	var dialector gorm.Dialector
	switch dialect {
	case "mysql":
		port := env("DB_PORT", "3306")
		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			user, password, host, port, name)
		dialector = mysql.Open(dsn)
	case "postgres":
		port := env("DB_PORT", "5432")
		dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=disable",
			host, user, password, name, port)
		dialector = postgres.Open(dsn)
	default:
		return fmt.Errorf("unsupported DB_DIALECT %q", dialect)
	}

	db, err := gorm.Open(dialector, &gorm.Config{TranslateError: true})
	if err != nil {
		return fmt.Errorf("could not connect to database: %w", err)
	}
	DB = db
	return nil
}

// AutoMigrate creates/updates the users and api_logs tables.
func AutoMigrate() error {
	return DB.AutoMigrate(&models.User{}, &models.ApiLog{})
}
