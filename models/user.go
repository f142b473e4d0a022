package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// bcrypt cost factor; 10 balances hashing time against brute-force resistance.
const bcryptCost = 10

type User struct {
	Id          uint       `json:"id" gorm:"primaryKey"`
	Username    string     `json:"username" gorm:"size:50;uniqueIndex;not null"`
	Password    []byte     `json:"-" gorm:"not null"`
	Role        string     `json:"role" gorm:"size:10;not null;default:user"`
	ApiKey      *string    `json:"-" gorm:"size:64;uniqueIndex"`
	LastLoginAt *time.Time `json:"last_login_at"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

func (user *User) SetPassword(password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return err
	}
	user.Password = hashedPassword
	return nil
}

func (user *User) ComparePassword(password string) error {
	return bcrypt.CompareHashAndPassword(user.Password, []byte(password))
}
