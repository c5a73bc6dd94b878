package models

import (
	"time"

	"gorm.io/gorm"
)

// User is an account created on first magic-link or OAuth login.
type User struct {
	gorm.Model
	Email   string `gorm:"unique;not null" json:"email"`
	IsAdmin bool   `gorm:"not null;default:false" json:"isAdmin"`

	LastLoginAt *time.Time `json:"lastLoginAt,omitempty"`
}
