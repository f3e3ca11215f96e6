package models

import "time"

// User is a login identity. It is also the recipient of notifications.
type User struct {
	ID           uint   `gorm:"primaryKey"`
	Name         string `gorm:"size:255;not null"`
	Email        string `gorm:"size:255;not null;uniqueIndex"`
	PasswordHash string `gorm:"column:password;size:255;not null"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
