package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// NotificationType tags the kind of persisted notification.
type NotificationType string

const (
	// CompanyCreatedNotification is stored for every recipient of a company creation.
	CompanyCreatedNotification NotificationType = "company_created"
)

// Notification is the persisted (database channel) form of a notification.
type Notification struct {
	ID          uuid.UUID        `gorm:"type:uuid;primaryKey"`
	Type        NotificationType `gorm:"size:100;not null;index"`
	RecipientID uint             `gorm:"not null;index"`
	Data        datatypes.JSON   `gorm:"not null"`
	ReadAt      *time.Time       `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// IsRead reports whether the notification has been marked read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}

// CompanyCreatedData is the payload stored for CompanyCreatedNotification.
type CompanyCreatedData struct {
	CompanyID     uint    `json:"company_id"`
	CompanyName   string  `json:"company_name"`
	CompanyEmail  *string `json:"company_email"`
	CreatedByID   uint    `json:"created_by_id"`
	CreatedByName string  `json:"created_by_name"`
	Action        string  `json:"action"`
	Message       string  `json:"message"`
	CreatedAt     string  `json:"created_at"`
}
