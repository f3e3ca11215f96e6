package models

import (
	"strings"
	"time"
)

// Employee is a person record optionally associated with one company.
type Employee struct {
	ID        uint     `gorm:"primaryKey"`
	FirstName string   `gorm:"size:50;not null"`
	LastName  string   `gorm:"size:50;not null"`
	Email     *string  `gorm:"size:255;uniqueIndex"`
	Phone     *string  `gorm:"size:20"`
	CompanyID *uint    `gorm:"index"`
	Company   *Company `gorm:"foreignKey:CompanyID"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// FullName joins first and last name.
func FullName(firstName, lastName string) string {
	return strings.TrimSpace(firstName + " " + lastName)
}

// EmployeeUpdate carries a partial employee update.
type EmployeeUpdate struct {
	ID         uint
	FirstName  *string
	LastName   *string
	Email      *string
	ClearEmail bool
	Phone      *string
	ClearPhone bool
	CompanyID  *uint
}

// Columns returns the column map applied by the repository.
func (u *EmployeeUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.FirstName != nil {
		cols["first_name"] = *u.FirstName
	}
	if u.LastName != nil {
		cols["last_name"] = *u.LastName
	}
	switch {
	case u.ClearEmail:
		cols["email"] = nil
	case u.Email != nil:
		cols["email"] = *u.Email
	}
	switch {
	case u.ClearPhone:
		cols["phone"] = nil
	case u.Phone != nil:
		cols["phone"] = *u.Phone
	}
	if u.CompanyID != nil {
		cols["company_id"] = *u.CompanyID
	}
	return cols
}
