// Package models contains the domain models of the CRM, mapped to the
// relational store with GORM.
package models

import (
	"time"
)

// Company is the primary entity owning employees and an optional logo.
type Company struct {
	// ID is generated by the database.
	ID uint `gorm:"primaryKey"`
	// Name is the display name of the company.
	Name string `gorm:"size:255;not null"`
	// Email is optional but unique among companies when set.
	Email *string `gorm:"size:255;uniqueIndex"`
	// Website is an optional absolute URL.
	Website *string `gorm:"size:255"`
	// Logo is the relative storage path of the uploaded logo.
	Logo *string `gorm:"size:255"`
	// Employees are removed together with the company.
	Employees []Employee `gorm:"foreignKey:CompanyID;constraint:OnDelete:CASCADE"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasLogo reports whether a logo path is stored for the company.
func (c *Company) HasLogo() bool {
	return c.Logo != nil && *c.Logo != ""
}

// CompanyUpdate represents the fields that can be updated for a Company.
// Pointer types are used to allow partial updates. ClearEmail and ClearWebsite
// set the column to NULL.
type CompanyUpdate struct {
	ID           uint
	Name         *string
	Email        *string
	ClearEmail   bool
	Website      *string
	ClearWebsite bool
	Logo         *string
}

// Columns returns the column map applied by the repository.
func (u *CompanyUpdate) Columns() map[string]interface{} {
	cols := make(map[string]interface{})
	if u.Name != nil {
		cols["name"] = *u.Name
	}
	switch {
	case u.ClearEmail:
		cols["email"] = nil
	case u.Email != nil:
		cols["email"] = *u.Email
	}
	switch {
	case u.ClearWebsite:
		cols["website"] = nil
	case u.Website != nil:
		cols["website"] = *u.Website
	}
	if u.Logo != nil {
		cols["logo"] = *u.Logo
	}
	return cols
}
