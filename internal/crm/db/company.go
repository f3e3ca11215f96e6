package db

import (
	"context"
	"time"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"gorm.io/gorm"
)

const companyResource = "Company"

// employeeSummaryColumns is the employee projection embedded in company listings.
var employeeSummaryColumns = []string{"id", "company_id", "first_name", "last_name", "email"}

func (r *Repository) CreateCompany(ctx context.Context, company *models.Company) error {
	result := r.db.WithContext(ctx).Omit("Employees").Create(company)
	if result.Error != nil {
		return duplicate(result.Error)
	}
	return nil
}

// GetCompany loads a company with all of its employees.
func (r *Repository) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).
		Preload("Employees", func(tx *gorm.DB) *gorm.DB { return tx.Order("id") }).
		First(&company, id)
	if result.Error != nil {
		return nil, notFound(result.Error, companyResource)
	}
	return &company, nil
}

func (r *Repository) GetCompanyByEmail(ctx context.Context, email string) (*models.Company, error) {
	var company models.Company
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&company)
	if result.Error != nil {
		return nil, notFound(result.Error, companyResource)
	}
	return &company, nil
}

// ListCompanies returns companies in insertion order, each with a minimal
// projection of its employees.
func (r *Repository) ListCompanies(ctx context.Context, req pagination.Request) (*pagination.Page[models.Company], error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Company{}).Count(&total).Error; err != nil {
		return nil, err
	}

	companies := make([]models.Company, 0, req.PerPage)
	query := r.db.WithContext(ctx).
		Preload("Employees", func(tx *gorm.DB) *gorm.DB {
			return tx.Select(employeeSummaryColumns).Order("id")
		}).
		Order("id")
	if err := pagination.Apply(query, req).Find(&companies).Error; err != nil {
		return nil, err
	}

	return &pagination.Page[models.Company]{Items: companies, Total: total, Request: req}, nil
}

func (r *Repository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", update.ID).
		Updates(update.Columns())

	if result.Error != nil {
		return duplicate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound(companyResource)
	}
	return nil
}

// DeleteCompany removes the company and its employees in one transaction.
func (r *Repository) DeleteCompany(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("company_id = ?", id).Delete(&models.Employee{}).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.Company{}, id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return e.NotFound(companyResource)
		}
		return nil
	})
}

func (r *Repository) CompanyExists(ctx context.Context, id uint) (bool, error) {
	var count int64
	result := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("id = ?", id).
		Limit(1).
		Count(&count)
	return count > 0, result.Error
}

// CompanyEmailTaken reports whether another company (not exceptID) uses email.
func (r *Repository) CompanyEmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Company{}).Where("email = ?", email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	result := query.Limit(1).Count(&count)
	return count > 0, result.Error
}

func (r *Repository) CountCompanies(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Company{}).Count(&count).Error
	return count, err
}

func (r *Repository) CountCompaniesCreatedSince(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Company{}).
		Where("created_at >= ?", since.UTC()).
		Count(&count).Error
	return count, err
}
