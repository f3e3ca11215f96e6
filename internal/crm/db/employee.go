package db

import (
	"context"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"gorm.io/gorm"
)

const employeeResource = "Employee"

// companySummaryColumns is the company projection embedded in employee listings.
var companySummaryColumns = []string{"id", "name", "email"}

func (r *Repository) CreateEmployee(ctx context.Context, employee *models.Employee) error {
	result := r.db.WithContext(ctx).Omit("Company").Create(employee)
	if result.Error != nil {
		return duplicate(result.Error)
	}
	return nil
}

// GetEmployee loads an employee with its full company relation.
func (r *Repository) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).Preload("Company").First(&employee, id)
	if result.Error != nil {
		return nil, notFound(result.Error, employeeResource)
	}
	return &employee, nil
}

func (r *Repository) GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error) {
	var employee models.Employee
	result := r.db.WithContext(ctx).Where("email = ?", email).First(&employee)
	if result.Error != nil {
		return nil, notFound(result.Error, employeeResource)
	}
	return &employee, nil
}

// ListEmployees returns employees in insertion order, optionally restricted
// to one company, each with a minimal projection of its company.
func (r *Repository) ListEmployees(ctx context.Context, req pagination.Request, companyID *uint) (*pagination.Page[models.Employee], error) {
	scoped := func() *gorm.DB {
		query := r.db.WithContext(ctx).Model(&models.Employee{})
		if companyID != nil {
			query = query.Where("company_id = ?", *companyID)
		}
		return query
	}

	var total int64
	if err := scoped().Count(&total).Error; err != nil {
		return nil, err
	}

	employees := make([]models.Employee, 0, req.PerPage)
	query := scoped().
		Preload("Company", func(tx *gorm.DB) *gorm.DB {
			return tx.Select(companySummaryColumns)
		}).
		Order("id")
	if err := pagination.Apply(query, req).Find(&employees).Error; err != nil {
		return nil, err
	}

	return &pagination.Page[models.Employee]{Items: employees, Total: total, Request: req}, nil
}

func (r *Repository) UpdateEmployee(ctx context.Context, update *models.EmployeeUpdate) error {
	result := r.db.WithContext(ctx).Model(&models.Employee{}).
		Where("id = ?", update.ID).
		Updates(update.Columns())

	if result.Error != nil {
		return duplicate(result.Error)
	}
	if result.RowsAffected == 0 {
		return e.NotFound(employeeResource)
	}
	return nil
}

func (r *Repository) DeleteEmployee(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&models.Employee{}, id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return e.NotFound(employeeResource)
	}
	return nil
}

// EmployeeEmailTaken reports whether another employee (not exceptID) uses email.
func (r *Repository) EmployeeEmailTaken(ctx context.Context, email string, exceptID uint) (bool, error) {
	var count int64
	query := r.db.WithContext(ctx).Model(&models.Employee{}).Where("email = ?", email)
	if exceptID != 0 {
		query = query.Where("id <> ?", exceptID)
	}
	result := query.Limit(1).Count(&count)
	return count > 0, result.Error
}

func (r *Repository) CountEmployees(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Employee{}).Count(&count).Error
	return count, err
}
