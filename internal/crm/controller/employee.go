package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"go.uber.org/zap"
)

type EmployeeRepository interface {
	CreateEmployee(ctx context.Context, employee *models.Employee) error
	GetEmployee(ctx context.Context, id uint) (*models.Employee, error)
	ListEmployees(ctx context.Context, req pagination.Request, companyID *uint) (*pagination.Page[models.Employee], error)
	UpdateEmployee(ctx context.Context, update *models.EmployeeUpdate) error
	DeleteEmployee(ctx context.Context, id uint) error
}

type EmployeeValidator interface {
	ValidateEmployeeCreate(ctx context.Context, fields validation.Fields) (*validation.EmployeeInput, error)
	ValidateEmployeeUpdate(ctx context.Context, id uint, fields validation.Fields) (*validation.EmployeeInput, error)
}

type EmployeeService struct {
	repo      EmployeeRepository
	validator EmployeeValidator
	logger    *zap.Logger
}

func NewEmployeeService(repo EmployeeRepository, validator EmployeeValidator, logger *zap.Logger) *EmployeeService {
	return &EmployeeService{
		repo:      repo,
		validator: validator,
		logger:    logger.Named("employee_service"),
	}
}

// ListEmployees returns a page of employees, restricted to companyID when set.
func (s *EmployeeService) ListEmployees(ctx context.Context, req pagination.Request, companyID *uint) (*pagination.Page[models.Employee], error) {
	page, err := s.repo.ListEmployees(ctx, req, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list employees: %w", err)
	}
	return page, nil
}

// CreateEmployee validates and stores an employee and returns it with its company.
func (s *EmployeeService) CreateEmployee(ctx context.Context, fields validation.Fields) (*models.Employee, error) {
	in, err := s.validator.ValidateEmployeeCreate(ctx, fields)
	if err != nil {
		return nil, err
	}

	employee := &models.Employee{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     optional(in.Email),
		Phone:     optional(in.Phone),
		CompanyID: &in.Company,
	}
	if err := s.repo.CreateEmployee(ctx, employee); err != nil {
		if errors.Is(err, e.ErrDuplicateEmail) {
			return nil, employeeEmailTaken()
		}
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	return s.GetEmployee(ctx, employee.ID)
}

func (s *EmployeeService) GetEmployee(ctx context.Context, id uint) (*models.Employee, error) {
	employee, err := s.repo.GetEmployee(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get employee: %w", err)
	}
	return employee, nil
}

func (s *EmployeeService) UpdateEmployee(ctx context.Context, id uint, fields validation.Fields) (*models.Employee, error) {
	if _, err := s.GetEmployee(ctx, id); err != nil {
		return nil, err
	}

	in, err := s.validator.ValidateEmployeeUpdate(ctx, id, fields)
	if err != nil {
		return nil, err
	}

	update := &models.EmployeeUpdate{ID: id}
	if in.Has("first_name") {
		update.FirstName = &in.FirstName
	}
	if in.Has("last_name") {
		update.LastName = &in.LastName
	}
	if in.Has("email") {
		update.Email, update.ClearEmail = optional(in.Email), in.Email == ""
	}
	if in.Has("phone") {
		update.Phone, update.ClearPhone = optional(in.Phone), in.Phone == ""
	}
	if in.Has("company_id") {
		update.CompanyID = &in.Company
	}

	if err := s.repo.UpdateEmployee(ctx, update); err != nil {
		switch {
		case errors.Is(err, e.ErrNotFound):
			return nil, err
		case errors.Is(err, e.ErrDuplicateEmail):
			return nil, employeeEmailTaken()
		}
		return nil, fmt.Errorf("failed to update employee: %w", err)
	}

	return s.GetEmployee(ctx, id)
}

func (s *EmployeeService) DeleteEmployee(ctx context.Context, id uint) error {
	if err := s.repo.DeleteEmployee(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete employee: %w", err)
	}
	return nil
}

func employeeEmailTaken() error {
	return validation.Errors{"email": {"This email address is already in use by another employee."}}
}
