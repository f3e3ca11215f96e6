// Package controller implements the business operations behind the API:
// it orchestrates validation, storage, logo uploads and domain events.
package controller

import (
	"context"
	"errors"
	"fmt"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/events"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"github.com/gartstein/minicrm/internal/crm/upload"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"go.uber.org/zap"
)

// CompanyRepository defines the storage interface for Company objects.
type CompanyRepository interface {
	CreateCompany(ctx context.Context, company *models.Company) error
	GetCompany(ctx context.Context, id uint) (*models.Company, error)
	ListCompanies(ctx context.Context, req pagination.Request) (*pagination.Page[models.Company], error)
	UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error
	DeleteCompany(ctx context.Context, id uint) error
}

type CompanyValidator interface {
	ValidateCompanyCreate(ctx context.Context, fields validation.Fields, logo *upload.File) (*validation.CompanyInput, error)
	ValidateCompanyUpdate(ctx context.Context, id uint, fields validation.Fields, logo *upload.File) (*validation.CompanyInput, error)
}

type Uploader interface {
	UploadLogo(ctx context.Context, file *upload.File, previousPath string) (string, error)
	DeleteFile(ctx context.Context, path string) (bool, error)
}

// CompanyService manages companies and announces new ones.
type CompanyService struct {
	repo      CompanyRepository
	validator CompanyValidator
	uploader  Uploader
	publisher events.Publisher
	logger    *zap.Logger
}

func NewCompanyService(repo CompanyRepository, validator CompanyValidator, uploader Uploader, publisher events.Publisher, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		repo:      repo,
		validator: validator,
		uploader:  uploader,
		publisher: publisher,
		logger:    logger.Named("company_service"),
	}
}

func (s *CompanyService) ListCompanies(ctx context.Context, req pagination.Request) (*pagination.Page[models.Company], error) {
	page, err := s.repo.ListCompanies(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return page, nil
}

// CreateCompany validates the request, stores the logo and the row, and
// publishes CompanyCreated on behalf of actor once the row is committed.
func (s *CompanyService) CreateCompany(ctx context.Context, actor *models.User, fields validation.Fields, logo *upload.File) (*models.Company, error) {
	in, err := s.validator.ValidateCompanyCreate(ctx, fields, logo)
	if err != nil {
		return nil, err
	}

	company := &models.Company{
		Name:    in.Name,
		Email:   optional(in.Email),
		Website: optional(in.Website),
	}

	if in.Logo != nil {
		path, err := s.uploader.UploadLogo(ctx, in.Logo, "")
		if err != nil {
			return nil, fmt.Errorf("failed to upload logo: %w", err)
		}
		company.Logo = &path
	}

	if err := s.repo.CreateCompany(ctx, company); err != nil {
		if company.HasLogo() {
			s.deleteLogo(ctx, *company.Logo)
		}
		if errors.Is(err, e.ErrDuplicateEmail) {
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("failed to create company: %w", err)
	}
	company.Employees = []models.Employee{}

	s.publisher.Publish(events.NewCompanyCreated(company, actor))
	return company, nil
}

// GetCompany retrieves a Company with its employees, returning an error if not found.
func (s *CompanyService) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	company, err := s.repo.GetCompany(ctx, id)
	if err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to get company: %w", err)
	}
	return company, nil
}

// UpdateCompany applies the submitted fields. A new logo replaces the stored
// one; the previous file is removed.
func (s *CompanyService) UpdateCompany(ctx context.Context, id uint, fields validation.Fields, logo *upload.File) (*models.Company, error) {
	existing, err := s.GetCompany(ctx, id)
	if err != nil {
		return nil, err
	}

	in, err := s.validator.ValidateCompanyUpdate(ctx, id, fields, logo)
	if err != nil {
		return nil, err
	}

	update := &models.CompanyUpdate{ID: id}
	if in.Has("name") {
		update.Name = &in.Name
	}
	if in.Has("email") {
		update.Email, update.ClearEmail = optional(in.Email), in.Email == ""
	}
	if in.Has("website") {
		update.Website, update.ClearWebsite = optional(in.Website), in.Website == ""
	}
	if in.Logo != nil {
		previous := ""
		if existing.HasLogo() {
			previous = *existing.Logo
		}
		path, err := s.uploader.UploadLogo(ctx, in.Logo, previous)
		if err != nil {
			return nil, fmt.Errorf("failed to upload logo: %w", err)
		}
		update.Logo = &path
	}

	if err := s.repo.UpdateCompany(ctx, update); err != nil {
		if update.Logo != nil {
			s.deleteLogo(ctx, *update.Logo)
		}
		switch {
		case errors.Is(err, e.ErrNotFound):
			return nil, err
		case errors.Is(err, e.ErrDuplicateEmail):
			return nil, emailTaken()
		}
		return nil, fmt.Errorf("failed to update company: %w", err)
	}

	return s.GetCompany(ctx, id)
}

// DeleteCompany removes the stored logo, then the company and its employees.
func (s *CompanyService) DeleteCompany(ctx context.Context, id uint) error {
	company, err := s.GetCompany(ctx, id)
	if err != nil {
		return err
	}

	if company.HasLogo() {
		s.deleteLogo(ctx, *company.Logo)
	}

	if err := s.repo.DeleteCompany(ctx, id); err != nil {
		if errors.Is(err, e.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete company: %w", err)
	}
	return nil
}

func (s *CompanyService) deleteLogo(ctx context.Context, path string) {
	if _, err := s.uploader.DeleteFile(ctx, path); err != nil {
		s.logger.Warn("Failed to delete logo",
			zap.Error(err),
			zap.String("path", path),
		)
	}
}

func emailTaken() error {
	return validation.Errors{"email": {"This email is already taken."}}
}

// optional maps an empty string to NULL.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
