package controller

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"sync"
	"testing"

	"github.com/gartstein/minicrm/internal/crm/db"
	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/events"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"github.com/gartstein/minicrm/internal/crm/storage"
	"github.com/gartstein/minicrm/internal/crm/upload"
	"github.com/gartstein/minicrm/internal/crm/validation"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// MockRepository implements CompanyRepository with overridable functions.
type MockRepository struct {
	createCompany func(ctx context.Context, company *models.Company) error
	getCompany    func(ctx context.Context, id uint) (*models.Company, error)
	listCompanies func(ctx context.Context, req pagination.Request) (*pagination.Page[models.Company], error)
	updateCompany func(ctx context.Context, update *models.CompanyUpdate) error
	deleteCompany func(ctx context.Context, id uint) error
}

func (m *MockRepository) CreateCompany(ctx context.Context, company *models.Company) error {
	if m.createCompany != nil {
		return m.createCompany(ctx, company)
	}
	company.ID = 1
	return nil
}

func (m *MockRepository) GetCompany(ctx context.Context, id uint) (*models.Company, error) {
	if m.getCompany != nil {
		return m.getCompany(ctx, id)
	}
	return nil, e.NotFound("Company")
}

func (m *MockRepository) ListCompanies(ctx context.Context, req pagination.Request) (*pagination.Page[models.Company], error) {
	if m.listCompanies != nil {
		return m.listCompanies(ctx, req)
	}
	return &pagination.Page[models.Company]{Request: req}, nil
}

func (m *MockRepository) UpdateCompany(ctx context.Context, update *models.CompanyUpdate) error {
	if m.updateCompany != nil {
		return m.updateCompany(ctx, update)
	}
	return nil
}

func (m *MockRepository) DeleteCompany(ctx context.Context, id uint) error {
	if m.deleteCompany != nil {
		return m.deleteCompany(ctx, id)
	}
	return nil
}

// MockPublisher records published events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event
}

func (m *MockPublisher) Publish(event events.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, event)
}

func (m *MockPublisher) Published() []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]events.Event(nil), m.events...)
}

// openLookup accepts every uniqueness and existence check.
type openLookup struct{}

func (openLookup) CompanyEmailTaken(context.Context, string, uint) (bool, error)  { return false, nil }
func (openLookup) EmployeeEmailTaken(context.Context, string, uint) (bool, error) { return false, nil }
func (openLookup) CompanyExists(context.Context, uint) (bool, error)              { return true, nil }

type fixture struct {
	repo      *db.Repository
	uploads   *upload.Service
	publisher *MockPublisher
	companies *CompanyService
	employees *EmployeeService
	actor     *models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zaptest.NewLogger(t)

	repo, err := db.NewRepository(&db.Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	backend, err := storage.NewLocal(t.TempDir(), "http://localhost:8000")
	require.NoError(t, err)
	uploads := upload.NewService(backend, logger, false)
	validator := validation.New(repo, upload.DefaultConstraints())
	publisher := &MockPublisher{}

	actor := &models.User{Name: "Admin", Email: "admin@admin.com", PasswordHash: "x"}
	require.NoError(t, repo.CreateUser(context.Background(), actor))

	return &fixture{
		repo:      repo,
		uploads:   uploads,
		publisher: publisher,
		companies: NewCompanyService(repo, validator, uploads, publisher, logger),
		employees: NewEmployeeService(repo, validator, logger),
		actor:     actor,
	}
}

func pngLogo(t *testing.T, w, h int) *upload.File {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))))
	return &upload.File{Filename: "logo.png", Size: int64(buf.Len()), Data: buf.Bytes()}
}

func validationErrors(t *testing.T, err error) validation.Errors {
	t.Helper()
	var errs validation.Errors
	require.True(t, errors.As(err, &errs), "expected validation errors, got %v", err)
	return errs
}

func pageRequest(page, perPage int) pagination.Request {
	return pagination.Request{Page: page, PerPage: perPage, Path: "http://localhost:8000/api"}
}
