// Package seed creates demo records and fires test notifications.
package seed

import (
	"context"
	"errors"
	"fmt"
	"time"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/db"
	"github.com/gartstein/minicrm/internal/crm/events"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/pkg/utils"
	"go.uber.org/zap"
)

// Store is the part of the repository the seeders write through.
type Store interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
	GetCompanyByEmail(ctx context.Context, email string) (*models.Company, error)
	CreateCompany(ctx context.Context, company *models.Company) error
	GetEmployeeByEmail(ctx context.Context, email string) (*models.Employee, error)
	CreateEmployee(ctx context.Context, employee *models.Employee) error
}

// TxStore is a Store that can run a unit of work in one transaction.
type TxStore interface {
	Store
	WithTransaction(ctx context.Context, fn func(repo *db.Repository) error) error
}

// Account is a user created on demand by the seeders.
type Account struct {
	Name     string
	Email    string
	Password string
}

var (
	// DemoAdmin owns the demo data.
	DemoAdmin = Account{Name: "Test Admin", Email: "admin@minicrm.com", Password: "password123"}
	// NotificationActor is reported as the creator of test notifications.
	NotificationActor = Account{Name: "Admin User", Email: "admin@test.com", Password: "password"}
)

type Seeder struct {
	store  TxStore
	hash   func(string) (string, error)
	now    func() time.Time
	logger *zap.Logger
}

// New returns a Seeder. hash turns plain passwords into stored hashes.
func New(store TxStore, hash func(string) (string, error), logger *zap.Logger) *Seeder {
	return &Seeder{store: store, hash: hash, now: time.Now, logger: logger.Named("seed")}
}

// Result lists the records a seeder touched.
type Result struct {
	User     *models.User
	Company  *models.Company
	Employee *models.Employee
}

// Data creates the demo admin, company and employee in one transaction.
// Records that already exist are reused, so running it twice changes nothing.
func (s *Seeder) Data(ctx context.Context) (*Result, error) {
	var res *Result
	err := s.store.WithTransaction(ctx, func(tx *db.Repository) error {
		var err error
		res, err = s.data(ctx, tx)
		return err
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *Seeder) data(ctx context.Context, store Store) (*Result, error) {
	user, err := s.ensureUser(ctx, store, DemoAdmin)
	if err != nil {
		return nil, err
	}

	company, err := store.GetCompanyByEmail(ctx, "info@testcompany.com")
	if errors.Is(err, e.ErrNotFound) {
		company = &models.Company{
			Name:    "Test Company Inc.",
			Email:   utils.Ptr("info@testcompany.com"),
			Website: utils.Ptr("https://testcompany.com"),
		}
		err = store.CreateCompany(ctx, company)
		if err == nil {
			s.logger.Info("Created company", zap.Uint("company_id", company.ID))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("seed company: %w", err)
	}

	employee, err := store.GetEmployeeByEmail(ctx, "john.doe@testcompany.com")
	if errors.Is(err, e.ErrNotFound) {
		employee = &models.Employee{
			FirstName: "John",
			LastName:  "Doe",
			Email:     utils.Ptr("john.doe@testcompany.com"),
			Phone:     utils.Ptr("+1-555-0124"),
			CompanyID: &company.ID,
		}
		err = store.CreateEmployee(ctx, employee)
		if err == nil {
			s.logger.Info("Created employee", zap.Uint("employee_id", employee.ID))
		}
	}
	if err != nil {
		return nil, fmt.Errorf("seed employee: %w", err)
	}

	return &Result{User: user, Company: company, Employee: employee}, nil
}

// Notification creates a fresh company and publishes CompanyCreated for it.
func (s *Seeder) Notification(ctx context.Context, publisher events.Publisher) (*Result, error) {
	actor, err := s.ensureUser(ctx, s.store, NotificationActor)
	if err != nil {
		return nil, err
	}

	now := s.now()
	company := &models.Company{
		Name:  "Test Company " + now.Format(time.DateTime),
		Email: utils.Ptr(fmt.Sprintf("test+%d@company.com", now.UnixNano())),
	}
	if err := s.store.CreateCompany(ctx, company); err != nil {
		return nil, fmt.Errorf("seed company: %w", err)
	}
	company.Employees = []models.Employee{}

	publisher.Publish(events.NewCompanyCreated(company, actor))
	s.logger.Info("Published CompanyCreated",
		zap.Uint("company_id", company.ID),
		zap.String("company", company.Name),
	)
	return &Result{User: actor, Company: company}, nil
}

func (s *Seeder) ensureUser(ctx context.Context, store Store, account Account) (*models.User, error) {
	user, err := store.GetUserByEmail(ctx, account.Email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, e.ErrNotFound) {
		return nil, fmt.Errorf("seed user: %w", err)
	}

	hash, err := s.hash(account.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	user = &models.User{Name: account.Name, Email: account.Email, PasswordHash: hash}
	if err := store.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}
	s.logger.Info("Created user", zap.String("email", user.Email))
	return user, nil
}
