package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	e "github.com/gartstein/minicrm/internal/crm/errors"
	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
	"github.com/gartstein/minicrm/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

// SetupTestDB initializes an in-memory SQLite database for testing.
func SetupTestDB(t *testing.T) *Repository {
	repo, err := NewRepository(&Config{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err, "failed to open test database")
	t.Cleanup(func() { _ = repo.Close() })
	return repo
}

func createCompany(t *testing.T, repo *Repository, name string, email *string) *models.Company {
	company := &models.Company{Name: name, Email: email}
	require.NoError(t, repo.CreateCompany(context.Background(), company), "CreateCompany should succeed")
	return company
}

func createEmployee(t *testing.T, repo *Repository, companyID uint, first string) *models.Employee {
	employee := &models.Employee{
		FirstName: first,
		LastName:  "Doe",
		Email:     utils.Ptr(first + "@example.com"),
		CompanyID: &companyID,
	}
	require.NoError(t, repo.CreateEmployee(context.Background(), employee), "CreateEmployee should succeed")
	return employee
}

func TestNewRepositoryUnsupportedDriver(t *testing.T) {
	_, err := NewRepository(&Config{Driver: "oracle"})
	assert.Error(t, err)
}

// TestCreateCompany tests the creation of a company record.
func TestCreateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	company := &models.Company{
		Name:    "Acme",
		Email:   utils.Ptr("info@acme.test"),
		Website: utils.Ptr("https://acme.test"),
	}

	err := repo.CreateCompany(ctx, company)
	assert.NoError(t, err, "CreateCompany should not return an error")
	assert.NotZero(t, company.ID, "ID should be generated")

	retrieved, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err, "GetCompany should retrieve the created company")
	assert.Equal(t, "Acme", retrieved.Name)
	assert.Equal(t, "info@acme.test", *retrieved.Email)
	assert.Equal(t, "https://acme.test", *retrieved.Website)
	assert.Nil(t, retrieved.Logo)
	assert.Empty(t, retrieved.Employees)
}

func TestCreateCompanyDuplicateEmail(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	createCompany(t, repo, "First", utils.Ptr("dup@example.com"))

	err := repo.CreateCompany(ctx, &models.Company{Name: "Second", Email: utils.Ptr("dup@example.com")})
	assert.ErrorIs(t, err, e.ErrDuplicateEmail)

	// Several companies may omit the email.
	createCompany(t, repo, "Third", nil)
	createCompany(t, repo, "Fourth", nil)
}

// TestGetCompanyNotFound verifies error handling when the company does not exist.
func TestGetCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	_, err := repo.GetCompany(context.Background(), 42)
	assert.ErrorIs(t, err, e.ErrNotFound, "GetCompany should return ErrNotFound for non-existent company")
	assert.Equal(t, "Company", e.ResourceName(err))
}

func TestGetCompanyWithEmployees(t *testing.T) {
	repo := SetupTestDB(t)
	company := createCompany(t, repo, "Acme", nil)
	createEmployee(t, repo, company.ID, "ann")
	createEmployee(t, repo, company.ID, "bob")

	retrieved, err := repo.GetCompany(context.Background(), company.ID)
	require.NoError(t, err)
	require.Len(t, retrieved.Employees, 2)
	assert.Equal(t, "ann", retrieved.Employees[0].FirstName)
	assert.Equal(t, "bob", retrieved.Employees[1].FirstName)
}

func TestListCompaniesPagination(t *testing.T) {
	repo := SetupTestDB(t)
	for i := 1; i <= 25; i++ {
		createCompany(t, repo, fmt.Sprintf("Company %02d", i), nil)
	}

	req := pagination.Request{Page: 2, PerPage: 10, Path: "http://localhost/api/companies"}
	page, err := repo.ListCompanies(context.Background(), req)
	require.NoError(t, err)

	assert.EqualValues(t, 25, page.Total)
	require.Len(t, page.Items, 10)
	assert.Equal(t, "Company 11", page.Items[0].Name)
	assert.Equal(t, "Company 20", page.Items[9].Name)

	meta := page.Meta()
	assert.Equal(t, 2, meta.CurrentPage)
	assert.Equal(t, 3, meta.LastPage)
	assert.True(t, meta.HasMorePages)
}

func TestListCompaniesEmployeeProjection(t *testing.T) {
	repo := SetupTestDB(t)
	company := createCompany(t, repo, "Acme", nil)
	employee := createEmployee(t, repo, company.ID, "ann")
	require.NoError(t, repo.UpdateEmployee(context.Background(), &models.EmployeeUpdate{
		ID:    employee.ID,
		Phone: utils.Ptr("555-0100"),
	}))

	page, err := repo.ListCompanies(context.Background(), pagination.Request{Page: 1, PerPage: 10})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)
	require.Len(t, page.Items[0].Employees, 1)

	summary := page.Items[0].Employees[0]
	assert.Equal(t, employee.ID, summary.ID)
	assert.Equal(t, "ann", summary.FirstName)
	assert.Equal(t, "Doe", summary.LastName)
	assert.Equal(t, "ann@example.com", *summary.Email)
	assert.Nil(t, summary.Phone, "phone is not part of the projection")
}

// TestUpdateCompany checks partial updates and clearing of optional columns.
func TestUpdateCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Old Name", utils.Ptr("old@example.com"))

	update := &models.CompanyUpdate{
		ID:         company.ID,
		Name:       utils.Ptr("New Name"),
		ClearEmail: true,
		Logo:       utils.Ptr("logos/new.png"),
	}
	err := repo.UpdateCompany(ctx, update)
	assert.NoError(t, err, "UpdateCompany should not return an error")

	updated, err := repo.GetCompany(ctx, company.ID)
	require.NoError(t, err, "GetCompany should succeed")
	assert.Equal(t, "New Name", updated.Name, "Company name should be updated")
	assert.Nil(t, updated.Email, "email should be cleared")
	assert.Equal(t, "logos/new.png", *updated.Logo)
}

// TestUpdateCompanyNotFound tests updating a non-existing company.
func TestUpdateCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.UpdateCompany(context.Background(), &models.CompanyUpdate{ID: 7, Name: utils.Ptr("Non-existent")})
	assert.ErrorIs(t, err, e.ErrNotFound, "UpdateCompany should return ErrNotFound for missing company")
}

func TestUpdateCompanyDuplicateEmail(t *testing.T) {
	repo := SetupTestDB(t)
	createCompany(t, repo, "First", utils.Ptr("taken@example.com"))
	second := createCompany(t, repo, "Second", nil)

	err := repo.UpdateCompany(context.Background(), &models.CompanyUpdate{ID: second.ID, Email: utils.Ptr("taken@example.com")})
	assert.ErrorIs(t, err, e.ErrDuplicateEmail)
}

// TestDeleteCompany ensures companies and their employees are deleted.
func TestDeleteCompany(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "To Be Deleted", nil)
	employee := createEmployee(t, repo, company.ID, "ann")
	other := createCompany(t, repo, "Survivor", nil)
	survivor := createEmployee(t, repo, other.ID, "bob")

	err := repo.DeleteCompany(ctx, company.ID)
	assert.NoError(t, err, "DeleteCompany should not return an error")

	_, err = repo.GetCompany(ctx, company.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "Deleted company should not be found")
	_, err = repo.GetEmployee(ctx, employee.ID)
	assert.ErrorIs(t, err, e.ErrNotFound, "Employees should be removed with their company")
	_, err = repo.GetEmployee(ctx, survivor.ID)
	assert.NoError(t, err, "Employees of other companies are kept")
}

// TestDeleteCompanyNotFound checks behavior when trying to delete a non-existent company.
func TestDeleteCompanyNotFound(t *testing.T) {
	repo := SetupTestDB(t)

	err := repo.DeleteCompany(context.Background(), 99)
	assert.ErrorIs(t, err, e.ErrNotFound, "DeleteCompany should return ErrNotFound for missing company")
}

func TestCompanyEmailTaken(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Acme", utils.Ptr("a@example.com"))

	taken, err := repo.CompanyEmailTaken(ctx, "a@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)

	taken, err = repo.CompanyEmailTaken(ctx, "a@example.com", company.ID)
	require.NoError(t, err)
	assert.False(t, taken, "the company itself is excluded")

	require.NoError(t, repo.DeleteCompany(ctx, company.ID))
	taken, err = repo.CompanyEmailTaken(ctx, "a@example.com", 0)
	require.NoError(t, err)
	assert.False(t, taken, "email is free again after delete")
}

func TestCompanyExists(t *testing.T) {
	repo := SetupTestDB(t)
	company := createCompany(t, repo, "Acme", nil)

	exists, err := repo.CompanyExists(context.Background(), company.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.CompanyExists(context.Background(), company.ID+1)
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestCounts(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Acme", nil)
	createCompany(t, repo, "Globex", nil)
	createEmployee(t, repo, company.ID, "ann")

	companies, err := repo.CountCompanies(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 2, companies)

	employees, err := repo.CountEmployees(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, employees)

	today, err := repo.CountCompaniesCreatedSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.EqualValues(t, 2, today)

	future, err := repo.CountCompaniesCreatedSince(ctx, time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Zero(t, future)
}

func TestEmployeeCRUD(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Acme", utils.Ptr("acme@example.com"))
	other := createCompany(t, repo, "Globex", nil)

	employee := createEmployee(t, repo, company.ID, "ann")

	retrieved, err := repo.GetEmployee(ctx, employee.ID)
	require.NoError(t, err)
	require.NotNil(t, retrieved.Company)
	assert.Equal(t, "Acme", retrieved.Company.Name)

	err = repo.UpdateEmployee(ctx, &models.EmployeeUpdate{
		ID:         employee.ID,
		LastName:   utils.Ptr("Smith"),
		ClearEmail: true,
		CompanyID:  &other.ID,
	})
	require.NoError(t, err)

	retrieved, err = repo.GetEmployee(ctx, employee.ID)
	require.NoError(t, err)
	assert.Equal(t, "Smith", retrieved.LastName)
	assert.Nil(t, retrieved.Email)
	assert.Equal(t, other.ID, *retrieved.CompanyID)

	require.NoError(t, repo.DeleteEmployee(ctx, employee.ID))
	_, err = repo.GetEmployee(ctx, employee.ID)
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.Equal(t, "Employee", e.ResourceName(err))

	_, err = repo.GetCompany(ctx, company.ID)
	assert.NoError(t, err, "deleting an employee keeps the company")

	assert.ErrorIs(t, repo.DeleteEmployee(ctx, employee.ID), e.ErrNotFound)
	assert.ErrorIs(t, repo.UpdateEmployee(ctx, &models.EmployeeUpdate{ID: employee.ID, FirstName: utils.Ptr("x")}), e.ErrNotFound)
}

func TestCreateEmployeeDuplicateEmail(t *testing.T) {
	repo := SetupTestDB(t)
	company := createCompany(t, repo, "Acme", nil)
	createEmployee(t, repo, company.ID, "ann")

	err := repo.CreateEmployee(context.Background(), &models.Employee{
		FirstName: "Other",
		LastName:  "Ann",
		Email:     utils.Ptr("ann@example.com"),
		CompanyID: &company.ID,
	})
	assert.ErrorIs(t, err, e.ErrDuplicateEmail)

	taken, err := repo.EmployeeEmailTaken(context.Background(), "ann@example.com", 0)
	require.NoError(t, err)
	assert.True(t, taken)
}

func TestListEmployeesFilter(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	acme := createCompany(t, repo, "Acme", utils.Ptr("acme@example.com"))
	globex := createCompany(t, repo, "Globex", nil)
	createEmployee(t, repo, acme.ID, "ann")
	createEmployee(t, repo, globex.ID, "bob")
	createEmployee(t, repo, acme.ID, "cid")

	req := pagination.Request{Page: 1, PerPage: 10}

	all, err := repo.ListEmployees(ctx, req, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 3, all.Total)
	require.Len(t, all.Items, 3)
	assert.Equal(t, "bob", all.Items[1].FirstName)

	filtered, err := repo.ListEmployees(ctx, req, &acme.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, filtered.Total)
	require.Len(t, filtered.Items, 2)
	for _, employee := range filtered.Items {
		require.NotNil(t, employee.Company)
		assert.Equal(t, acme.ID, employee.Company.ID)
		assert.Equal(t, "Acme", employee.Company.Name)
		assert.Equal(t, "acme@example.com", *employee.Company.Email)
	}
}

func TestUsers(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	first := &models.User{Name: "Admin", Email: "admin@admin.com", PasswordHash: "hash"}
	second := &models.User{Name: "Other", Email: "other@example.com", PasswordHash: "hash"}
	require.NoError(t, repo.CreateUser(ctx, first))
	require.NoError(t, repo.CreateUser(ctx, second))

	assert.ErrorIs(t, repo.CreateUser(ctx, &models.User{Name: "Dup", Email: "admin@admin.com", PasswordHash: "x"}), e.ErrDuplicateEmail)

	byEmail, err := repo.GetUserByEmail(ctx, "admin@admin.com")
	require.NoError(t, err)
	assert.Equal(t, first.ID, byEmail.ID)

	_, err = repo.GetUser(ctx, 1000)
	assert.ErrorIs(t, err, e.ErrNotFound)

	users, err := repo.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Admin", users[0].Name)
}

func TestNotifications(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	owner := &models.User{Name: "Owner", Email: "owner@example.com", PasswordHash: "x"}
	stranger := &models.User{Name: "Stranger", Email: "stranger@example.com", PasswordHash: "x"}
	require.NoError(t, repo.CreateUser(ctx, owner))
	require.NoError(t, repo.CreateUser(ctx, stranger))

	n := &models.Notification{
		Type:        models.CompanyCreatedNotification,
		RecipientID: owner.ID,
		Data:        datatypes.JSON(`{"company_id":1}`),
	}
	require.NoError(t, repo.CreateNotification(ctx, n))
	assert.NotEqual(t, uuid.Nil, n.ID)
	require.NoError(t, repo.CreateNotification(ctx, &models.Notification{
		Type:        models.CompanyCreatedNotification,
		RecipientID: owner.ID,
		Data:        datatypes.JSON(`{"company_id":2}`),
	}))

	unread, err := repo.CountUnreadNotifications(ctx, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 2, unread)

	_, err = repo.MarkNotificationRead(ctx, n.ID, stranger.ID, time.Now())
	assert.ErrorIs(t, err, e.ErrForbidden)

	_, err = repo.MarkNotificationRead(ctx, uuid.New(), owner.ID, time.Now())
	assert.ErrorIs(t, err, e.ErrNotFound)

	first, err := repo.MarkNotificationRead(ctx, n.ID, owner.ID, time.Now())
	require.NoError(t, err)
	require.NotNil(t, first.ReadAt)

	second, err := repo.MarkNotificationRead(ctx, n.ID, owner.ID, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.NotNil(t, second.ReadAt)
	assert.True(t, first.ReadAt.Equal(*second.ReadAt), "marking twice keeps the first read_at")

	page, err := repo.ListNotifications(ctx, owner.ID, true, pagination.Request{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 1, page.Total)

	changed, err := repo.MarkAllNotificationsRead(ctx, owner.ID, time.Now())
	require.NoError(t, err)
	assert.EqualValues(t, 1, changed)

	page, err = repo.ListNotifications(ctx, owner.ID, false, pagination.Request{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.EqualValues(t, 2, page.Total)

	empty, err := repo.ListNotifications(ctx, stranger.ID, false, pagination.Request{Page: 1, PerPage: 10})
	require.NoError(t, err)
	assert.Zero(t, empty.Total)
}

func TestWithTransactionRollback(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()

	err := repo.WithTransaction(ctx, func(tx *Repository) error {
		if err := tx.CreateCompany(ctx, &models.Company{Name: "Rolled back"}); err != nil {
			return err
		}
		return e.ErrInvalidInput
	})
	assert.ErrorIs(t, err, e.ErrInvalidInput)

	count, err := repo.CountCompanies(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestGetByEmail(t *testing.T) {
	repo := SetupTestDB(t)
	ctx := context.Background()
	company := createCompany(t, repo, "Acme", utils.Ptr("acme@example.com"))
	employee := createEmployee(t, repo, company.ID, "ann")

	found, err := repo.GetCompanyByEmail(ctx, "acme@example.com")
	require.NoError(t, err)
	assert.Equal(t, company.ID, found.ID)

	_, err = repo.GetCompanyByEmail(ctx, "missing@example.com")
	assert.ErrorIs(t, err, e.ErrNotFound)

	byEmail, err := repo.GetEmployeeByEmail(ctx, "ann@example.com")
	require.NoError(t, err)
	assert.Equal(t, employee.ID, byEmail.ID)

	_, err = repo.GetEmployeeByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, e.ErrNotFound)
	assert.Equal(t, "Employee", e.ResourceName(err))
}
