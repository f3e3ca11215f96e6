package handlers

import (
	"time"

	"github.com/gartstein/minicrm/internal/crm/models"
	"github.com/gartstein/minicrm/internal/crm/pagination"
)

// CompanyResponse is the wire shape of a company. LogoURL is derived from
// Logo on every response.
type CompanyResponse struct {
	ID        uint                `json:"id"`
	Name      string              `json:"name"`
	Email     *string             `json:"email"`
	Website   *string             `json:"website"`
	Logo      *string             `json:"logo"`
	LogoURL   *string             `json:"logo_url"`
	CreatedAt *string             `json:"created_at,omitempty"`
	UpdatedAt *string             `json:"updated_at,omitempty"`
	Employees *[]EmployeeResponse `json:"employees,omitempty"`
}

// EmployeeResponse is the wire shape of an employee with its derived full name.
type EmployeeResponse struct {
	ID        uint             `json:"id"`
	CompanyID *uint            `json:"company_id"`
	FirstName string           `json:"first_name"`
	LastName  string           `json:"last_name"`
	FullName  string           `json:"full_name"`
	Email     *string          `json:"email"`
	Phone     *string          `json:"phone,omitempty"`
	CreatedAt *string          `json:"created_at,omitempty"`
	UpdatedAt *string          `json:"updated_at,omitempty"`
	Company   *CompanyResponse `json:"company,omitempty"`
}

type UserResponse struct {
	ID        uint    `json:"id"`
	Name      string  `json:"name"`
	Email     string  `json:"email"`
	CreatedAt *string `json:"created_at,omitempty"`
	UpdatedAt *string `json:"updated_at,omitempty"`
}

// ListResponse is the envelope of every paginated list.
type ListResponse[T any] struct {
	Data       []T             `json:"data"`
	Pagination pagination.Meta `json:"pagination"`
	Message    string          `json:"message,omitempty"`
	Timestamp  string          `json:"timestamp"`
}

type MessageResponse struct {
	Message string `json:"message"`
}

type converter struct {
	publicURL func(path string) string
}

func (cv converter) company(c *models.Company, withEmployees bool) CompanyResponse {
	resp := CompanyResponse{
		ID:        c.ID,
		Name:      c.Name,
		Email:     c.Email,
		Website:   c.Website,
		Logo:      c.Logo,
		CreatedAt: timestamp(c.CreatedAt),
		UpdatedAt: timestamp(c.UpdatedAt),
	}
	if c.HasLogo() {
		u := cv.publicURL(*c.Logo)
		resp.LogoURL = &u
	}
	if withEmployees {
		employees := make([]EmployeeResponse, 0, len(c.Employees))
		for i := range c.Employees {
			employees = append(employees, cv.employee(&c.Employees[i]))
		}
		resp.Employees = &employees
	}
	return resp
}

func (cv converter) employee(emp *models.Employee) EmployeeResponse {
	resp := EmployeeResponse{
		ID:        emp.ID,
		CompanyID: emp.CompanyID,
		FirstName: emp.FirstName,
		LastName:  emp.LastName,
		FullName:  models.FullName(emp.FirstName, emp.LastName),
		Email:     emp.Email,
		Phone:     emp.Phone,
		CreatedAt: timestamp(emp.CreatedAt),
		UpdatedAt: timestamp(emp.UpdatedAt),
	}
	if emp.Company != nil {
		company := cv.company(emp.Company, false)
		resp.Company = &company
	}
	return resp
}

func (cv converter) user(u *models.User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		CreatedAt: timestamp(u.CreatedAt),
		UpdatedAt: timestamp(u.UpdatedAt),
	}
}

func newList[T, R any](page *pagination.Page[T], message string, fn func(T) R) ListResponse[R] {
	return ListResponse[R]{
		Data:       pagination.Map(page, fn),
		Pagination: page.Meta(),
		Message:    message,
		Timestamp:  now(),
	}
}

// timestamp formats t, or returns nil for columns that were not loaded.
func timestamp(t time.Time) *string {
	if t.IsZero() {
		return nil
	}
	s := t.UTC().Format(timestampLayout)
	return &s
}
