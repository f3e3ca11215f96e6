package validation

import (
	"context"
)

// company_id is absent: it takes a JSON integer.
var employeeStringFields = []string{"first_name", "last_name", "email", "phone"}

type EmployeeInput struct {
	FirstName string `json:"first_name" validate:"required,max=50"`
	LastName  string `json:"last_name" validate:"required,max=50"`
	Email     string `json:"email" validate:"omitempty,email,max=255"`
	Phone     string `json:"phone" validate:"omitempty,max=20"`
	CompanyID string `json:"company_id" validate:"required,number"`

	// Company is the parsed CompanyID once it is known to exist.
	Company uint `json:"-" validate:"-"`

	fields Fields
}

// Has reports whether the client submitted field.
func (in *EmployeeInput) Has(field string) bool {
	return in.fields.Has(field)
}

func employeeInput(fields Fields) *EmployeeInput {
	return &EmployeeInput{
		FirstName: fields.Get("first_name"),
		LastName:  fields.Get("last_name"),
		Email:     fields.Get("email"),
		Phone:     fields.Get("phone"),
		CompanyID: fields.Get("company_id"),
		fields:    fields,
	}
}

func (v *Validator) ValidateEmployeeCreate(ctx context.Context, fields Fields) (*EmployeeInput, error) {
	in := employeeInput(fields)
	errs := Errors{}
	if err := v.check(in, func(string) bool { return true }, errs); err != nil {
		return nil, err
	}
	checkStrings(fields, errs, employeeStringFields...)
	if err := v.employeeRules(ctx, in, 0, errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

// ValidateEmployeeUpdate validates only the submitted fields. Email
// uniqueness ignores the employee being updated.
func (v *Validator) ValidateEmployeeUpdate(ctx context.Context, id uint, fields Fields) (*EmployeeInput, error) {
	in := employeeInput(fields)
	errs := Errors{}
	if err := v.check(in, fields.Has, errs); err != nil {
		return nil, err
	}
	checkStrings(fields, errs, employeeStringFields...)
	if err := v.employeeRules(ctx, in, id, errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

func (v *Validator) employeeRules(ctx context.Context, in *EmployeeInput, exceptID uint, errs Errors) error {
	if in.CompanyID != "" && !errs.Has("company_id") {
		id, ok := parseID(in.CompanyID)
		exists := false
		if ok {
			var err error
			if exists, err = v.lookup.CompanyExists(ctx, id); err != nil {
				return err
			}
		}
		if exists {
			in.Company = id
		} else {
			errs.Add("company_id", "Selected company does not exist.")
		}
	}

	if in.Email != "" && !errs.Has("email") {
		taken, err := v.lookup.EmployeeEmailTaken(ctx, in.Email, exceptID)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("email", "This email address is already in use by another employee.")
		}
	}
	return nil
}
