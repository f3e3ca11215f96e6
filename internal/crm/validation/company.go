package validation

import (
	"context"

	"github.com/gartstein/minicrm/internal/crm/upload"
)

var companyStringFields = []string{"name", "email", "website"}

type CompanyInput struct {
	Name    string       `json:"name" validate:"required,max=255"`
	Email   string       `json:"email" validate:"omitempty,email,max=255"`
	Website string       `json:"website" validate:"omitempty,http_url,max=255"`
	Logo    *upload.File `json:"-" validate:"-"`

	fields Fields
}

// Has reports whether the client submitted field.
func (in *CompanyInput) Has(field string) bool {
	return in.fields.Has(field)
}

func companyInput(fields Fields, logo *upload.File) *CompanyInput {
	return &CompanyInput{
		Name:    fields.Get("name"),
		Email:   fields.Get("email"),
		Website: fields.Get("website"),
		Logo:    logo,
		fields:  fields,
	}
}

// ValidateCompanyCreate applies the create rules. The error is Errors when a
// rule fails.
func (v *Validator) ValidateCompanyCreate(ctx context.Context, fields Fields, logo *upload.File) (*CompanyInput, error) {
	in := companyInput(fields, logo)
	errs := Errors{}
	if err := v.check(in, func(string) bool { return true }, errs); err != nil {
		return nil, err
	}
	checkStrings(fields, errs, companyStringFields...)
	if err := v.companyRules(ctx, in, 0, errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

// ValidateCompanyUpdate applies the create rules to the submitted fields only.
// Email uniqueness ignores the company being updated.
func (v *Validator) ValidateCompanyUpdate(ctx context.Context, id uint, fields Fields, logo *upload.File) (*CompanyInput, error) {
	in := companyInput(fields, logo)
	errs := Errors{}
	if err := v.check(in, fields.Has, errs); err != nil {
		return nil, err
	}
	checkStrings(fields, errs, companyStringFields...)
	if err := v.companyRules(ctx, in, id, errs); err != nil {
		return nil, err
	}
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return in, nil
}

func (v *Validator) companyRules(ctx context.Context, in *CompanyInput, exceptID uint, errs Errors) error {
	switch {
	case in.Logo != nil:
		v.checkLogo(in.Logo, errs)
	case in.fields.Get("logo") != "":
		errs.Add("logo", "Logo must be an image file.")
	}

	if in.Email != "" && !errs.Has("email") {
		taken, err := v.lookup.CompanyEmailTaken(ctx, in.Email, exceptID)
		if err != nil {
			return err
		}
		if taken {
			errs.Add("email", "This email is already taken.")
		}
	}
	return nil
}
