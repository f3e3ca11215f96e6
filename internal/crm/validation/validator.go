// Package validation checks create and update requests before anything is
// written. Rules are declared as validator tags; uniqueness and existence are
// checked against the repository.
package validation

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	"github.com/gartstein/minicrm/internal/crm/upload"
	"github.com/go-playground/validator/v10"
)

// Lookup is the part of the repository the database rules need.
type Lookup interface {
	CompanyEmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	EmployeeEmailTaken(ctx context.Context, email string, exceptID uint) (bool, error)
	CompanyExists(ctx context.Context, id uint) (bool, error)
}

// Fields holds the submitted request values. A key is present when the client
// sent the field, even with an empty value.
type Fields map[string]string

func (f Fields) Has(key string) bool {
	_, ok := f[key]
	return ok
}

func (f Fields) Get(key string) string {
	return strings.TrimSpace(f[key])
}

// nonStringPrefix namespaces the markers SetRaw records.
const nonStringPrefix = "\x00raw:"

// SetRaw stores a value that was submitted as a JSON number, boolean, array
// or object. String rules reject it; integer rules still parse it.
func (f Fields) SetRaw(key, raw string) {
	f[key] = raw
	f[nonStringPrefix+key] = ""
}

// IsString reports whether key was submitted as a string or null.
func (f Fields) IsString(key string) bool {
	_, raw := f[nonStringPrefix+key]
	return !raw
}

type Validator struct {
	validate    *validator.Validate
	lookup      Lookup
	constraints upload.Constraints
}

func New(lookup Lookup, constraints upload.Constraints) *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Validator{validate: v, lookup: lookup, constraints: constraints}
}

// messages are keyed by "<field>.<tag>", falling back to "<tag>".
var messages = map[string]string{
	"name.required":       "Company name is required.",
	"website.http_url":    "Website must be a valid URL.",
	"email.email":         "Please provide a valid email address.",
	"first_name.required": "First name is required.",
	"last_name.required":  "Last name is required.",
	"company_id.required": "Company selection is required.",
	"company_id.number":   "The company id field must be an integer.",
	"email":               "Please provide a valid email address.",
	"http_url":            "The %s field must be a valid URL.",
	"number":              "The %s field must be an integer.",
	"string":              "The %s field must be a string.",
	"required":            "The %s field is required.",
	"max":                 "The %s field must not be greater than %s characters.",
}

func message(fe validator.FieldError) string {
	if msg, ok := messages[fe.Field()+"."+fe.Tag()]; ok {
		return msg
	}
	label := fieldLabel(fe.Field())
	if msg, ok := messages[fe.Tag()]; ok {
		switch strings.Count(msg, "%s") {
		case 0:
			return msg
		case 1:
			return fmt.Sprintf(msg, label)
		default:
			return fmt.Sprintf(msg, label, fe.Param())
		}
	}
	return fmt.Sprintf("The %s field is invalid.", label)
}

func fieldLabel(field string) string {
	return strings.ReplaceAll(field, "_", " ")
}

// checkStrings replaces the errors of any submitted key that did not arrive
// as a string with the string rule failure.
func checkStrings(fields Fields, errs Errors, keys ...string) {
	for _, key := range keys {
		if fields.Has(key) && !fields.IsString(key) {
			errs[key] = []string{fmt.Sprintf(messages["string"], fieldLabel(key))}
		}
	}
}

// check runs the struct rules and keeps failures of fields accepted by keep.
func (v *Validator) check(input interface{}, keep func(field string) bool, errs Errors) error {
	err := v.validate.Struct(input)
	if err == nil {
		return nil
	}
	var ves validator.ValidationErrors
	if !errors.As(err, &ves) {
		return err
	}
	for _, fe := range ves {
		if keep(fe.Field()) {
			errs.Add(fe.Field(), message(fe))
		}
	}
	return nil
}

// checkLogo applies the image, type and size rules to an uploaded logo.
func (v *Validator) checkLogo(logo *upload.File, errs Errors) {
	mt := mimetype.Detect(logo.Data)
	if !strings.HasPrefix(mt.String(), "image/") {
		errs.Add("logo", "Logo must be an image file.")
	}
	if !mimetype.EqualsAny(mt.String(), upload.AllowedMIMETypes...) {
		errs.Add("logo", "Logo must be a JPEG, PNG, or GIF file.")
	}
	if limit := v.constraints.MaxBytes(); limit > 0 && logo.Size > limit {
		errs.Add("logo", fmt.Sprintf("Logo must not exceed %dMB.", v.constraints.MaxSizeMB))
	}
}

func parseID(s string) (uint, bool) {
	n, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil || n == 0 {
		return 0, false
	}
	return uint(n), true
}
