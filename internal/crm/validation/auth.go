package validation

type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (v *Validator) ValidateLogin(fields Fields) (*LoginInput, error) {
	in := &LoginInput{
		Email:    fields.Get("email"),
		Password: fields["password"],
	}
	errs := Errors{}
	if err := v.check(in, func(string) bool { return true }, errs); err != nil {
		return nil, err
	}
	checkStrings(fields, errs, "email", "password")
	if err := errs.Err(); err != nil {
		return nil, err
	}
	return in, nil
}
