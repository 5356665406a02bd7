package auth

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var signUpMessages = map[string]string{
	"name":             MsgNameRequired,
	"email":            MsgInvalidEmail,
	"password":         MsgPasswordTooShort,
	"confirm_password": MsgPasswordsDiffer,
}

// newValidator builds a validator reporting JSON field names.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		return name
	})
	_ = v.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
		return strings.TrimSpace(fl.Field().String()) != ""
	})
	return v
}

// validateSignUp checks the registration form. Every field is checked, so all
// failing fields are reported at once.
func validateSignUp(v *validator.Validate, dto SignUpDto) error {
	err := v.Struct(dto)
	if err == nil {
		return nil
	}
	var validationErrors validator.ValidationErrors
	if !errors.As(err, &validationErrors) {
		return err
	}
	verr := &ValidationError{Fields: make(map[string]string, len(validationErrors))}
	for _, fieldErr := range validationErrors {
		verr.Fields[fieldErr.Field()] = signUpMessages[fieldErr.Field()]
	}
	return verr
}

// normalizeEmail makes e-mail lookups case-insensitive.
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
