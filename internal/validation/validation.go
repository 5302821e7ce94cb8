// Package validation checks user-entered profile fields before they leave the
// machine.
package validation

import (
	"fmt"
	"reflect"
	"regexp"
	"sort"
	"strings"
	"time"

	"cvforge/internal/errors"
	"cvforge/internal/types"

	"github.com/go-playground/validator/v10"
)

var (
	phonePattern  = regexp.MustCompile(`^\+?[0-9 ()\-]+$`)
	postalPattern = regexp.MustCompile(`^[A-Za-z0-9 \-]{3,10}$`)
)

// FieldErrors maps a field name to the message shown next to it.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	fields := make([]string, 0, len(fe))
	for f := range fe {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = f + ": " + fe[f]
	}
	return strings.Join(parts, "; ")
}

// Validator wraps validator.Validate with the profile rules registered.
type Validator struct {
	validate *validator.Validate
	now      func() time.Time
}

// New builds a Validator. Field names in reported errors follow json tags.
func New() *Validator {
	v := &Validator{validate: validator.New(validator.WithRequiredStructEnabled()), now: time.Now}

	v.validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// Registration only fails for empty tags or nil funcs.
	_ = v.validate.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return ValidPhone(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("postal", func(fl validator.FieldLevel) bool {
		return ValidPostal(fl.Field().String())
	})
	_ = v.validate.RegisterValidation("plausible_date", func(fl validator.FieldLevel) bool {
		return PlausibleDate(fl.Field().String(), v.now())
	})
	return v
}

// Struct validates s and returns a validation AppError carrying FieldErrors
// under the "fields" context key.
func (v *Validator) Struct(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.NewInternalError(errors.ErrCodeInvalidRequest, "validation could not run", err)
	}

	fields := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		fields[fe.Field()] = message(fe)
	}
	return errors.NewValidationError(errors.ErrCodeInvalidField, "some fields are invalid", fields).
		WithContext("fields", fields)
}

// Profile validates a profile before it is written.
func (v *Validator) Profile(p types.Profile) error {
	return v.Struct(p)
}

// Fields returns the per-field messages carried by err, if any.
func Fields(err error) FieldErrors {
	appErr, ok := errors.As(err)
	if !ok {
		return nil
	}
	fields, _ := appErr.Context["fields"].(FieldErrors)
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "phone":
		return "must be a phone number with 7 to 15 digits"
	case "postal":
		return "must be a postal code"
	case "plausible_date":
		return "must be a date (YYYY-MM-DD or YYYY-MM) between 1900 and today"
	case "max":
		return fmt.Sprintf("must be at most %s characters", fe.Param())
	case "min":
		return fmt.Sprintf("must be at least %s characters", fe.Param())
	default:
		return fmt.Sprintf("failed %s check", fe.Tag())
	}
}

// ValidPhone accepts an optional leading +, then digits, spaces, dashes and
// parentheses, with 7 to 15 digits in total.
func ValidPhone(s string) bool {
	if !phonePattern.MatchString(s) {
		return false
	}
	digits := 0
	for _, r := range s {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7 && digits <= 15
}

// ValidPostal accepts 3 to 10 letters, digits, spaces or dashes with at least
// one digit.
func ValidPostal(s string) bool {
	return postalPattern.MatchString(s) && strings.ContainsAny(s, "0123456789")
}

// PlausibleDate accepts YYYY-MM-DD or YYYY-MM from 1900 up to now.
func PlausibleDate(s string, now time.Time) bool {
	var t time.Time
	var err error
	switch len(s) {
	case len("2006-01-02"):
		t, err = time.Parse("2006-01-02", s)
	case len("2006-01"):
		t, err = time.Parse("2006-01", s)
	default:
		return false
	}
	if err != nil {
		return false
	}
	return t.Year() >= 1900 && !t.After(now)
}
