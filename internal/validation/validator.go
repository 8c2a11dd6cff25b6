// Package validation wraps go-playground/validator and converts its failures
// into the domain's field-scoped validation errors.
package validation

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	domainerrors "github.com/platefulapp/plateful-server/internal/errors"
)

// Validator validates request structs against their `validate` tags.
type Validator struct {
	v *validator.Validate
}

// New builds a validator that reports fields under their JSON names, so a
// failing RegisterRequest.PasswordConfirm surfaces as "password_confirm".
func New() *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		tag, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
		if tag == "" || tag == "-" {
			return fld.Name
		}
		return tag
	})
	return &Validator{v: v}
}

// Validate checks s and returns a domain validation error carrying one
// message per offending field, or nil.
func (v *Validator) Validate(s any) error {
	err := v.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return err
	}

	details := make(map[string]string, len(fieldErrs))
	for _, fe := range fieldErrs {
		details[fe.Field()] = describe(fe)
	}
	return domainerrors.ValidationWithDetails("validation failed", details)
}

// describe turns a single tag failure into a human-readable fragment that
// reads naturally after the field name.
func describe(fe validator.FieldError) string {
	param := fe.Param()
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "url":
		return "must be a valid URL"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must not exceed " + param + " characters"
	case "len":
		return "must be exactly " + param + " characters"
	case "oneof":
		return "must be one of: " + param
	case "gte", "gtefield":
		return "must be greater than or equal to " + param
	case "lte", "ltefield":
		return "must be less than or equal to " + param
	case "gt", "gtfield":
		return "must be greater than " + param
	case "lt", "ltfield":
		return "must be less than " + param
	case "eqfield":
		return "does not match"
	default:
		return "is invalid"
	}
}
