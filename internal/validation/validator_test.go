package validation_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainerrors "github.com/platefulapp/plateful-server/internal/errors"
	"github.com/platefulapp/plateful-server/internal/validation"
)

type signupForm struct {
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=1024"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
	Name            string `json:"name" validate:"required"`
}

func validForm() signupForm {
	return signupForm{
		Email:           "cook@example.com",
		Password:        "plenty-secure-1",
		PasswordConfirm: "plenty-secure-1",
		Name:            "Test Cook",
	}
}

func TestValidate_Passes(t *testing.T) {
	v := validation.New()

	assert.NoError(t, v.Validate(validForm()))
}

func TestValidate_FieldErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name        string
		mutate      func(*signupForm)
		wantField   string
		wantMessage string
	}{
		{
			name:        "missing name",
			mutate:      func(f *signupForm) { f.Name = "" },
			wantField:   "name",
			wantMessage: "is required",
		},
		{
			name:        "malformed email",
			mutate:      func(f *signupForm) { f.Email = "not-an-email" },
			wantField:   "email",
			wantMessage: "must be a valid email address",
		},
		{
			name:        "password too short",
			mutate:      func(f *signupForm) { f.Password = "short"; f.PasswordConfirm = "short" },
			wantField:   "password",
			wantMessage: "must be at least 8 characters",
		},
		{
			name: "password too long",
			mutate: func(f *signupForm) {
				long := strings.Repeat("x", 1025)
				f.Password = long
				f.PasswordConfirm = long
			},
			wantField:   "password",
			wantMessage: "must not exceed 1024 characters",
		},
		{
			name:        "confirmation differs",
			mutate:      func(f *signupForm) { f.PasswordConfirm = "something else" },
			wantField:   "password_confirm",
			wantMessage: "does not match",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			form := validForm()
			tt.mutate(&form)

			err := v.Validate(form)
			require.Error(t, err)
			assert.True(t, domainerrors.Is(err, domainerrors.ErrValidation))

			var domainErr *domainerrors.Error
			require.True(t, errors.As(err, &domainErr))
			details, ok := domainErr.Details.(map[string]string)
			require.True(t, ok)
			assert.Equal(t, tt.wantMessage, details[tt.wantField])
		})
	}
}

func TestValidate_UsesJSONFieldNames(t *testing.T) {
	v := validation.New()

	form := validForm()
	form.PasswordConfirm = "mismatch"

	err := v.Validate(form)
	require.Error(t, err)

	var domainErr *domainerrors.Error
	require.True(t, errors.As(err, &domainErr))
	details, ok := domainErr.Details.(map[string]string)
	require.True(t, ok)
	assert.Contains(t, details, "password_confirm")
	assert.NotContains(t, details, "PasswordConfirm")
}
