package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFormValidate(t *testing.T) {
	tests := []struct {
		name      string
		form      RegisterForm
		wantField string
	}{
		{
			name: "valid",
			form: RegisterForm{Name: "Ada", Email: " Ada@Example.com ", Password: "secret123", PasswordConfirm: "secret123"},
		},
		{
			name:      "short password",
			form:      RegisterForm{Name: "Ada", Email: "ada@example.com", Password: "short", PasswordConfirm: "short"},
			wantField: "password",
		},
		{
			name:      "mismatched confirmation",
			form:      RegisterForm{Name: "Ada", Email: "ada@example.com", Password: "secret123", PasswordConfirm: "secret124"},
			wantField: "password_confirm",
		},
		{
			name:      "bad email",
			form:      RegisterForm{Name: "Ada", Email: "ada", Password: "secret123", PasswordConfirm: "secret123"},
			wantField: "email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.form.Validate()
			if tt.wantField == "" {
				require.NoError(t, err)
				assert.Equal(t, "ada@example.com", tt.form.Email)
				return
			}
			verr, ok := err.(*ValidationError)
			require.True(t, ok, "expected *ValidationError, got %T", err)
			assert.Contains(t, verr.FieldMap(), tt.wantField)
		})
	}
}

func TestRequiredTranslation(t *testing.T) {
	f := LoginForm{}
	err := f.Validate()
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Equal(t, "email is required", verr.FieldMap()["email"])
	assert.Equal(t, "password is required", verr.FieldMap()["password"])
}

func TestContactFormValidate(t *testing.T) {
	f := ContactForm{Name: "Tunde", Email: "t@example.com", Subject: "VIP access", Message: "Please help me renew my plan."}
	assert.NoError(t, f.Validate())

	f.Message = "hi"
	assert.Error(t, f.Validate())
}

func TestSEOPageValidate(t *testing.T) {
	page := &SEOPage{
		Path:            "Best-Betting-Tips/",
		Title:           "Best betting tips",
		MetaDescription: "Daily football predictions.",
		Content:         strings.Repeat("Expert analysis. ", 10),
	}
	require.NoError(t, page.Validate())
	assert.Equal(t, "/best-betting-tips", page.Path)

	page.Path = "/bad path"
	err := page.Validate()
	verr, ok := err.(*ValidationError)
	require.True(t, ok)
	assert.Contains(t, verr.FieldMap()["path"], "absolute path")
}

func TestUserRoles(t *testing.T) {
	u := &User{Name: "Ed", Email: "ed@example.com", Role: RoleEditor}
	assert.NoError(t, u.Validate())
	assert.True(t, u.IsEditor())
	assert.False(t, u.IsAdmin())
	assert.True(t, u.HasRole(RoleUser, RoleEditor))

	u.Role = "owner"
	assert.Error(t, u.Validate())
	assert.False(t, ValidRole("owner"))

	require.NoError(t, u.SetPassword("secret123"))
	assert.NoError(t, u.CheckPassword("secret123"))
	assert.Error(t, u.CheckPassword("wrong"))
}
