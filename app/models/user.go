package models

import (
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Roles
const (
	RoleUser   = "user"
	RoleEditor = "editor"
	RoleAdmin  = "admin"
)

// Roles lists every assignable role, lowest privilege first.
var Roles = []string{RoleUser, RoleEditor, RoleAdmin}

// User is a site account. PasswordHash never leaves the server.
type User struct {
	ID            string       `json:"id"`
	Name          string       `json:"name" validate:"required,min=2,max=80"`
	Email         string       `json:"email" validate:"required,email"`
	PasswordHash  []byte       `json:"-"`
	Role          string       `json:"role" validate:"required,oneof=user editor admin"`
	EmailVerified bool         `json:"email_verified"`
	Subscription  Subscription `json:"subscription"`
	CreatedAt     time.Time    `json:"created_at"`
	UpdatedAt     time.Time    `json:"updated_at"`
	LastLogin     time.Time    `json:"last_login"`
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// HasRole reports whether the user holds one of roles.
func (u *User) HasRole(roles ...string) bool {
	for _, r := range roles {
		if u.Role == r {
			return true
		}
	}
	return false
}

func (u *User) IsAdmin() bool  { return u.Role == RoleAdmin }
func (u *User) IsEditor() bool { return u.HasRole(RoleEditor, RoleAdmin) }

// IsVIP reports whether the user may see VIP predictions at now.
func (u *User) IsVIP(now time.Time) bool {
	return u.IsAdmin() || u.Subscription.IsActive(now)
}

func (u *User) Validate() error {
	u.Name = CleanString(u.Name)
	u.Email = CleanString(u.Email, true)
	return ValidateStruct(u)
}

// ValidRole reports whether role is one of Roles.
func ValidRole(role string) bool {
	for _, r := range Roles {
		if r == role {
			return true
		}
	}
	return false
}
