package models

import "strings"

// RegisterForm is submitted by the sign-up page.
type RegisterForm struct {
	Name            string `json:"name" validate:"required,min=2,max=80"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (f *RegisterForm) Validate() error {
	f.Name = CleanString(f.Name)
	f.Email = CleanString(f.Email, true)
	return ValidateStruct(f)
}

// LoginForm is submitted by the sign-in page.
type LoginForm struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (f *LoginForm) Validate() error {
	f.Email = CleanString(f.Email, true)
	return ValidateStruct(f)
}

// ResetPasswordForm confirms a password reset link.
type ResetPasswordForm struct {
	UID             string `json:"uid" validate:"required"`
	Token           string `json:"token" validate:"required"`
	Password        string `json:"password" validate:"required,min=8,max=72"`
	PasswordConfirm string `json:"password_confirm" validate:"required,eqfield=Password"`
}

func (f *ResetPasswordForm) Validate() error {
	return ValidateStruct(f)
}

// ContactForm is the public contact page.
type ContactForm struct {
	Name    string `json:"name" validate:"required,min=2,max=80"`
	Email   string `json:"email" validate:"required,email"`
	Subject string `json:"subject" validate:"required,max=150"`
	Message string `json:"message" validate:"required,min=10,max=5000"`
}

func (f *ContactForm) Validate() error {
	f.Name = CleanString(f.Name)
	f.Email = CleanString(f.Email, true)
	f.Subject = CleanString(f.Subject)
	f.Message = strings.TrimSpace(f.Message)
	return ValidateStruct(f)
}
