package controllers

import (
	"net/http"

	"github.com/pkg/errors"

	"tipsvendor/app/middleware"
	"tipsvendor/app/models"
	"tipsvendor/app/services"
	"tipsvendor/app/views"
)

// AuthController handles sign-up, sign-in and the email link flows.
type AuthController struct {
	*Base
	auth *services.AuthService
}

func NewAuthController(base *Base, auth *services.AuthService) *AuthController {
	return &AuthController{Base: base, auth: auth}
}

func (ac *AuthController) renderLogin(w http.ResponseWriter, r *http.Request, status int, form *models.LoginForm, next string, errs map[string]string) {
	ac.render(w, r, status, "login", &views.Page{
		Title:  "Log in",
		Errors: errs,
		Data:   map[string]interface{}{"Form": form, "Next": next},
	})
}

func (ac *AuthController) LoginForm(w http.ResponseWriter, r *http.Request) {
	ac.renderLogin(w, r, http.StatusOK, &models.LoginForm{}, r.URL.Query().Get("next"), nil)
}

func (ac *AuthController) Login(w http.ResponseWriter, r *http.Request) {
	form := &models.LoginForm{
		Email:    r.FormValue("email"),
		Password: r.FormValue("password"),
	}
	next := r.FormValue("next")

	_, token, err := ac.auth.Login(form)
	if err != nil {
		form.Password = ""
		if errors.Cause(err) == services.ErrInvalidCredentials {
			ac.renderLogin(w, r, http.StatusUnauthorized, form, next, map[string]string{"password": err.Error()})
			return
		}
		if fields, ok := fieldErrors(err); ok {
			ac.renderLogin(w, r, http.StatusBadRequest, form, next, fields)
			return
		}
		ac.sendError(w, r, err)
		return
	}

	middleware.SetSessionCookie(w, r, token, ac.auth.SessionTTL())
	http.Redirect(w, r, middleware.SafeNext(next), http.StatusSeeOther)
}

func (ac *AuthController) RegisterForm(w http.ResponseWriter, r *http.Request) {
	ac.render(w, r, http.StatusOK, "register", &views.Page{Title: "Create an account", Data: &models.RegisterForm{}})
}

// Register creates the account and signs the new user in.
func (ac *AuthController) Register(w http.ResponseWriter, r *http.Request) {
	form := &models.RegisterForm{
		Name:            r.FormValue("name"),
		Email:           r.FormValue("email"),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}
	if _, err := ac.auth.Register(form); err != nil {
		if fields, ok := fieldErrors(err); ok {
			form.Password, form.PasswordConfirm = "", ""
			ac.render(w, r, http.StatusBadRequest, "register", &views.Page{Title: "Create an account", Errors: fields, Data: form})
			return
		}
		ac.sendError(w, r, err)
		return
	}

	_, token, err := ac.auth.Login(&models.LoginForm{Email: form.Email, Password: form.Password})
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	middleware.SetSessionCookie(w, r, token, ac.auth.SessionTTL())
	redirect(w, r, "/dashboard", "success", "Welcome! We have emailed you a link to confirm your address.")
}

func (ac *AuthController) Logout(w http.ResponseWriter, r *http.Request) {
	middleware.ClearSessionCookie(w, r)
	redirect(w, r, "/", "info", "You have been logged out.")
}

func (ac *AuthController) ForgotPasswordForm(w http.ResponseWriter, r *http.Request) {
	ac.render(w, r, http.StatusOK, "forgot_password", &views.Page{
		Title: "Reset your password",
		Data:  map[string]interface{}{"Sent": false, "Email": ""},
	})
}

func (ac *AuthController) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	email := r.FormValue("email")
	if err := ac.auth.RequestPasswordReset(email); err != nil {
		if fields, ok := fieldErrors(err); ok {
			ac.render(w, r, http.StatusBadRequest, "forgot_password", &views.Page{
				Title:  "Reset your password",
				Errors: fields,
				Data:   map[string]interface{}{"Sent": false, "Email": email},
			})
			return
		}
		ac.sendError(w, r, err)
		return
	}
	ac.render(w, r, http.StatusOK, "forgot_password", &views.Page{
		Title: "Reset your password",
		Data:  map[string]interface{}{"Sent": true, "Email": email},
	})
}

// RequestPasswordReset handles POST /api/reset-password.
func (ac *AuthController) RequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email string `json:"email"`
	}
	if err := decodeJSON(r, &body); err != nil {
		ac.sendError(w, r, err)
		return
	}
	if err := ac.auth.RequestPasswordReset(body.Email); err != nil {
		ac.sendError(w, r, err)
		return
	}
	ac.sendJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
}

func (ac *AuthController) ResetPasswordForm(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	ac.render(w, r, http.StatusOK, "reset_password", &views.Page{
		Title: "Choose a new password",
		Data:  map[string]interface{}{"UID": q.Get("uid"), "Token": q.Get("token")},
	})
}

func (ac *AuthController) ResetPassword(w http.ResponseWriter, r *http.Request) {
	form := &models.ResetPasswordForm{
		UID:             r.FormValue("uid"),
		Token:           r.FormValue("token"),
		Password:        r.FormValue("password"),
		PasswordConfirm: r.FormValue("password_confirm"),
	}
	err := ac.auth.ResetPassword(form)
	switch cause := errors.Cause(err); {
	case err == nil:
		redirect(w, r, "/login", "success", "Your password has been changed. Log in with the new one.")
	case cause == services.ErrInvalidToken, cause == services.ErrTokenExpired:
		redirect(w, r, "/forgot-password", "error", "That reset link is invalid or has expired. Request a new one.")
	default:
		if fields, ok := fieldErrors(err); ok {
			ac.render(w, r, http.StatusBadRequest, "reset_password", &views.Page{
				Title:  "Choose a new password",
				Errors: fields,
				Data:   map[string]interface{}{"UID": form.UID, "Token": form.Token},
			})
			return
		}
		ac.sendError(w, r, err)
	}
}

// VerifyEmail confirms the address behind an emailed link.
func (ac *AuthController) VerifyEmail(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if _, err := ac.auth.VerifyEmail(q.Get("uid"), q.Get("token")); err != nil {
		if c := errors.Cause(err); c == services.ErrInvalidToken || c == services.ErrTokenExpired {
			ac.renderStatus(w, r, http.StatusBadRequest, "This confirmation link is invalid or has expired.")
			return
		}
		ac.sendError(w, r, err)
		return
	}

	next := "/login"
	if currentUser(r) != nil {
		next = "/dashboard"
	}
	redirect(w, r, next, "success", "Thanks, your email address is confirmed.")
}

// ResendVerification emails a fresh confirmation link to the current user.
func (ac *AuthController) ResendVerification(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	if user.EmailVerified {
		redirect(w, r, "/dashboard", "info", "Your email address is already confirmed.")
		return
	}
	if err := ac.auth.SendVerification(user); err != nil {
		ac.sendError(w, r, err)
		return
	}
	redirect(w, r, "/dashboard", "success", "We have sent a new confirmation link to "+user.Email+".")
}
