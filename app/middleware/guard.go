package middleware

import (
	"net/http"
	"net/url"
	"strings"

	"tipsvendor/app/models"
)

// Decision is the outcome of checking a path against the access table.
type Decision int

const (
	Allow Decision = iota
	RedirectLogin
	RedirectHome
	RedirectDashboard
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case RedirectLogin:
		return "redirect-login"
	case RedirectHome:
		return "redirect-home"
	case RedirectDashboard:
		return "redirect-dashboard"
	}
	return "unknown"
}

// Rule restricts a path prefix to roles. An empty Roles list admits any
// signed-in user.
type Rule struct {
	Prefix string
	Roles  []string
}

// Rules is the access table for protected pages.
var Rules = []Rule{
	{Prefix: "/admin/users", Roles: []string{models.RoleAdmin}},
	{Prefix: "/admin/predictions", Roles: []string{models.RoleAdmin}},
	{Prefix: "/admin/wallet", Roles: []string{models.RoleAdmin}},
	{Prefix: "/admin/blog", Roles: []string{models.RoleEditor, models.RoleAdmin}},
	{Prefix: "/admin/categories", Roles: []string{models.RoleEditor, models.RoleAdmin}},
	{Prefix: "/admin/seo", Roles: []string{models.RoleEditor, models.RoleAdmin}},
	{Prefix: "/admin", Roles: []string{models.RoleEditor, models.RoleAdmin}},
	{Prefix: "/dashboard"},
	{Prefix: "/wallet"},
	{Prefix: "/account"},
	{Prefix: "/vip"},
}

// GuestOnly paths make no sense for a signed-in user.
var GuestOnly = []string{"/login", "/register", "/forgot-password"}

func matchPrefix(path, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

// Evaluate decides what to do with a request for path by user, which is nil
// for guests. The longest matching prefix wins.
func Evaluate(path string, user *models.User) Decision {
	var match *Rule
	for i := range Rules {
		r := &Rules[i]
		if matchPrefix(path, r.Prefix) && (match == nil || len(r.Prefix) > len(match.Prefix)) {
			match = r
		}
	}

	if match != nil {
		if user == nil {
			return RedirectLogin
		}
		if len(match.Roles) > 0 && !user.HasRole(match.Roles...) {
			return RedirectHome
		}
		return Allow
	}

	if user != nil {
		for _, p := range GuestOnly {
			if matchPrefix(path, p) {
				return RedirectDashboard
			}
		}
	}
	return Allow
}

// LoginURL is where guests are sent, remembering the page they wanted.
func LoginURL(next string) string {
	if next == "" || next == "/" {
		return "/login"
	}
	return "/login?next=" + url.QueryEscape(next)
}

// Guard applies Evaluate to every request.
func Guard(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch Evaluate(r.URL.Path, CurrentUser(r.Context())) {
		case RedirectLogin:
			http.Redirect(w, r, LoginURL(r.URL.RequestURI()), http.StatusSeeOther)
		case RedirectHome:
			http.Redirect(w, r, "/", http.StatusSeeOther)
		case RedirectDashboard:
			http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		default:
			next.ServeHTTP(w, r)
		}
	})
}

// SafeNext returns next when it is a local path, else "/dashboard".
func SafeNext(next string) string {
	if strings.HasPrefix(next, "/") && !strings.HasPrefix(next, "//") && !strings.HasPrefix(next, "/\\") {
		return next
	}
	return "/dashboard"
}
