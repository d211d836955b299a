package controllers

import (
	"encoding/base64"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"tipsvendor/app/logger"
	"tipsvendor/app/middleware"
	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
	"tipsvendor/app/storage"
	"tipsvendor/app/views"
)

const flashCookie = "tv_flash"

// Base holds what every controller needs to answer a request.
type Base struct {
	views    *views.Renderer
	reporter *logger.Reporter
	now      func() time.Time
}

func NewBase(renderer *views.Renderer, reporter *logger.Reporter) *Base {
	return &Base{views: renderer, reporter: reporter, now: time.Now}
}

// wantsJSON reports whether the response should be JSON rather than HTML.
func wantsJSON(r *http.Request) bool {
	return middleware.IsAPI(r) || strings.Contains(r.Header.Get("Accept"), "application/json")
}

func currentUser(r *http.Request) *models.User {
	return middleware.CurrentUser(r.Context())
}

// render writes page name with status. The flash cookie is consumed here.
func (b *Base) render(w http.ResponseWriter, r *http.Request, status int, name string, page *views.Page) {
	if page == nil {
		page = &views.Page{}
	}
	page.User = currentUser(r)
	page.Path = r.URL.Path
	if page.Flash == nil {
		page.Flash = b.popFlash(w, r)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := b.views.Render(w, name, page); err != nil {
		b.reporter.Error("rendering page", err, person(r), "page", name)
	}
}

func (b *Base) sendJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// statusFor maps service errors onto HTTP status codes.
func statusFor(err error) int {
	cause := errors.Cause(err)
	var verr *models.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case cause == repositories.ErrNotFound:
		return http.StatusNotFound
	case cause == services.ErrForbidden:
		return http.StatusForbidden
	case cause == services.ErrUnauthorized, cause == services.ErrInvalidCredentials:
		return http.StatusUnauthorized
	case cause == services.ErrInvalidToken, cause == services.ErrTokenExpired:
		return http.StatusBadRequest
	case cause == services.ErrConflict, cause == repositories.ErrDuplicate:
		return http.StatusConflict
	case cause == storage.ErrNotImage, cause == storage.ErrTooLarge:
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// publicMessage is the text shown to clients for err.
func publicMessage(err error, status int) string {
	switch status {
	case http.StatusNotFound:
		return "Not found"
	case http.StatusInternalServerError:
		return "Something went wrong. Please try again."
	}
	return errors.Cause(err).Error()
}

// sendError answers with the status that fits err. Unexpected errors are
// reported; validation errors carry their field messages.
func (b *Base) sendError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		b.reporter.Error("handling request", err, person(r), "path", r.URL.Path)
	}

	if wantsJSON(r) {
		var verr *models.ValidationError
		if errors.As(err, &verr) && len(verr.Fields) > 0 {
			b.sendJSON(w, status, map[string]interface{}{"errors": verr.FieldMap()})
			return
		}
		b.sendJSON(w, status, map[string]string{"error": publicMessage(err, status)})
		return
	}
	b.renderStatus(w, r, status, publicMessage(err, status))
}

// renderStatus shows the error page.
func (b *Base) renderStatus(w http.ResponseWriter, r *http.Request, status int, message string) {
	b.render(w, r, status, "error", &views.Page{
		Title: http.StatusText(status),
		Data:  map[string]interface{}{"Status": status, "Message": message},
	})
}

// NotFound answers unknown routes.
func (b *Base) NotFound(w http.ResponseWriter, r *http.Request) {
	b.sendError(w, r, repositories.ErrNotFound)
}

// fieldErrors extracts per-field messages; ok is false for other errors.
func fieldErrors(err error) (map[string]string, bool) {
	var verr *models.ValidationError
	if !errors.As(err, &verr) {
		return nil, false
	}
	if len(verr.Fields) == 0 {
		return map[string]string{"form": verr.Error()}, true
	}
	return verr.FieldMap(), true
}

// setFlash stores a message for the next rendered page.
func setFlash(w http.ResponseWriter, kind, message string) {
	http.SetCookie(w, &http.Cookie{
		Name:     flashCookie,
		Value:    base64.RawURLEncoding.EncodeToString([]byte(kind + "|" + message)),
		Path:     "/",
		MaxAge:   60,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

func (b *Base) popFlash(w http.ResponseWriter, r *http.Request) *views.Flash {
	c, err := r.Cookie(flashCookie)
	if err != nil {
		return nil
	}
	http.SetCookie(w, &http.Cookie{Name: flashCookie, Path: "/", MaxAge: -1})
	raw, err := base64.RawURLEncoding.DecodeString(c.Value)
	if err != nil {
		return nil
	}
	kind, message, ok := strings.Cut(string(raw), "|")
	if !ok {
		return nil
	}
	return &views.Flash{Kind: kind, Message: message}
}

// redirect sends the browser to url after a form post, with a flash message.
func redirect(w http.ResponseWriter, r *http.Request, url, kind, message string) {
	if message != "" {
		setFlash(w, kind, message)
	}
	http.Redirect(w, r, url, http.StatusSeeOther)
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return models.NewValidationError(errors.Wrap(err, "invalid JSON"))
	}
	return nil
}

// intVar reads a numeric route variable.
func intVar(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)[name])
	if err != nil {
		return 0, repositories.ErrNotFound
	}
	return id, nil
}

// queryInt reads a positive query parameter, falling back to def.
func queryInt(r *http.Request, name string, def int) int {
	if v, err := strconv.Atoi(r.URL.Query().Get(name)); err == nil && v > 0 {
		return v
	}
	return def
}

func person(r *http.Request) *logger.Person {
	u := currentUser(r)
	if u == nil {
		return nil
	}
	return &logger.Person{ID: u.ID, Name: u.Name, Email: u.Email}
}

// requireRole returns ErrUnauthorized for guests and ErrForbidden for users
// without one of roles.
func requireRole(r *http.Request, roles ...string) (*models.User, error) {
	u := currentUser(r)
	if u == nil {
		return nil, services.ErrUnauthorized
	}
	if len(roles) > 0 && !u.HasRole(roles...) {
		return nil, services.ErrForbidden
	}
	return u, nil
}

func requireEditor(r *http.Request) (*models.User, error) {
	return requireRole(r, models.RoleEditor, models.RoleAdmin)
}

func formBool(r *http.Request, name string) bool {
	v := r.FormValue(name)
	return v == "true" || v == "on" || v == "1"
}
