package controllers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
	"tipsvendor/app/storage"
)

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation", models.NewValidationError(errors.New("bad"), models.FieldError{Field: "title", Error: "required"}), http.StatusBadRequest},
		{"not found", errors.Wrap(repositories.ErrNotFound, "loading post"), http.StatusNotFound},
		{"forbidden", errors.Wrap(services.ErrForbidden, "deleting self"), http.StatusForbidden},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized},
		{"credentials", services.ErrInvalidCredentials, http.StatusUnauthorized},
		{"expired token", services.ErrTokenExpired, http.StatusBadRequest},
		{"conflict", errors.Wrap(services.ErrConflict, "category in use"), http.StatusConflict},
		{"duplicate", repositories.ErrDuplicate, http.StatusConflict},
		{"upload", errors.Wrap(storage.ErrNotImage, "cover.txt"), http.StatusBadRequest},
		{"unexpected", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, statusFor(tt.err))
		})
	}
}

func TestSendError(t *testing.T) {
	app := newTestApp(t)

	t.Run("JSON field errors", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/api/posts", nil)
		w := httptest.NewRecorder()
		err := models.NewValidationError(errors.New("bad"), models.FieldError{Field: "title", Error: "title is required"})
		app.base.sendError(w, r, err)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body struct {
			Errors map[string]string `json:"errors"`
		}
		decodeBody(t, w, &body)
		assert.Equal(t, "title is required", body.Errors["title"])
	})

	t.Run("JSON internal error hides details", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
		w := httptest.NewRecorder()
		app.base.sendError(w, r, errors.New("connection refused"))

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.NotContains(t, w.Body.String(), "connection refused")
	})

	t.Run("HTML error page", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/missing", nil)
		w := httptest.NewRecorder()
		app.base.NotFound(w, r)

		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, w.Body.String(), "Not found")
	})
}

func TestFlash(t *testing.T) {
	app := newTestApp(t)

	w := httptest.NewRecorder()
	setFlash(w, "success", "Saved | done")
	flash := flashOf(w)
	require.NotNil(t, flash)
	assert.Equal(t, "success", flash.Kind)
	assert.Equal(t, "Saved | done", flash.Message)

	t.Run("shown once on the next page", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodGet, "/about", nil)
		for _, c := range w.Result().Cookies() {
			r.AddCookie(c)
		}
		page := httptest.NewRecorder()
		app.base.render(page, r, http.StatusOK, "about", nil)

		assert.Contains(t, page.Body.String(), "Saved | done")
		cleared := page.Result().Cookies()
		require.Len(t, cleared, 1)
		assert.Equal(t, flashCookie, cleared[0].Name)
		assert.Less(t, cleared[0].MaxAge, 0)
	})
}

func TestWantsJSON(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/blog", nil)
	assert.False(t, wantsJSON(r))

	r.Header.Set("Accept", "application/json")
	assert.True(t, wantsJSON(r))

	assert.True(t, wantsJSON(httptest.NewRequest(http.MethodGet, "/api/predictions", nil)))
}
