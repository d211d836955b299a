package controllers

import (
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipsvendor/app/models"
)

func setupPageRouter(pc *PageController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/", pc.Home).Methods("GET")
	router.HandleFunc("/about", pc.About).Methods("GET")
	router.HandleFunc("/contact", pc.ContactForm).Methods("GET")
	router.HandleFunc("/contact", pc.SendContact).Methods("POST")
	router.HandleFunc("/pricing", pc.Pricing).Methods("GET")
	router.HandleFunc("/healthz", pc.Healthz).Methods("GET")
	router.HandleFunc("/api/send-email", pc.SendContact).Methods("POST")
	router.HandleFunc("/api/convert", pc.Convert).Methods("GET")
	return router
}

func newTestPageController(app *testApp, converter CurrencyConverter) *PageController {
	return NewPageController(app.base, app.predictions, app.posts, app.contact, app.wallet, converter)
}

func TestPageController_Home(t *testing.T) {
	app := newTestApp(t)
	router := setupPageRouter(newTestPageController(app, nil))
	app.createPost(t, "Transfer Window Winners", true)
	app.createPrediction(t, "Morning Town", time.Now().Add(time.Hour), models.PlanFree)

	w := serve(t, router, request{target: "/"})
	assert.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Transfer Window Winners")
	assert.Contains(t, body, "Morning Town")
	assert.Contains(t, body, `data-feed="/live/tips"`)

	w = serve(t, router, request{target: "/about"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = serve(t, router, request{target: "/healthz"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", w.Body.String())
}

func TestPageController_Contact(t *testing.T) {
	app := newTestApp(t)
	router := setupPageRouter(newTestPageController(app, nil))

	t.Run("prefilled for members", func(t *testing.T) {
		user := app.createUser(t, "punter@example.com", models.RoleUser)
		w := serve(t, router, request{target: "/contact", user: user})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `value="punter@example.com"`)
	})

	t.Run("invalid form", func(t *testing.T) {
		w := serve(t, router, request{method: "POST", target: "/contact", form: url.Values{"name": {"Jo"}, "email": {"jo@example.com"}}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Empty(t, app.sent())
	})

	t.Run("form sends mail", func(t *testing.T) {
		w := serve(t, router, request{method: "POST", target: "/contact", form: url.Values{
			"name": {"Jo Bloggs"}, "email": {"jo@example.com"}, "subject": {"Refund"}, "message": {"Please refund my plan."},
		}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "success", flashOf(w).Kind)

		sent := app.sent()
		require.Len(t, sent, 1)
		assert.Equal(t, "support@example.com", sent[0].To[0].Address)
		app.sender.Reset()
	})

	t.Run("api", func(t *testing.T) {
		w := serve(t, router, request{method: "POST", target: "/api/send-email", json: map[string]string{
			"name": "Jo Bloggs", "email": "jo@example.com", "subject": "Hello", "message": "Just saying hello.",
		}})
		assert.Equal(t, http.StatusAccepted, w.Code)
		require.Len(t, app.sent(), 1)

		w = serve(t, router, request{method: "POST", target: "/api/send-email", json: map[string]string{"name": "Jo"}})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		var body struct {
			Errors map[string]string `json:"errors"`
		}
		decodeBody(t, w, &body)
		assert.Contains(t, body.Errors, "email")
	})
}

func TestPageController_Pricing(t *testing.T) {
	app := newTestApp(t)

	t.Run("with conversion", func(t *testing.T) {
		router := setupPageRouter(newTestPageController(app, &stubConverter{rate: decimal.RequireFromString("0.001")}))
		w := serve(t, router, request{target: "/pricing"})
		assert.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Contains(t, body, "Weekly VIP")
		assert.Contains(t, body, "about $5.00")
	})

	t.Run("rates unavailable", func(t *testing.T) {
		router := setupPageRouter(newTestPageController(app, &stubConverter{err: errors.New("timeout")}))
		w := serve(t, router, request{target: "/pricing"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.NotContains(t, w.Body.String(), `class="converted"`)
	})
}

func TestPageController_Convert(t *testing.T) {
	app := newTestApp(t)
	router := setupPageRouter(newTestPageController(app, &stubConverter{rate: decimal.NewFromInt(2)}))

	w := serve(t, router, request{target: "/api/convert?amount=10.5&from=USD&to=EUR"})
	assert.Equal(t, http.StatusOK, w.Code)
	var body struct {
		Amount   decimal.Decimal `json:"amount"`
		Currency string          `json:"currency"`
	}
	decodeBody(t, w, &body)
	assert.True(t, body.Amount.Equal(decimal.NewFromInt(21)))
	assert.Equal(t, "EUR", body.Currency)

	w = serve(t, router, request{target: "/api/convert?amount=ten&from=USD&to=EUR"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = serve(t, router, request{target: "/api/convert?amount=10&from=US&to=EUR"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	noRates := setupPageRouter(newTestPageController(app, nil))
	w = serve(t, noRates, request{target: "/api/convert?amount=10&from=USD&to=EUR"})
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
