package controllers

import (
	"net/http"
	"net/url"
	"strconv"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
)

func setupPredictionRouter(pc *PredictionController) *mux.Router {
	router := mux.NewRouter()
	router.HandleFunc("/tips", pc.Tips).Methods("GET")
	router.HandleFunc("/vip", pc.VIP).Methods("GET")
	router.HandleFunc("/api/predictions", pc.Board).Methods("GET")
	router.HandleFunc("/api/predictions/results", pc.Results).Methods("GET")
	router.HandleFunc("/api/predictions/stats", pc.Stats).Methods("GET")
	router.HandleFunc("/admin/predictions", pc.AdminIndex).Methods("GET")
	router.HandleFunc("/admin/predictions", pc.Create).Methods("POST")
	router.HandleFunc("/admin/predictions/new", pc.New).Methods("GET")
	router.HandleFunc("/admin/predictions/{id:[0-9]+}/edit", pc.Edit).Methods("GET")
	router.HandleFunc("/admin/predictions/{id:[0-9]+}", pc.Update).Methods("POST")
	router.HandleFunc("/admin/predictions/{id:[0-9]+}/settle", pc.Settle).Methods("POST")
	router.HandleFunc("/admin/predictions/{id:[0-9]+}/delete", pc.Delete).Methods("POST")
	return router
}

func (a *testApp) createPrediction(t *testing.T, home string, kickoff time.Time, plan string) *models.Prediction {
	t.Helper()
	p := &models.Prediction{
		League:    "Premier League",
		HomeTeam:  home,
		AwayTeam:  "Visitors FC",
		KickoffAt: kickoff,
		Tip:       "Home win",
		Odds:      decimal.NewFromFloat(1.85),
		Plan:      plan,
	}
	require.NoError(t, a.predictions.Create(p))
	return p
}

func TestPredictionController_Public(t *testing.T) {
	app := newTestApp(t)
	router := setupPredictionRouter(NewPredictionController(app.base, app.predictions))
	later := time.Now().Add(2 * time.Hour)
	app.createPrediction(t, "Free Rovers", later, models.PlanFree)
	app.createPrediction(t, "Premium United", later, models.PlanVIP)
	old := app.createPrediction(t, "Old Athletic", time.Now().Add(-72*time.Hour), models.PlanFree)
	_, err := app.predictions.Settle(old.ID, models.ResultWon)
	require.NoError(t, err)

	t.Run("tips page", func(t *testing.T) {
		w := serve(t, router, request{target: "/tips"})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Free Rovers")
		assert.NotContains(t, w.Body.String(), "Premium United")
		assert.Contains(t, w.Body.String(), "Old Athletic")
	})

	t.Run("api board locks VIP for guests", func(t *testing.T) {
		w := serve(t, router, request{target: "/api/predictions"})
		assert.Equal(t, http.StatusOK, w.Code)
		var board services.TipBoard
		decodeBody(t, w, &board)
		assert.Len(t, board.Free, 1)
		assert.Empty(t, board.VIP)
		assert.True(t, board.VIPLocked)
		assert.Equal(t, 1, board.VIPCount)
	})

	t.Run("api results and stats", func(t *testing.T) {
		w := serve(t, router, request{target: "/api/predictions/results"})
		var results []models.Prediction
		decodeBody(t, w, &results)
		require.Len(t, results, 1)
		assert.Equal(t, "Old Athletic", results[0].HomeTeam)

		w = serve(t, router, request{target: "/api/predictions/stats"})
		var stats models.PredictionStats
		decodeBody(t, w, &stats)
		assert.Equal(t, 1, stats.Won)
		assert.True(t, stats.WinRate.Equal(decimal.NewFromInt(100)))
	})

	t.Run("vip page sends non-subscribers to pricing", func(t *testing.T) {
		user := app.createUser(t, "punter@example.com", models.RoleUser)
		w := serve(t, router, request{target: "/vip", user: user})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		assert.Equal(t, "/pricing", w.Header().Get("Location"))
	})

	t.Run("vip page for subscribers", func(t *testing.T) {
		user := app.createUser(t, "vip@example.com", models.RoleUser)
		require.NoError(t, app.subs.Activate(user, "weekly", 7))
		w := serve(t, router, request{target: "/vip", user: user})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Premium United")
	})
}

func TestPredictionController_Admin(t *testing.T) {
	app := newTestApp(t)
	router := setupPredictionRouter(NewPredictionController(app.base, app.predictions))
	admin := app.createUser(t, "admin@example.com", models.RoleAdmin)
	form := url.Values{
		"league":     {"La Liga"},
		"home_team":  {"Sevilla"},
		"away_team":  {"Betis"},
		"kickoff_at": {"2030-05-04T19:00"},
		"tip":        {"Over 2.5"},
		"odds":       {"2.10"},
		"confidence": {"70"},
		"plan":       {"vip"},
	}

	t.Run("new form", func(t *testing.T) {
		w := serve(t, router, request{target: "/admin/predictions/new", user: admin})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `name="kickoff_at"`)
	})

	t.Run("unparseable values", func(t *testing.T) {
		bad := url.Values{}
		for k, v := range form {
			bad[k] = v
		}
		bad.Set("odds", "evens")
		bad.Set("kickoff_at", "tomorrow")
		w := serve(t, router, request{method: "POST", target: "/admin/predictions", user: admin, form: bad})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "odds must be a number")
		assert.Contains(t, w.Body.String(), "kickoff must be a date and time")
	})

	t.Run("odds of one are rejected", func(t *testing.T) {
		bad := url.Values{}
		for k, v := range form {
			bad[k] = v
		}
		bad.Set("odds", "1")
		w := serve(t, router, request{method: "POST", target: "/admin/predictions", user: admin, form: bad})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	var created *models.Prediction
	t.Run("create", func(t *testing.T) {
		w := serve(t, router, request{method: "POST", target: "/admin/predictions", user: admin, form: form})
		assert.Equal(t, http.StatusSeeOther, w.Code)

		all, err := app.predictions.List(repositories.PredictionFilter{})
		require.NoError(t, err)
		require.Len(t, all, 1)
		created = all[0]
		assert.True(t, created.KickoffAt.Equal(time.Date(2030, 5, 4, 19, 0, 0, 0, time.UTC)))
		assert.True(t, created.Odds.Equal(decimal.NewFromFloat(2.1)))
		assert.Equal(t, models.PlanVIP, created.Plan)
		assert.Equal(t, models.ResultPending, created.Result)
	})

	t.Run("settle", func(t *testing.T) {
		target := "/admin/predictions/" + strconv.Itoa(created.ID) + "/settle"
		w := serve(t, router, request{method: "POST", target: target, user: admin, form: url.Values{"result": {"won"}}})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		got, err := app.predictions.Get(created.ID)
		require.NoError(t, err)
		assert.Equal(t, models.ResultWon, got.Result)

		w = serve(t, router, request{method: "POST", target: target, user: admin, form: url.Values{"result": {"maybe"}}})
		assert.Equal(t, "error", flashOf(w).Kind)
	})

	t.Run("update keeps the result", func(t *testing.T) {
		target := "/admin/predictions/" + strconv.Itoa(created.ID)
		edit := serve(t, router, request{target: target + "/edit", user: admin})
		assert.Equal(t, http.StatusOK, edit.Code)
		assert.Contains(t, edit.Body.String(), "2030-05-04T19:00")

		changed := url.Values{}
		for k, v := range form {
			changed[k] = v
		}
		changed.Set("tip", "BTTS")
		w := serve(t, router, request{method: "POST", target: target, user: admin, form: changed})
		assert.Equal(t, http.StatusSeeOther, w.Code)

		got, err := app.predictions.Get(created.ID)
		require.NoError(t, err)
		assert.Equal(t, "BTTS", got.Tip)
		assert.Equal(t, models.ResultWon, got.Result)
	})

	t.Run("list and delete", func(t *testing.T) {
		w := serve(t, router, request{target: "/admin/predictions", user: admin})
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Sevilla vs Betis")

		w = serve(t, router, request{method: "POST", target: "/admin/predictions/" + strconv.Itoa(created.ID) + "/delete", user: admin})
		assert.Equal(t, http.StatusSeeOther, w.Code)
		_, err := app.predictions.Get(created.ID)
		assert.Error(t, err)
	})
}
