package controllers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
	"tipsvendor/app/views"
)

// kickoffLayout matches <input type="datetime-local">.
const kickoffLayout = "2006-01-02T15:04"

const recentResults = 10

// PredictionController serves the tip board, the VIP page, the predictions
// API and the admin screens.
type PredictionController struct {
	*Base
	predictions *services.PredictionService
}

func NewPredictionController(base *Base, predictions *services.PredictionService) *PredictionController {
	return &PredictionController{Base: base, predictions: predictions}
}

// Tips shows today's board with recent results.
func (pc *PredictionController) Tips(w http.ResponseWriter, r *http.Request) {
	board, err := pc.predictions.Board(currentUser(r))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	results, err := pc.predictions.Results(recentResults)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	stats, err := pc.predictions.Stats()
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.render(w, r, http.StatusOK, "tips", &views.Page{
		Title:       "Today's football tips",
		Description: "Free football predictions for today's matches with odds and analysis.",
		Keywords:    "football tips, predictions, betting tips",
		Data: map[string]interface{}{
			"Board":   board,
			"Results": results,
			"Stats":   stats,
		},
	})
}

// VIP shows the VIP selections to subscribers. Everyone else is sent to the
// pricing page.
func (pc *PredictionController) VIP(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	board, err := pc.predictions.Board(user)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	now := pc.now()
	if !user.IsVIP(now) {
		redirect(w, r, "/pricing", "info", "VIP tips need an active plan.")
		return
	}
	pc.render(w, r, http.StatusOK, "vip", &views.Page{
		Title: "VIP tips",
		Data: map[string]interface{}{
			"Board":    board,
			"DaysLeft": user.Subscription.DaysLeft(now),
		},
	})
}

// Board handles GET /api/predictions.
func (pc *PredictionController) Board(w http.ResponseWriter, r *http.Request) {
	board, err := pc.predictions.Board(currentUser(r))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, board)
}

// Results handles GET /api/predictions/results.
func (pc *PredictionController) Results(w http.ResponseWriter, r *http.Request) {
	results, err := pc.predictions.Results(queryInt(r, "limit", recentResults))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	if results == nil {
		results = []*models.Prediction{}
	}
	pc.sendJSON(w, http.StatusOK, results)
}

// Stats handles GET /api/predictions/stats.
func (pc *PredictionController) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := pc.predictions.Stats()
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.sendJSON(w, http.StatusOK, stats)
}

// AdminIndex lists every tip, latest kickoff first.
func (pc *PredictionController) AdminIndex(w http.ResponseWriter, r *http.Request) {
	all, err := pc.predictions.List(repositories.PredictionFilter{})
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.render(w, r, http.StatusOK, "admin/predictions", &views.Page{
		Title: "Predictions",
		Data: map[string]interface{}{
			"Predictions": all,
			"Stats":       models.ComputeStats(all),
			"Results":     []string{models.ResultPending, models.ResultWon, models.ResultLost, models.ResultVoid},
		},
	})
}

func (pc *PredictionController) New(w http.ResponseWriter, r *http.Request) {
	p := &models.Prediction{Plan: models.PlanFree, Odds: decimal.NewFromFloat(1.5), Confidence: 60}
	pc.renderForm(w, r, http.StatusOK, p, nil)
}

func (pc *PredictionController) Edit(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	p, err := pc.predictions.Get(id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	pc.renderForm(w, r, http.StatusOK, p, nil)
}

func (pc *PredictionController) renderForm(w http.ResponseWriter, r *http.Request, status int, p *models.Prediction, errs map[string]string) {
	pc.render(w, r, status, "admin/prediction_form", &views.Page{Title: "Prediction", Errors: errs, Data: p})
}

// predictionFromForm reads the admin form. Values that do not parse are
// reported per field.
func predictionFromForm(r *http.Request, p *models.Prediction) map[string]string {
	errs := map[string]string{}
	p.League = r.FormValue("league")
	p.HomeTeam = r.FormValue("home_team")
	p.AwayTeam = r.FormValue("away_team")
	p.Tip = r.FormValue("tip")
	p.Plan = r.FormValue("plan")
	p.Analysis = strings.TrimSpace(r.FormValue("analysis"))

	if kickoff, err := time.ParseInLocation(kickoffLayout, r.FormValue("kickoff_at"), time.UTC); err != nil {
		errs["kickoff_at"] = "kickoff must be a date and time"
	} else {
		p.KickoffAt = kickoff
	}
	if odds, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("odds"))); err != nil {
		errs["odds"] = "odds must be a number"
	} else {
		p.Odds = odds
	}
	if v := r.FormValue("confidence"); v != "" {
		if c, err := strconv.Atoi(v); err != nil {
			errs["confidence"] = "confidence must be a whole number"
		} else {
			p.Confidence = c
		}
	}
	return errs
}

func (pc *PredictionController) Create(w http.ResponseWriter, r *http.Request) {
	p := &models.Prediction{}
	if errs := predictionFromForm(r, p); len(errs) > 0 {
		pc.renderForm(w, r, http.StatusBadRequest, p, errs)
		return
	}
	if err := pc.predictions.Create(p); err != nil {
		pc.formError(w, r, p, err)
		return
	}
	redirect(w, r, "/admin/predictions", "success", "Prediction for "+p.Fixture()+" added.")
}

func (pc *PredictionController) Update(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	p, err := pc.predictions.Get(id)
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	if errs := predictionFromForm(r, p); len(errs) > 0 {
		pc.renderForm(w, r, http.StatusBadRequest, p, errs)
		return
	}
	if err := pc.predictions.Update(p); err != nil {
		pc.formError(w, r, p, err)
		return
	}
	redirect(w, r, "/admin/predictions", "success", "Prediction for "+p.Fixture()+" saved.")
}

func (pc *PredictionController) formError(w http.ResponseWriter, r *http.Request, p *models.Prediction, err error) {
	if fields, ok := fieldErrors(err); ok {
		pc.renderForm(w, r, http.StatusBadRequest, p, fields)
		return
	}
	pc.sendError(w, r, err)
}

// Settle records a result from the admin list.
func (pc *PredictionController) Settle(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	p, err := pc.predictions.Settle(id, r.FormValue("result"))
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			redirect(w, r, "/admin/predictions", "error", fields["result"])
			return
		}
		pc.sendError(w, r, err)
		return
	}
	redirect(w, r, "/admin/predictions", "success", p.Fixture()+" marked "+p.Result+".")
}

func (pc *PredictionController) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := intVar(r, "id")
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	if err := pc.predictions.Delete(id); err != nil {
		pc.sendError(w, r, err)
		return
	}
	redirect(w, r, "/admin/predictions", "success", "Prediction deleted.")
}
