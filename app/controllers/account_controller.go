package controllers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"tipsvendor/app/models"
	"tipsvendor/app/services"
	"tipsvendor/app/views"
)

// AccountController serves the signed-in area and the admin user screens.
type AccountController struct {
	*Base
	users       *services.UserService
	subs        *services.SubscriptionService
	wallet      *services.WalletService
	predictions *services.PredictionService
	posts       *services.PostService
}

func NewAccountController(base *Base, users *services.UserService, subs *services.SubscriptionService,
	wallet *services.WalletService, predictions *services.PredictionService, posts *services.PostService) *AccountController {
	return &AccountController{
		Base:        base,
		users:       users,
		subs:        subs,
		wallet:      wallet,
		predictions: predictions,
		posts:       posts,
	}
}

func (ac *AccountController) Dashboard(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	board, err := ac.predictions.Board(user)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	wallet, err := ac.wallet.Wallet(user.ID)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	ac.render(w, r, http.StatusOK, "dashboard", &views.Page{
		Title: "Dashboard",
		Data: map[string]interface{}{
			"Board":    board,
			"Wallet":   wallet,
			"DaysLeft": user.Subscription.DaysLeft(ac.now()),
		},
	})
}

func (ac *AccountController) Account(w http.ResponseWriter, r *http.Request) {
	ac.renderAccount(w, r, http.StatusOK, nil)
}

func (ac *AccountController) renderAccount(w http.ResponseWriter, r *http.Request, status int, errs map[string]string) {
	user, err := requireRole(r)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	ac.render(w, r, status, "account", &views.Page{
		Title:  "Your account",
		Errors: errs,
		Data:   map[string]interface{}{"DaysLeft": user.Subscription.DaysLeft(ac.now())},
	})
}

// Freeze pauses the current user's plan.
func (ac *AccountController) Freeze(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	days, err := strconv.Atoi(r.FormValue("days"))
	if err != nil {
		ac.renderAccount(w, r, http.StatusBadRequest, map[string]string{"days": "days must be a whole number"})
		return
	}
	if err := ac.subs.Freeze(user, days); err != nil {
		if fields, ok := fieldErrors(err); ok {
			ac.renderAccount(w, r, http.StatusBadRequest, fields)
			return
		}
		ac.sendError(w, r, err)
		return
	}
	redirect(w, r, "/account", "success", "Your plan is frozen until "+user.Subscription.UnfreezeAt.Format("2 January 2006")+".")
}

func (ac *AccountController) AdminDashboard(w http.ResponseWriter, r *http.Request) {
	posts, err := ac.posts.ListPosts(services.PostQuery{PerPage: 1})
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	users, err := ac.users.List()
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	stats, err := ac.predictions.Stats()
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	ac.render(w, r, http.StatusOK, "admin/dashboard", &views.Page{
		Title: "Admin",
		Data: map[string]interface{}{
			"PostCount": posts.Total,
			"UserCount": len(users),
			"Stats":     stats,
		},
	})
}

func (ac *AccountController) Users(w http.ResponseWriter, r *http.Request) {
	users, err := ac.users.List()
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	settings, err := ac.wallet.Settings()
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	ac.render(w, r, http.StatusOK, "admin/users", &views.Page{
		Title: "Users",
		Data: map[string]interface{}{
			"Users": users,
			"Roles": models.Roles,
			"Plans": settings.Plans,
		},
	})
}

func (ac *AccountController) SetRole(w http.ResponseWriter, r *http.Request) {
	user, err := ac.users.SetRole(currentUser(r), mux.Vars(r)["id"], r.FormValue("role"))
	if err != nil {
		ac.userError(w, r, err)
		return
	}
	redirect(w, r, "/admin/users", "success", user.Name+" is now "+user.Role+".")
}

// GrantPlan gives a user one of the configured plans for free.
func (ac *AccountController) GrantPlan(w http.ResponseWriter, r *http.Request) {
	settings, err := ac.wallet.Settings()
	if err != nil {
		ac.sendError(w, r, err)
		return
	}
	plan, ok := settings.Plan(r.FormValue("plan"))
	if !ok {
		redirect(w, r, "/admin/users", "error", "Unknown plan.")
		return
	}
	user, err := ac.users.GrantPlan(mux.Vars(r)["id"], plan.Name, plan.Days)
	if err != nil {
		ac.userError(w, r, err)
		return
	}
	redirect(w, r, "/admin/users", "success", user.Name+" now has "+plan.Label+".")
}

func (ac *AccountController) DeleteUser(w http.ResponseWriter, r *http.Request) {
	if err := ac.users.Delete(currentUser(r), mux.Vars(r)["id"]); err != nil {
		ac.userError(w, r, err)
		return
	}
	redirect(w, r, "/admin/users", "success", "User deleted.")
}

// userError turns refusals into a flash on the user list.
func (ac *AccountController) userError(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := fieldErrors(err); ok {
		for _, msg := range fields {
			redirect(w, r, "/admin/users", "error", msg)
			return
		}
	}
	if statusFor(err) == http.StatusForbidden {
		redirect(w, r, "/admin/users", "error", "You cannot do that to your own account.")
		return
	}
	ac.sendError(w, r, err)
}
