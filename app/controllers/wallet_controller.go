package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tipsvendor/app/models"
	"tipsvendor/app/services"
	"tipsvendor/app/views"
)

var errMissingReference = errors.New("reference is required")

// WalletController handles deposits, withdrawals, plan purchases and payment
// verification, plus the admin wallet settings.
type WalletController struct {
	*Base
	wallet *services.WalletService
}

func NewWalletController(base *Base, wallet *services.WalletService) *WalletController {
	return &WalletController{Base: base, wallet: wallet}
}

func (wc *WalletController) Show(w http.ResponseWriter, r *http.Request) {
	wc.renderWallet(w, r, http.StatusOK, nil)
}

func (wc *WalletController) renderWallet(w http.ResponseWriter, r *http.Request, status int, errs map[string]string) {
	user, err := requireRole(r)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	wallet, err := wc.wallet.Wallet(user.ID)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	txs, err := wc.wallet.Transactions(user.ID)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	settings, err := wc.wallet.Settings()
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	wc.render(w, r, status, "wallet", &views.Page{
		Title:  "Wallet",
		Errors: errs,
		Data: map[string]interface{}{
			"Wallet":       wallet,
			"Transactions": txs,
			"Settings":     settings,
		},
	})
}

func parseAmount(r *http.Request) (decimal.Decimal, error) {
	amount, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("amount")))
	if err != nil {
		return decimal.Zero, models.NewValidationError(err, models.FieldError{Field: "amount", Error: "amount must be a number"})
	}
	return amount, nil
}

// Deposit records a pending deposit and shows the payment page.
func (wc *WalletController) Deposit(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	amount, err := parseAmount(r)
	if err == nil {
		var tx *models.Transaction
		if tx, err = wc.wallet.Deposit(user, amount); err == nil {
			wc.renderPayment(w, r, tx)
			return
		}
	}
	wc.formError(w, r, err)
}

// Withdraw records a withdrawal request for an operator to pay out.
func (wc *WalletController) Withdraw(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	amount, err := parseAmount(r)
	if err == nil {
		var tx *models.Transaction
		if tx, err = wc.wallet.Withdraw(user, amount); err == nil {
			redirect(w, r, "/wallet", "success", "Withdrawal "+tx.Reference+" requested. We will pay it out shortly.")
			return
		}
	}
	wc.formError(w, r, err)
}

func (wc *WalletController) formError(w http.ResponseWriter, r *http.Request, err error) {
	if fields, ok := fieldErrors(err); ok {
		wc.renderWallet(w, r, http.StatusBadRequest, fields)
		return
	}
	wc.sendError(w, r, err)
}

// Subscribe records a pending plan purchase from the pricing page.
func (wc *WalletController) Subscribe(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	tx, err := wc.wallet.SubscribePlan(user, r.FormValue("plan"))
	if err != nil {
		if fields, ok := fieldErrors(err); ok {
			redirect(w, r, "/pricing", "error", fields["plan"])
			return
		}
		wc.sendError(w, r, err)
		return
	}
	wc.renderPayment(w, r, tx)
}

func (wc *WalletController) renderPayment(w http.ResponseWriter, r *http.Request, tx *models.Transaction) {
	wc.render(w, r, http.StatusOK, "payment", &views.Page{
		Title: "Complete your payment",
		Data:  map[string]interface{}{"Transaction": tx},
	})
}

// Verify checks a payment with the processor after the user has paid.
func (wc *WalletController) Verify(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	tx, err := wc.wallet.VerifyPaymentFor(r.Context(), user, r.URL.Query().Get("reference"))
	if err != nil {
		wc.sendError(w, r, err)
		return
	}

	switch {
	case tx.Status == models.TxSuccess && tx.Kind == models.TxSubscription:
		redirect(w, r, "/vip", "success", "Payment received. Your VIP plan is active.")
	case tx.Status == models.TxSuccess:
		redirect(w, r, "/wallet", "success", "Payment received. Your wallet has been credited.")
	case tx.Status == models.TxFailed:
		redirect(w, r, "/wallet", "error", "Payment "+tx.Reference+" failed.")
	default:
		redirect(w, r, "/wallet", "info", "Payment "+tx.Reference+" has not been confirmed yet. Check again in a moment.")
	}
}

// APIVerify handles POST /api/verify-payment.
func (wc *WalletController) APIVerify(w http.ResponseWriter, r *http.Request) {
	user, err := requireRole(r)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	var body struct {
		Reference string `json:"reference"`
	}
	if err := decodeJSON(r, &body); err != nil {
		wc.sendError(w, r, err)
		return
	}
	if body.Reference == "" {
		wc.sendError(w, r, models.NewValidationError(errMissingReference,
			models.FieldError{Field: "reference", Error: errMissingReference.Error()}))
		return
	}
	tx, err := wc.wallet.VerifyPaymentFor(r.Context(), user, body.Reference)
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	wc.sendJSON(w, http.StatusOK, tx)
}

func (wc *WalletController) AdminSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := wc.wallet.Settings()
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	wc.renderSettings(w, r, http.StatusOK, settings, nil)
}

func (wc *WalletController) renderSettings(w http.ResponseWriter, r *http.Request, status int, s *models.WalletSettings, errs map[string]string) {
	wc.render(w, r, status, "admin/wallet", &views.Page{Title: "Wallet settings", Errors: errs, Data: s})
}

// settingsFromForm reads the admin form. Plans arrive as parallel
// plan_name, plan_label, plan_amount and plan_days lists.
func settingsFromForm(r *http.Request, s *models.WalletSettings) map[string]string {
	errs := map[string]string{}
	s.Currency = strings.ToUpper(strings.TrimSpace(r.FormValue("currency")))
	s.DepositsEnabled = formBool(r, "deposits_enabled")
	s.WithdrawalsEnabled = formBool(r, "withdrawals_enabled")

	if v, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("min_deposit"))); err != nil {
		errs["min_deposit"] = "minimum deposit must be a number"
	} else {
		s.MinDeposit = v
	}
	if v, err := decimal.NewFromString(strings.TrimSpace(r.FormValue("min_withdrawal"))); err != nil {
		errs["min_withdrawal"] = "minimum withdrawal must be a number"
	} else {
		s.MinWithdrawal = v
	}

	if err := r.ParseForm(); err != nil {
		errs["plans"] = "plans could not be read"
		return errs
	}
	names := r.PostForm["plan_name"]
	labels, amounts, days := r.PostForm["plan_label"], r.PostForm["plan_amount"], r.PostForm["plan_days"]
	if len(labels) != len(names) || len(amounts) != len(names) || len(days) != len(names) {
		errs["plans"] = "every plan needs a label, a price and a length"
		return errs
	}
	plans := make([]models.PlanPrice, 0, len(names))
	for i, name := range names {
		amount, err := decimal.NewFromString(strings.TrimSpace(amounts[i]))
		if err != nil {
			errs["plans"] = "price of " + name + " must be a number"
			continue
		}
		d, err := strconv.Atoi(days[i])
		if err != nil {
			errs["plans"] = "length of " + name + " must be a whole number of days"
			continue
		}
		plans = append(plans, models.PlanPrice{Name: name, Label: strings.TrimSpace(labels[i]), Amount: amount, Days: d})
	}
	s.Plans = plans
	return errs
}

func (wc *WalletController) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := wc.wallet.Settings()
	if err != nil {
		wc.sendError(w, r, err)
		return
	}
	if errs := settingsFromForm(r, settings); len(errs) > 0 {
		wc.renderSettings(w, r, http.StatusBadRequest, settings, errs)
		return
	}
	if err := wc.wallet.UpdateSettings(settings); err != nil {
		if fields, ok := fieldErrors(err); ok {
			wc.renderSettings(w, r, http.StatusBadRequest, settings, fields)
			return
		}
		wc.sendError(w, r, err)
		return
	}
	redirect(w, r, "/admin/wallet", "success", "Wallet settings saved.")
}
