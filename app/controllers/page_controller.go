package controllers

import (
	"context"
	"net/http"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"

	"tipsvendor/app/models"
	"tipsvendor/app/payments"
	"tipsvendor/app/services"
	"tipsvendor/app/views"
)

// CurrencyConverter turns an amount in one currency into another.
type CurrencyConverter interface {
	Convert(ctx context.Context, amount decimal.Decimal, from, to string) (decimal.Decimal, error)
}

// PageController serves the marketing pages, the contact form and the
// currency conversion API.
type PageController struct {
	*Base
	predictions *services.PredictionService
	posts       *services.PostService
	contact     *services.ContactService
	wallet      *services.WalletService
	converter   CurrencyConverter
}

// NewPageController creates a PageController. converter may be nil, in which
// case prices are shown in the site currency only.
func NewPageController(base *Base, predictions *services.PredictionService, posts *services.PostService,
	contact *services.ContactService, wallet *services.WalletService, converter CurrencyConverter) *PageController {
	return &PageController{
		Base:        base,
		predictions: predictions,
		posts:       posts,
		contact:     contact,
		wallet:      wallet,
		converter:   converter,
	}
}

const homePostCount = 3

var errBadCurrency = errors.New("currency codes must have three letters")

func (pc *PageController) Home(w http.ResponseWriter, r *http.Request) {
	board, err := pc.predictions.Board(currentUser(r))
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	latest, err := pc.posts.ListPosts(services.PostQuery{PerPage: homePostCount, PublishedOnly: true})
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	stats, err := pc.predictions.Stats()
	if err != nil {
		pc.sendError(w, r, err)
		return
	}

	pc.render(w, r, http.StatusOK, "home", &views.Page{
		Description: "Free daily football predictions, VIP tips and betting analysis.",
		Data: map[string]interface{}{
			"Board": board,
			"Posts": latest.Items,
			"Stats": stats,
		},
	})
}

func (pc *PageController) About(w http.ResponseWriter, r *http.Request) {
	pc.render(w, r, http.StatusOK, "about", &views.Page{Title: "About us"})
}

// ContactForm shows the contact page, prefilled for signed-in users.
func (pc *PageController) ContactForm(w http.ResponseWriter, r *http.Request) {
	form := &models.ContactForm{}
	if u := currentUser(r); u != nil {
		form.Name, form.Email = u.Name, u.Email
	}
	pc.render(w, r, http.StatusOK, "contact", &views.Page{Title: "Contact us", Data: form})
}

// SendContact handles the contact form and POST /api/send-email.
func (pc *PageController) SendContact(w http.ResponseWriter, r *http.Request) {
	form := &models.ContactForm{}
	if wantsJSON(r) {
		if err := decodeJSON(r, form); err != nil {
			pc.sendError(w, r, err)
			return
		}
		if err := pc.contact.Send(form); err != nil {
			pc.sendError(w, r, err)
			return
		}
		pc.sendJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
		return
	}

	form.Name = r.FormValue("name")
	form.Email = r.FormValue("email")
	form.Subject = r.FormValue("subject")
	form.Message = r.FormValue("message")
	if err := pc.contact.Send(form); err != nil {
		if fields, ok := fieldErrors(err); ok {
			pc.render(w, r, http.StatusBadRequest, "contact", &views.Page{Title: "Contact us", Errors: fields, Data: form})
			return
		}
		pc.sendError(w, r, err)
		return
	}
	redirect(w, r, "/contact", "success", "Thanks for your message. We will get back to you soon.")
}

type planView struct {
	Name      string
	Label     string
	Price     string
	Converted string
	Days      int
}

// Pricing lists the VIP plans. ?currency=XXX adds an approximate price in
// another currency.
func (pc *PageController) Pricing(w http.ResponseWriter, r *http.Request) {
	settings, err := pc.wallet.Settings()
	if err != nil {
		pc.sendError(w, r, err)
		return
	}
	target := r.URL.Query().Get("currency")
	if target == "" {
		target = "USD"
	}

	plans := make([]planView, 0, len(settings.Plans))
	for _, p := range settings.Plans {
		v := planView{
			Name:  p.Name,
			Label: p.Label,
			Price: payments.Format(p.Amount, settings.Currency),
			Days:  p.Days,
		}
		if pc.converter != nil && target != settings.Currency {
			converted, err := pc.converter.Convert(r.Context(), p.Amount, settings.Currency, target)
			if err != nil {
				pc.reporter.Warn("converting plan price", "error", err, "plan", p.Name, "currency", target)
			} else {
				v.Converted = payments.Format(converted, target)
			}
		}
		plans = append(plans, v)
	}

	pc.render(w, r, http.StatusOK, "pricing", &views.Page{
		Title:       "VIP plans",
		Description: "Choose a VIP plan to unlock premium football predictions.",
		Data: map[string]interface{}{
			"Currency": settings.Currency,
			"Plans":    plans,
		},
	})
}

// Convert handles GET /api/convert?amount=&from=&to=.
func (pc *PageController) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	amount, err := decimal.NewFromString(q.Get("amount"))
	if err != nil {
		pc.sendError(w, r, models.NewValidationError(err, models.FieldError{Field: "amount", Error: "amount must be a number"}))
		return
	}
	from, to := q.Get("from"), q.Get("to")
	if len(from) != 3 || len(to) != 3 {
		pc.sendError(w, r, models.NewValidationError(errBadCurrency, models.FieldError{Field: "currency", Error: errBadCurrency.Error()}))
		return
	}
	if pc.converter == nil {
		pc.sendJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "currency conversion is not configured"})
		return
	}

	converted, err := pc.converter.Convert(r.Context(), amount, from, to)
	if err != nil {
		pc.reporter.Warn("converting currency", "error", err, "from", from, "to", to)
		pc.sendJSON(w, http.StatusBadGateway, map[string]string{"error": "exchange rates are unavailable"})
		return
	}
	pc.sendJSON(w, http.StatusOK, map[string]interface{}{
		"amount":    converted,
		"currency":  to,
		"formatted": payments.Format(converted, to),
	})
}

func (pc *PageController) Healthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
