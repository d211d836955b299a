package controllers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/mail"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"tipsvendor/app/logger"
	tvmail "tipsvendor/app/mail"
	"tipsvendor/app/middleware"
	"tipsvendor/app/models"
	"tipsvendor/app/payments"
	"tipsvendor/app/repositories"
	"tipsvendor/app/repositories/mock"
	"tipsvendor/app/services"
	"tipsvendor/app/views"
)

// stubVerifier reports a charge for exactly the stored transaction.
type stubVerifier struct {
	status string
	calls  int
	txs    repositories.TransactionRepository
}

func (v *stubVerifier) Verify(_ context.Context, reference string) (*payments.Verification, error) {
	v.calls++
	out := &payments.Verification{Reference: reference, Status: v.status}
	if tx, err := v.txs.GetByReference(reference); err == nil {
		out.Amount, out.Currency = tx.Amount, tx.Currency
	}
	return out, nil
}

type stubConverter struct {
	rate decimal.Decimal
	err  error
}

func (c *stubConverter) Convert(_ context.Context, amount decimal.Decimal, _, _ string) (decimal.Decimal, error) {
	if c.err != nil {
		return decimal.Zero, c.err
	}
	return amount.Mul(c.rate), nil
}

type memoryUploader struct {
	saved   []string
	removed []string
}

func (u *memoryUploader) Save(r io.Reader, name string) (string, error) {
	if _, err := io.ReadAll(r); err != nil {
		return "", err
	}
	url := "/uploads/" + name
	u.saved = append(u.saved, url)
	return url, nil
}

func (u *memoryUploader) Remove(url string) error {
	u.removed = append(u.removed, url)
	return nil
}

var longDescription = strings.Repeat("Match preview text. ", 10)

// testApp wires real services over mock repositories.
type testApp struct {
	repos    repositories.Repositories
	sender   *tvmail.ConsoleSender
	mailer   *tvmail.Mailer
	verifier *stubVerifier
	files    *memoryUploader
	base     *Base

	auth        *services.AuthService
	subs        *services.SubscriptionService
	posts       *services.PostService
	comments    *services.CommentService
	categories  *services.CategoryService
	predictions *services.PredictionService
	seo         *services.SEOService
	wallet      *services.WalletService
	users       *services.UserService
	contact     *services.ContactService
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	log := logger.New(io.Discard, false)
	reporter := logger.NewReporter(log, "", "test", "")
	renderer, err := views.New(views.Site{Name: "Tipsvendor", BaseURL: "http://localhost:8080"})
	require.NoError(t, err)

	repos := mock.NewRepositories()
	sender := tvmail.NewConsoleSenderMock()
	mailer := tvmail.NewMailer(sender, mail.Address{Name: "Tipsvendor", Address: "noreply@example.com"},
		"Tipsvendor", "http://localhost:8080", reporter)
	verifier := &stubVerifier{status: "success", txs: repos.Transactions}

	subs := services.NewSubscriptionService(repos.Users)
	sessions := services.NewSessionManager("controller-test-secret", "tipsvendor", time.Hour)
	tokens := services.NewTokenGenerator("controller-test-secret", 72*time.Hour)
	return &testApp{
		repos:       repos,
		sender:      sender,
		mailer:      mailer,
		verifier:    verifier,
		files:       &memoryUploader{},
		base:        NewBase(renderer, reporter),
		auth:        services.NewAuthService(repos.Users, sessions, tokens, mailer, subs, 72*time.Hour),
		subs:        subs,
		posts:       services.NewPostService(repos.Posts, repos.Comments, repos.Categories, nil),
		comments:    services.NewCommentService(repos.Comments, repos.Posts),
		categories:  services.NewCategoryService(repos.Categories, repos.Posts),
		predictions: services.NewPredictionService(repos.Predictions, subs, nil),
		seo:         services.NewSEOService(repos.SEOPages),
		wallet:      services.NewWalletService(repos.Wallets, repos.Settings, repos.Transactions, repos.Users, subs, verifier),
		users:       services.NewUserService(repos.Users, subs),
		contact:     services.NewContactService(mailer, "support@example.com"),
	}
}

func (a *testApp) sent() []tvmail.Message {
	a.mailer.Wait()
	return a.sender.Sent()
}

func (a *testApp) createUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test User", Email: email, Role: role, CreatedAt: time.Now()}
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, a.repos.Users.Create(u))
	return u
}

func (a *testApp) createPost(t *testing.T, title string, published bool) *models.Post {
	t.Helper()
	p := &models.Post{Title: title, Description: longDescription, Published: published}
	require.NoError(t, a.posts.CreatePost(p, nil))
	return p
}

// request is one call against a test router.
type request struct {
	method string
	target string
	form   url.Values
	json   interface{}
	user   *models.User
	accept string
}

func serve(t *testing.T, h http.Handler, req request) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	contentType := ""
	switch {
	case req.form != nil:
		body = strings.NewReader(req.form.Encode())
		contentType = "application/x-www-form-urlencoded"
	case req.json != nil:
		raw, err := json.Marshal(req.json)
		require.NoError(t, err)
		body = strings.NewReader(string(raw))
		contentType = "application/json"
	}
	if req.method == "" {
		req.method = http.MethodGet
	}

	r := httptest.NewRequest(req.method, req.target, body)
	if contentType != "" {
		r.Header.Set("Content-Type", contentType)
	}
	if req.accept != "" {
		r.Header.Set("Accept", req.accept)
	}
	if req.user != nil {
		r = r.WithContext(middleware.WithUser(r.Context(), req.user))
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.NewDecoder(w.Body).Decode(v))
}

// flashOf returns the flash message set on the response, if any.
func flashOf(w *httptest.ResponseRecorder) *views.Flash {
	for _, c := range w.Result().Cookies() {
		if c.Name != flashCookie || c.MaxAge < 0 {
			continue
		}
		r := httptest.NewRequest(http.MethodGet, "/", nil)
		r.AddCookie(c)
		return (&Base{}).popFlash(httptest.NewRecorder(), r)
	}
	return nil
}
