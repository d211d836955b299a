package routes

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"tipsvendor/app/config"
	"tipsvendor/app/logger"
	tvmail "tipsvendor/app/mail"
	"tipsvendor/app/payments"
	"tipsvendor/app/repositories"
	"tipsvendor/app/services"
	"tipsvendor/app/storage"
)

// stubVerifier reports every stored transaction as paid in full.
type stubVerifier struct {
	txs repositories.TransactionRepository
}

func (v stubVerifier) Verify(_ context.Context, reference string) (*payments.Verification, error) {
	tx, err := v.txs.GetByReference(reference)
	if err != nil {
		return nil, err
	}
	return &payments.Verification{Reference: reference, Status: "success", Amount: tx.Amount, Currency: tx.Currency}, nil
}

type testServer struct {
	app    *App
	repos  repositories.Repositories
	sender *tvmail.ConsoleSender
	files  *storage.FileStore
}

// setupTestServer serves the full router over an in-memory Badger store.
func setupTestServer(t *testing.T) *testServer {
	t.Helper()
	store, err := repositories.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	cfg := config.Default()
	cfg.UploadDir = t.TempDir()
	files, err := storage.NewFileStore(cfg.UploadDir)
	require.NoError(t, err)

	log := logger.New(io.Discard, false)
	sender := tvmail.NewConsoleSenderMock()
	app, err := New(Deps{
		Config:   cfg,
		Log:      log,
		Reporter: logger.NewReporter(log, "", "test", ""),
		Repos:    store.Repositories(),
		Sender:   sender,
		Verifier: stubVerifier{txs: store.Repositories().Transactions},
		Files:    files,
	})
	require.NoError(t, err)
	t.Cleanup(app.Mailer.Wait)

	return &testServer{app: app, repos: store.Repositories(), sender: sender, files: files}
}

func (s *testServer) do(method, target string, form url.Values, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req := httptest.NewRequest(method, target, body)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()
	s.app.Handler.ServeHTTP(w, req)
	return w
}

func sessionCookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == services.SessionCookie && c.Value != "" {
			return c
		}
	}
	return nil
}

// login registers a fresh account and returns its session cookie.
func (s *testServer) login(t *testing.T, email string) *http.Cookie {
	t.Helper()
	w := s.do("POST", "/register", url.Values{
		"name": {"Route Tester"}, "email": {email}, "password": {"password123"}, "password_confirm": {"password123"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)
	cookie := sessionCookie(w)
	require.NotNil(t, cookie)
	return cookie
}
