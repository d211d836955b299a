package services

import (
	"io"
	"net/mail"
	"strings"
	"testing"
	"time"

	"tipsvendor/app/logger"
	tvmail "tipsvendor/app/mail"
	"tipsvendor/app/models"
	"tipsvendor/app/repositories"
	"tipsvendor/app/repositories/mock"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key"

var testNow = time.Date(2024, time.March, 10, 12, 0, 0, 0, time.UTC)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

type testEnv struct {
	repos  repositories.Repositories
	sender *tvmail.ConsoleSender
	mailer *tvmail.Mailer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	reporter := logger.NewReporter(logger.New(io.Discard, false), "", "test", "")
	sender := tvmail.NewConsoleSenderMock()
	return &testEnv{
		repos:  mock.NewRepositories(),
		sender: sender,
		mailer: tvmail.NewMailer(sender, mail.Address{Name: "Tipsvendor", Address: "noreply@example.com"},
			"Tipsvendor", "http://localhost:8080", reporter),
	}
}

// newBadgerEnv is newTestEnv over an in-memory Badger store, for tests that
// depend on real transaction conflicts.
func newBadgerEnv(t *testing.T) *testEnv {
	t.Helper()
	store, err := repositories.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	env := newTestEnv(t)
	env.repos = store.Repositories()
	return env
}

// sent waits for queued mail and returns what was delivered.
func (e *testEnv) sent() []tvmail.Message {
	e.mailer.Wait()
	return e.sender.Sent()
}

func (e *testEnv) createUser(t *testing.T, email, role string) *models.User {
	t.Helper()
	u := &models.User{Name: "Test User", Email: email, Role: role, CreatedAt: testNow}
	require.NoError(t, u.SetPassword("password123"))
	require.NoError(t, e.repos.Users.Create(u))
	return u
}

func longText(n int) string {
	return strings.Repeat("a", n)
}

// assertFieldError checks that err is a validation error naming field.
func assertFieldError(t *testing.T, err error, field string) {
	t.Helper()
	var verr *models.ValidationError
	require.True(t, errors.As(err, &verr), "expected a validation error, got %v", err)
	assert.Contains(t, verr.FieldMap(), field)
}
