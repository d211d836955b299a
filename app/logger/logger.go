// Package logger sets up structured logging and forwards errors to Rollbar.
package logger

import (
	"context"
	"io"
	"log/slog"

	"github.com/rollbar/rollbar-go"
)

// New returns a text slog.Logger; debug enables debug-level records.
func New(w io.Writer, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// Person identifies the signed-in user attached to a report.
type Person struct {
	ID    string
	Name  string
	Email string
}

// Reporter logs errors locally and, when enabled, ships them to Rollbar.
type Reporter struct {
	log     *slog.Logger
	enabled bool
}

// NewReporter configures the Rollbar client. An empty token leaves remote reporting off.
func NewReporter(log *slog.Logger, token, env, host string) *Reporter {
	enabled := token != ""
	if enabled {
		rollbar.SetToken(token)
		rollbar.SetEnvironment(env)
		rollbar.SetServerHost(host)
	}
	rollbar.SetEnabled(enabled)
	return &Reporter{log: log, enabled: enabled}
}

// Enabled reports whether errors are sent to Rollbar.
func (r *Reporter) Enabled() bool { return r.enabled }

// Logger returns the underlying structured logger.
func (r *Reporter) Logger() *slog.Logger { return r.log }

// Error logs err with msg and reports it. person may be nil.
func (r *Reporter) Error(msg string, err error, person *Person, attrs ...any) {
	args := append([]any{slog.Any("error", err)}, attrs...)
	if person != nil {
		args = append(args, slog.String("user_id", person.ID))
	}
	r.log.Error(msg, args...)

	if !r.enabled {
		return
	}
	ctx := withPerson(context.Background(), person)
	rollbar.ErrorWithExtrasAndContext(ctx, rollbar.ERR, err, map[string]interface{}{"message": msg})
}

// withPerson attaches person to the report context instead of the shared
// client, so concurrent reports keep their own user.
func withPerson(ctx context.Context, person *Person) context.Context {
	if person == nil {
		return ctx
	}
	return rollbar.NewPersonContext(ctx, &rollbar.Person{Id: person.ID, Username: person.Name, Email: person.Email})
}

// Warn logs a warning without reporting it remotely.
func (r *Reporter) Warn(msg string, attrs ...any) {
	r.log.Warn(msg, attrs...)
}

// Close flushes pending Rollbar items.
func (r *Reporter) Close() {
	if r.enabled {
		rollbar.Wait()
	}
}
