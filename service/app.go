package service

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"

	"tipsvendor/app/cache"
	"tipsvendor/app/config"
	"tipsvendor/app/controllers"
	"tipsvendor/app/live"
	"tipsvendor/app/logger"
	"tipsvendor/app/mail"
	"tipsvendor/app/payments"
	"tipsvendor/app/repositories"
	"tipsvendor/app/routes"
	"tipsvendor/app/storage"
)

const shutdownTimeout = 10 * time.Second

// RunAppServer serves the site until SIGINT or SIGTERM.
func RunAppServer(cfg *config.Config) int {
	log := logger.New(os.Stdout, cfg.Debug)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ln, err := net.Listen("tcp", cfg.Addr)
	if err != nil {
		log.Error("listening", "addr", cfg.Addr, "error", err)
		return 1
	}
	if err := Serve(ctx, cfg, ln, log); err != nil {
		log.Error("server stopped", "error", err)
		return 1
	}
	return 0
}

// Serve runs the site on ln until ctx is done, then drains in-flight
// requests, live clients and queued mail.
func Serve(ctx context.Context, cfg *config.Config, ln net.Listener, log *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	host, _ := os.Hostname()
	reporter := logger.NewReporter(log, cfg.RollbarToken, cfg.Env, host)
	defer reporter.Close()

	store, err := repositories.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer store.Close()

	sender, err := mail.NewSender(cfg, log)
	if err != nil {
		return errors.Wrap(err, "configuring email")
	}
	files, err := storage.NewFileStore(cfg.UploadDir)
	if err != nil {
		return err
	}

	var converter controllers.CurrencyConverter
	if cfg.ExchangeRateURL != "" {
		converter = payments.NewConverter(cfg.ExchangeRateURL, cfg.ExchangeRateTTL, cache.NewMemo(), log)
	}
	if cfg.PaystackSecretKey == "" {
		log.Warn("paystackSecretKey is empty, payments cannot be verified")
	}

	hub := live.NewHub(log)
	defer hub.Close()

	app, err := routes.New(routes.Deps{
		Config:    cfg,
		Log:       log,
		Reporter:  reporter,
		Repos:     store.Repositories(),
		Sender:    sender,
		Verifier:  payments.NewPaystackClient(cfg.PaystackSecretKey, cfg.PaystackBaseURL),
		Converter: converter,
		Files:     files,
		Hub:       hub,
	})
	if err != nil {
		return err
	}
	defer app.Mailer.Wait()

	srv := &http.Server{
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ErrorLog:          slog.NewLogLogger(log.Handler(), slog.LevelWarn),
	}

	errc := make(chan error, 1)
	go func() {
		log.Info("serving", "addr", ln.Addr().String(), "env", cfg.Env, "db", cfg.DBPath)
		errc <- srv.Serve(ln)
	}()

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "shutting down")
	}
	if err := <-errc; err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
