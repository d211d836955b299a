package mail

import (
	"log/slog"

	"github.com/pkg/errors"

	"tipsvendor/app/config"
)

// NewSender picks the delivery backend named by cfg.EmailBackend.
func NewSender(cfg *config.Config, log *slog.Logger) (Sender, error) {
	switch cfg.EmailBackend {
	case "", "console":
		return NewConsoleSender(log), nil
	case "smtp":
		if cfg.SMTP.Host == "" {
			return nil, errors.New("smtp backend needs smtp.host")
		}
		return NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password), nil
	case "sendgrid":
		if cfg.SendgridAPIKey == "" {
			return nil, errors.New("sendgrid backend needs sendgridApiKey")
		}
		return NewSendgridSender(cfg.SendgridAPIKey), nil
	default:
		return nil, errors.Errorf("unknown email backend %q", cfg.EmailBackend)
	}
}
