package providers

import (
	"github.com/samber/do/v2"

	"github.com/platefulapp/plateful-server/internal/config"
	"github.com/platefulapp/plateful-server/internal/logger"
	"github.com/platefulapp/plateful-server/internal/mail"
)

// ProvideMailer provides the outbound mail dispatcher. Without an SMTP
// relay configured, messages are logged instead of delivered so the
// verification flow stays usable in development.
func ProvideMailer(i do.Injector) (mail.Dispatcher, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	if !cfg.MailEnabled() {
		log.Info("SMTP not configured, mail will be logged only")
		return mail.NewLogDispatcher(log.Logger), nil
	}

	log.Info("SMTP dispatcher configured",
		"host", cfg.Mail.Host,
		"port", cfg.Mail.Port,
		"from", cfg.Mail.From,
	)

	return mail.NewSMTPDispatcher(mail.SMTPConfig{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, log.Logger), nil
}
