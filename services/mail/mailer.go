// Package mail renders notification emails and hands them to a delivery provider.
package mail

import (
	"context"
	"errors"

	"github.com/sahilchouksey/eduplatform-api/config"
	"github.com/sahilchouksey/eduplatform-api/utils/logger"
)

// ErrNotConfigured is returned by a provider that lacks credentials
var ErrNotConfigured = errors.New("mail provider not configured")

// Message is a rendered email ready to send
type Message struct {
	To      string
	ToName  string
	Subject string
	HTML    string
	Text    string
}

// Result describes what the provider did with a message
type Result struct {
	Skipped    bool   // nothing was sent because no provider is configured
	ProviderID string // provider message id, if the provider returns one
}

// Sender delivers a single message
type Sender interface {
	Send(ctx context.Context, msg Message) (Result, error)
	Name() string
}

// From is the envelope sender
type From struct {
	Email string
	Name  string
}

// NewSender picks the provider named by MAIL_PROVIDER. A provider without
// credentials falls back to the log-only sender so the app still boots.
func NewSender(env *config.EnviornmentVariable, log *logger.Logger) Sender {
	from := From{Email: env.MAIL_FROM_EMAIL, Name: env.MAIL_FROM_NAME}

	switch env.MAIL_PROVIDER {
	case "sendgrid":
		if env.SENDGRID_API_KEY != "" {
			log.Info("mail provider configured", "provider", "sendgrid")
			return NewSendGridSender(env.SENDGRID_API_KEY, from)
		}
		log.Warn("MAIL_PROVIDER is sendgrid but SENDGRID_API_KEY is empty, emails will be skipped")
	case "smtp":
		if env.SMTP_USERNAME != "" && env.SMTP_PASSWORD != "" {
			log.Info("mail provider configured", "provider", "smtp", "host", env.SMTP_HOST)
			return NewSMTPSender(SMTPConfig{
				Host:     env.SMTP_HOST,
				Port:     env.SMTP_PORT,
				Username: env.SMTP_USERNAME,
				Password: env.SMTP_PASSWORD,
			}, from)
		}
		log.Warn("MAIL_PROVIDER is smtp but SMTP credentials are empty, emails will be skipped")
	case "":
	default:
		log.Warn("unknown MAIL_PROVIDER, emails will be skipped", "provider", env.MAIL_PROVIDER)
	}

	return NewLogSender(log)
}

// LogSender only logs. It is used when no provider is configured.
type LogSender struct {
	log *logger.Logger
}

func NewLogSender(log *logger.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Name() string { return "log" }

func (s *LogSender) Send(_ context.Context, msg Message) (Result, error) {
	s.log.Info("mail provider not configured, skipping email", "to", msg.To, "subject", msg.Subject)
	return Result{Skipped: true}, nil
}
