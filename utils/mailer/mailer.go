// Package mailer delivers transactional email through SendGrid, or only logs
// it when no API key is configured.
package mailer

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"

	"shams/config"
	"shams/utils/logger"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

const (
	defaultHost = "https://api.sendgrid.com"
	endpoint    = "/v3/mail/send"
)

type SendGridMailer struct {
	key  string
	host string
	from *sgmail.Email
	log  *logger.Logger
}

func NewSendGrid(key, host, fromEmail, fromName string, log *logger.Logger) *SendGridMailer {
	if host == "" {
		host = defaultHost
	}
	return &SendGridMailer{
		key:  key,
		host: strings.TrimRight(host, "/"),
		from: sgmail.NewEmail(fromName, fromEmail),
		log:  log.With("client", "SendGridMailer"),
	}
}

func (m *SendGridMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail("", to))
	p.Subject = subject

	msg := sgmail.NewV3Mail()
	msg.SetFrom(m.from)
	msg.AddPersonalizations(p)
	msg.AddContent(
		sgmail.NewContent("text/plain", stripTags(htmlBody)),
		sgmail.NewContent("text/html", htmlBody),
	)

	req := sendgrid.GetRequest(m.key, endpoint, m.host)
	req.Method = http.MethodPost
	req.Body = sgmail.GetRequestBody(msg)

	res, err := sendgrid.API(req)
	if err != nil {
		return fmt.Errorf("sendgrid: %w", err)
	}
	if res.StatusCode >= http.StatusBadRequest {
		return fmt.Errorf("sendgrid: status %d: %s", res.StatusCode, res.Body)
	}
	m.log.Debug("Email sent", "to", to, "subject", subject)
	return nil
}

// LogMailer writes emails to the log instead of sending them.
type LogMailer struct {
	log *logger.Logger
}

func NewLog(log *logger.Logger) *LogMailer {
	return &LogMailer{log: log.With("client", "LogMailer")}
}

func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.log.Info("Email (not sent, SENDGRID_API_KEY empty)", "to", to, "subject", subject)
	return nil
}

// New picks SendGrid when an API key is configured.
func New(cfg *config.Config, log *logger.Logger) Mailer {
	if cfg.SendGridAPIKey == "" {
		return NewLog(log)
	}
	return NewSendGrid(cfg.SendGridAPIKey, "", cfg.SendGridFromEmail, cfg.SendGridFromName, log)
}

func stripTags(s string) string {
	var b strings.Builder
	in := false
	for _, r := range s {
		switch {
		case r == '<':
			in = true
		case r == '>':
			in = false
		case !in:
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
