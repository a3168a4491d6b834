package notify

import (
	"context"
	"fmt"
	"net/smtp"

	"storewatch/config"
)

// Email delivers digests over authenticated SMTP.
type Email struct {
	host string
	port int
	user string
	pass string
	from string
	to   string
}

func NewEmail(cfg config.NotifierConfig) *Email {
	from := cfg.FromAddress
	if from == "" {
		from = cfg.SMTPUser
	}
	return &Email{
		host: cfg.SMTPHost,
		port: cfg.SMTPPort,
		user: cfg.SMTPUser,
		pass: cfg.SMTPPass,
		from: from,
		to:   cfg.ToAddress,
	}
}

func (e *Email) Name() string { return "email" }

func (e *Email) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", e.from, e.to, subject, body)
	addr := fmt.Sprintf("%s:%d", e.host, e.port)
	auth := smtp.PlainAuth("", e.user, e.pass, e.host)

	if err := smtp.SendMail(addr, auth, e.from, []string{e.to}, []byte(msg)); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}
