package auth

import (
	"fmt"
	"net/smtp"
	"os"
)

// Mailer delivers account emails (currently only password resets).
type Mailer interface {
	Send(to, subject, body string) error
}

// SMTPMailer sends plain-text mail through a single SMTP relay.
type SMTPMailer struct {
	host string
	port string
	from string
	pass string
}

func NewSMTPMailerFromEnv() *SMTPMailer {
	return &SMTPMailer{
		host: envOr("SMTP_HOST", "smtp.gmail.com"),
		port: envOr("SMTP_PORT", "587"),
		from: os.Getenv("SMTP_EMAIL"),
		pass: os.Getenv("SMTP_PASSWORD"),
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s", m.from, to, subject, body)

	err := smtp.SendMail(
		m.host+":"+m.port,
		smtp.PlainAuth("", m.from, m.pass, m.host),
		m.from,
		[]string{to},
		[]byte(msg),
	)
	if err != nil {
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
