// Package mailer sends plain-text email over SMTP.
package mailer

import (
	"gopkg.in/gomail.v2"
)

type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Sender delivers one message.
type Sender interface {
	Send(to, subject, body string) error
}

type SMTPMailer struct {
	from   string
	dialer *gomail.Dialer
}

// New returns nil when no SMTP host is configured.
func New(cfg Config) *SMTPMailer {
	if cfg.Host == "" {
		return nil
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPMailer{
		from:   from,
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password),
	}
}

func (m *SMTPMailer) Send(to, subject, body string) error {
	msg := NewMessage(m.from, to, subject, body)
	return m.dialer.DialAndSend(msg)
}

func NewMessage(from, to, subject, body string) *gomail.Message {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)
	return msg
}
