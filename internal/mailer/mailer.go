package mailer

import (
	"fmt"
	"log/slog"
	"net/smtp"
	"strings"
)

// Mailer delivers a plain-text message.
type Mailer interface {
	Send(to, subject, body string) error
}

type SMTPClient struct {
	Host     string
	Port     int
	User     string
	Password string
	From     string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPClient(host string, port int, user, pass, from string) *SMTPClient {
	if port == 0 {
		port = 587
	}
	return &SMTPClient{Host: host, Port: port, User: user, Password: pass, From: from, send: smtp.SendMail}
}

func (s *SMTPClient) Send(to, subject, body string) error {
	if s == nil || s.Host == "" || s.User == "" {
		return fmt.Errorf("smtp not configured")
	}
	if strings.ContainsAny(to+subject, "\r\n") {
		return fmt.Errorf("header contains line break")
	}
	addr := fmt.Sprintf("%s:%d", s.Host, s.Port)
	auth := smtp.PlainAuth("", s.User, s.Password, s.Host)
	return s.send(addr, auth, s.From, []string{to}, buildMessage(s.From, to, subject, body))
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte("From: " + from + "\r\n" +
		"To: " + to + "\r\n" +
		"Subject: " + subject + "\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" + body + "\r\n")
}

// LogMailer writes messages to the log instead of sending them. Used when
// SMTP is not configured, e.g. in development. Bodies carry live codes, so
// they are only logged at debug level.
type LogMailer struct {
	Log *slog.Logger
}

func (m LogMailer) Send(to, subject, body string) error {
	m.Log.Info("mail not sent, smtp disabled", "to", to, "subject", subject)
	m.Log.Debug("unsent mail body", "to", to, "body", body)
	return nil
}
