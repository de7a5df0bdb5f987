package mailer

import (
	"bytes"
	"errors"
	"net/smtp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"estate-journal/internal/logger"
)

func TestSMTPClientSend(t *testing.T) {
	c := NewSMTPClient("smtp.example.com", 0, "user", "pass", "noreply@example.com")

	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	c.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	require.NoError(t, c.Send("bob@example.com", "Your code", "482913"))
	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, []string{"bob@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Your code\r\n")
	assert.Contains(t, string(gotMsg), "\r\n\r\n482913\r\n")
}

func TestSMTPClientErrors(t *testing.T) {
	var unset *SMTPClient
	assert.Error(t, unset.Send("bob@example.com", "s", "b"))
	assert.Error(t, NewSMTPClient("", 25, "", "", "").Send("bob@example.com", "s", "b"))

	c := NewSMTPClient("smtp.example.com", 25, "user", "pass", "noreply@example.com")
	c.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("550") }
	assert.EqualError(t, c.Send("bob@example.com", "s", "b"), "550")
	assert.Error(t, c.Send("bob@example.com\r\nBcc: x@example.com", "s", "b"))
}

func TestLogMailerKeepsBodyOutOfInfo(t *testing.T) {
	var buf bytes.Buffer
	m := LogMailer{Log: logger.NewWithWriter(&buf, "info", false)}

	require.NoError(t, m.Send("bob@example.com", "Your code", "Your verification code is: 482913"))
	assert.Contains(t, buf.String(), "bob@example.com")
	assert.NotContains(t, buf.String(), "482913")

	buf.Reset()
	m = LogMailer{Log: logger.NewWithWriter(&buf, "debug", false)}
	require.NoError(t, m.Send("bob@example.com", "Your code", "Your verification code is: 482913"))
	assert.Contains(t, buf.String(), "482913")
}
