package mail

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"founder-connect/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPMailer_BuildsMessage(t *testing.T) {
	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg string

	m := NewSMTPMailer(config.SMTPConfig{Host: "smtp.example.com", Port: "587", Username: "u", Password: "p", From: "noreply@example.com"})
	m.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	m.send = func(addr string, _ smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, string(msg)
		return nil
	}

	err := m.Send(context.Background(), Message{
		To:        []string{"a@example.com", "b@example.com"},
		Subject:   "Hello\r\nBcc: evil@example.com",
		Body:      "line one\nline two",
		FromName:  "Ada",
		FromEmail: "ada@startup.io",
	})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.Equal(t, "noreply@example.com", gotFrom)
	assert.Equal(t, []string{"a@example.com", "b@example.com"}, gotTo)
	assert.Contains(t, gotMsg, "From: \"Ada\" <noreply@example.com>\r\n")
	assert.Contains(t, gotMsg, "To: <a@example.com>, <b@example.com>\r\n")
	assert.Contains(t, gotMsg, "Reply-To: <ada@startup.io>\r\n")
	assert.Contains(t, gotMsg, "Subject: Hello  Bcc: evil@example.com\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "line one\r\nline two\r\n"))
}

func TestSMTPMailer_Errors(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "h", Port: "25", From: "x@y.z"})
	m.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("refused") }

	assert.ErrorIs(t, m.Send(context.Background(), Message{}), ErrNoRecipients)
	assert.ErrorContains(t, m.Send(context.Background(), Message{To: []string{"a@b.c"}}), "refused")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Send(ctx, Message{To: []string{"a@b.c"}}), context.Canceled)
}

func TestNew_FallsBackToLogMailer(t *testing.T) {
	mailer := New(config.SMTPConfig{}, nil)
	_, ok := mailer.(LogMailer)
	require.True(t, ok)
	assert.NoError(t, mailer.Send(context.Background(), Message{To: []string{"a@b.c"}, Subject: "s"}))
}

func TestBuildMessage_RejectsHeaderInjection(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name string
		msg  Message
	}{
		{"reply-to with line break", Message{To: []string{"a@example.com"}, ReplyTo: "me@x.io\nBcc: victim@evil.example"}},
		{"from email with line break", Message{To: []string{"a@example.com"}, FromEmail: "me@x.io\r\nBcc: victim@evil.example"}},
		{"from name with line break", Message{To: []string{"a@example.com"}, FromName: "Ada\r\nBcc: victim@evil.example"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := string(buildMessage(tt.msg, "noreply@example.com", now))
			headers := msg[:strings.Index(msg, "\r\n\r\n")]
			assert.NotContains(t, headers, "\nBcc:")
			assert.NotContains(t, headers, "Reply-To: me@x.io")
		})
	}
}

func TestSMTPMailer_RejectsInvalidRecipient(t *testing.T) {
	m := NewSMTPMailer(config.SMTPConfig{Host: "h", Port: "25", From: "x@y.z"})
	called := false
	m.send = func(string, smtp.Auth, string, []string, []byte) error {
		called = true
		return nil
	}

	err := m.Send(context.Background(), Message{To: []string{"a@b.c\r\nBcc: victim@evil.example"}})
	assert.ErrorIs(t, err, ErrInvalidAddress)
	assert.False(t, called)
}
