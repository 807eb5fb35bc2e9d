package mail

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/mail"
	"net/smtp"
	"strings"
	"time"

	"founder-connect/internal/config"
	"founder-connect/internal/logger"

	"go.uber.org/zap"
)

type Message struct {
	To        []string
	Subject   string
	Body      string
	FromName  string
	FromEmail string
	ReplyTo   string
}

type Mailer interface {
	Send(ctx context.Context, m Message) error
}

var (
	ErrNoRecipients   = errors.New("no recipients")
	ErrInvalidAddress = errors.New("invalid email address")
)

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// SMTPMailer delivers plain text mail through an authenticated SMTP relay.
type SMTPMailer struct {
	cfg  config.SMTPConfig
	send sendFunc
	now  func() time.Time
}

func NewSMTPMailer(cfg config.SMTPConfig) *SMTPMailer {
	return &SMTPMailer{cfg: cfg, send: smtp.SendMail, now: time.Now}
}

func (s *SMTPMailer) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(m.To) == 0 {
		return ErrNoRecipients
	}

	envelopeFrom := strings.TrimSpace(s.cfg.From)
	if envelopeFrom == "" {
		envelopeFrom = strings.TrimSpace(m.FromEmail)
	}
	if envelopeFrom == "" {
		return errors.New("smtp from address is not configured")
	}

	for _, to := range m.To {
		if headerAddress(to) == "" {
			return fmt.Errorf("%w: %q", ErrInvalidAddress, to)
		}
	}

	msg := buildMessage(m, envelopeFrom, s.now())

	var auth smtp.Auth
	if s.cfg.Username != "" {
		auth = smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	}

	addr := net.JoinHostPort(s.cfg.Host, s.cfg.Port)
	if err := s.send(addr, auth, envelopeFrom, m.To, msg); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func buildMessage(m Message, envelopeFrom string, now time.Time) []byte {
	from := (&mail.Address{Name: sanitizeHeader(m.FromName), Address: envelopeFrom}).String()

	replyTo := headerAddress(m.ReplyTo)
	if replyTo == "" && !strings.EqualFold(strings.TrimSpace(m.FromEmail), envelopeFrom) {
		replyTo = headerAddress(m.FromEmail)
	}

	to := make([]string, 0, len(m.To))
	for _, addr := range m.To {
		if h := headerAddress(addr); h != "" {
			to = append(to, h)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(to, ", "))
	if replyTo != "" {
		fmt.Fprintf(&b, "Reply-To: %s\r\n", replyTo)
	}
	fmt.Fprintf(&b, "Subject: %s\r\n", sanitizeHeader(m.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", now.Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(m.Body, "\n", "\r\n"))
	b.WriteString("\r\n")
	return []byte(b.String())
}

// headerAddress renders raw as a single mailbox, or "" when it is not one.
// Values carrying line breaks are rejected outright.
func headerAddress(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" || strings.ContainsAny(raw, "\r\n") {
		return ""
	}
	addr, err := mail.ParseAddress(raw)
	if err != nil {
		return ""
	}
	return addr.String()
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(strings.TrimSpace(v))
}

// LogMailer writes mail to the log instead of delivering it. It is used when
// SMTP is not configured.
type LogMailer struct {
	Logger *zap.Logger
}

func (l LogMailer) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(m.To) == 0 {
		return ErrNoRecipients
	}
	logger.OrNop(l.Logger).Info("mail not sent, smtp disabled",
		zap.Strings("to", m.To),
		zap.String("subject", m.Subject),
		zap.String("body_preview", logger.TruncateForLog(m.Body, 120)),
	)
	return nil
}

// New returns an SMTP mailer when a host is configured and a LogMailer
// otherwise.
func New(cfg config.SMTPConfig, l *zap.Logger) Mailer {
	if strings.TrimSpace(cfg.Host) == "" {
		return LogMailer{Logger: l}
	}
	return NewSMTPMailer(cfg)
}

var (
	_ Mailer = (*SMTPMailer)(nil)
	_ Mailer = LogMailer{}
)
