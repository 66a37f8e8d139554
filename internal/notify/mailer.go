package notify

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"time"

	"reviewledger/internal/config"
)

// Mailer sends plain-text alert mail.
type Mailer interface {
	Send(ctx context.Context, subject, body string) error
}

type smtpMailer struct {
	cfg  config.SMTPConfig
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPMailer returns a Mailer for cfg, or a no-op Mailer when SMTP is not configured.
func NewSMTPMailer(cfg config.SMTPConfig) Mailer {
	if !cfg.Enabled() {
		return noopMailer{}
	}
	return &smtpMailer{cfg: cfg, send: smtp.SendMail}
}

func (m *smtpMailer) from() string {
	if m.cfg.User != "" && strings.Contains(m.cfg.User, "@") {
		return m.cfg.User
	}
	return "noreply@localhost"
}

func (m *smtpMailer) Send(ctx context.Context, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.cfg.User != "" && m.cfg.Pass != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}
	to := splitRecipients(m.cfg.AlertTo)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)

	msg := buildMessage(m.from(), to, subject, body, time.Now())
	if err := m.send(addr, auth, m.from(), to, msg); err != nil {
		return fmt.Errorf("failed to send alert mail: %w", err)
	}
	return nil
}

func splitRecipients(raw string) []string {
	var out []string
	for _, r := range strings.Split(raw, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func buildMessage(from string, to []string, subject, body string, now time.Time) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + strings.Join(to, ", ") + "\r\n")
	b.WriteString("Subject: " + subject + "\r\n")
	b.WriteString("Date: " + now.Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"UTF-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(body, "\n", "\r\n"))
	return []byte(b.String())
}

type noopMailer struct{}

func (noopMailer) Send(context.Context, string, string) error { return nil }
