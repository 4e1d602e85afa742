// Package mail sends transactional emails (password reset links) over SMTP.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
	"time"

	"github.com/Skotchmaster/storefront/pkg/config"
)

type Mailer interface {
	Send(ctx context.Context, to, subject, htmlBody string) error
}

// New returns an SMTP mailer, or a mailer that only logs when MAIL_HOST is empty.
func New(cfg config.Mail, l *slog.Logger) Mailer {
	if cfg.Host == "" {
		return &LogMailer{Logger: l}
	}
	return &SMTP{cfg: cfg}
}

type SMTP struct {
	cfg config.Mail
}

func (m *SMTP) Send(ctx context.Context, to, subject, htmlBody string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	cfg := m.cfg
	raw := buildRaw(cfg.From, to, subject, htmlBody)
	addr := cfg.Host + ":" + cfg.Port

	var auth smtp.Auth
	if cfg.Username != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	if cfg.Port == "465" {
		return sendTLS(addr, cfg.Host, auth, cfg.From, to, raw)
	}
	if err := smtp.SendMail(addr, auth, cfg.From, []string{to}, raw); err != nil {
		return fmt.Errorf("mail: send: %w", err)
	}
	return nil
}

func sendTLS(addr, host string, auth smtp.Auth, from, to string, raw []byte) error {
	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return fmt.Errorf("mail: TLS dial: %w", err)
	}
	client, err := smtp.NewClient(conn, host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("mail: handshake: %w", err)
	}
	defer client.Close()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(from); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(raw); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return client.Quit()
}

func buildRaw(from, to, subject, body string) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + to + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", subject) + "\r\n")
	b.WriteString("Date: " + time.Now().Format(time.RFC1123Z) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/html; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(body)
	return []byte(b.String())
}

// LogMailer stands in for SMTP in development. The body carries reset links, so it
// only shows up at debug level.
type LogMailer struct {
	Logger *slog.Logger
}

func (m *LogMailer) Send(ctx context.Context, to, subject, htmlBody string) error {
	m.Logger.Info("mail_not_sent", "to", to, "subject", subject)
	m.Logger.DebugContext(ctx, "mail_body", "to", to, "body", htmlBody)
	return nil
}
