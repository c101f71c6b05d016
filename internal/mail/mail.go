// Package mail delivers account emails. Only password reset mails exist.
//
// New returns an SMTP sender when a host is configured and a logging sender
// otherwise. The logging sender writes the reset link to the log, which is
// meant for local development only.
package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	netmail "net/mail"
	"net/smtp"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds the SMTP settings and the reset page address.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	FromName string
	StartTLS bool
	Timeout  time.Duration
	// ResetURL is the page that accepts the token, as ?token=<jwt>.
	ResetURL string
}

func DefaultConfig() Config {
	return Config{
		Port:     587,
		From:     "no-reply@culinary-compass.local",
		FromName: "Culinary Compass",
		StartTLS: true,
		Timeout:  10 * time.Second,
		ResetURL: "http://localhost:3000/reset-password",
	}
}

// ResetMail is one password reset message.
type ResetMail struct {
	To        string
	Username  string
	Token     string
	ExpiresAt time.Time
}

// Sender delivers reset mails.
type Sender interface {
	SendPasswordReset(ctx context.Context, m ResetMail) error
}

var (
	_ Sender = (*SMTPSender)(nil)
	_ Sender = (*LogSender)(nil)
)

// New picks the sender for cfg.
func New(cfg Config, logger *slog.Logger) (Sender, error) {
	if _, err := url.Parse(cfg.ResetURL); err != nil || cfg.ResetURL == "" {
		return nil, fmt.Errorf("mail: invalid reset URL %q", cfg.ResetURL)
	}
	if cfg.Host == "" {
		logger.Warn("no SMTP host configured, reset links will be logged")
		return &LogSender{resetURL: cfg.ResetURL, logger: logger}, nil
	}
	return &SMTPSender{cfg: cfg, logger: logger}, nil
}

// ResetLink appends the token to the reset page address.
func ResetLink(resetURL, token string) (string, error) {
	u, err := url.Parse(resetURL)
	if err != nil {
		return "", fmt.Errorf("mail: parsing reset URL: %w", err)
	}
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// LogSender logs the reset link instead of sending it.
type LogSender struct {
	resetURL string
	logger   *slog.Logger
}

func (s *LogSender) SendPasswordReset(_ context.Context, m ResetMail) error {
	link, err := ResetLink(s.resetURL, m.Token)
	if err != nil {
		return err
	}
	s.logger.Info("password reset link",
		slog.String("to", m.To),
		slog.String("link", link),
		slog.Time("expires_at", m.ExpiresAt),
	)
	return nil
}

// SMTPSender sends reset mails through one SMTP connection per message.
type SMTPSender struct {
	cfg    Config
	logger *slog.Logger
}

func (s *SMTPSender) SendPasswordReset(ctx context.Context, m ResetMail) error {
	if _, err := netmail.ParseAddress(m.To); err != nil {
		return fmt.Errorf("mail: invalid recipient: %w", err)
	}
	msg, err := s.buildMessage(m)
	if err != nil {
		return err
	}
	if err := s.send(ctx, m.To, msg); err != nil {
		return fmt.Errorf("mail: sending reset mail: %w", err)
	}
	s.logger.Info("password reset mail sent", slog.String("to", m.To))
	return nil
}

func (s *SMTPSender) buildMessage(m ResetMail) (string, error) {
	link, err := ResetLink(s.cfg.ResetURL, m.Token)
	if err != nil {
		return "", err
	}
	from := netmail.Address{Name: s.cfg.FromName, Address: s.cfg.From}

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", m.To)
	b.WriteString("Subject: Password Reset Request\r\n")
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", m.Username)
	b.WriteString("To reset your password, visit the following link:\r\n\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", link)
	fmt.Fprintf(&b, "The link expires at %s.\r\n", m.ExpiresAt.UTC().Format(time.RFC1123))
	b.WriteString("If you did not make this request, ignore this email and nothing will change.\r\n")
	return b.String(), nil
}

func (s *SMTPSender) send(ctx context.Context, to, msg string) error {
	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	dialer := &net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	} else if s.cfg.Timeout > 0 {
		_ = conn.SetDeadline(time.Now().Add(s.cfg.Timeout))
	}

	client, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return fmt.Errorf("starting SMTP session: %w", err)
	}
	defer func() { _ = client.Close() }()

	if s.cfg.StartTLS {
		if ok, _ := client.Extension("STARTTLS"); !ok {
			return errors.New("server does not support STARTTLS")
		}
		if err := client.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return fmt.Errorf("starting TLS: %w", err)
		}
	}

	if s.cfg.Username != "" {
		if err := client.Auth(smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)); err != nil {
			return fmt.Errorf("authenticating: %w", err)
		}
	}

	if err := client.Mail(s.cfg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := client.Rcpt(to); err != nil {
		return fmt.Errorf("setting recipient: %w", err)
	}
	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("opening message body: %w", err)
	}
	if _, err := w.Write([]byte(msg)); err != nil {
		_ = w.Close()
		return fmt.Errorf("writing message body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finishing message body: %w", err)
	}
	return client.Quit()
}
