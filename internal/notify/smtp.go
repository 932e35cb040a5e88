// Package notify delivers approval-request messages to the administrator.
package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"net"
	"net/smtp"
	"time"

	"github.com/msomdec/approval-gate/internal/domain"
)

// implicitTLSPort is the submission port that expects TLS from the first byte.
const implicitTLSPort = "465"

const dialTimeout = 10 * time.Second

// sessionTimeout bounds the whole SMTP exchange when ctx carries no deadline.
const sessionTimeout = 30 * time.Second

// SMTPConfig holds the outbound mail settings.
type SMTPConfig struct {
	Host     string
	Port     string
	Username string
	Password string
	From     string
	// To is the administrator who approves registrations.
	To string
}

// SMTPNotifier sends registration notifications over SMTP.
type SMTPNotifier struct {
	cfg     SMTPConfig
	now     func() time.Time
	timeout time.Duration
	// tlsConfig is nil in production; tests override it.
	tlsConfig *tls.Config
}

var _ domain.Notifier = (*SMTPNotifier)(nil)

// NewSMTPNotifier creates a notifier for cfg.
func NewSMTPNotifier(cfg SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{cfg: cfg, now: time.Now, timeout: sessionTimeout}
}

// NotifyRegistration emails the administrator about a pending account.
func (n *SMTPNotifier) NotifyRegistration(ctx context.Context, reg domain.Registration) error {
	msg, err := buildMessage(ctx, n.cfg.From, n.cfg.To, reg, n.now())
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	if err := n.send(ctx, msg); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("send mail: %w", ctxErr)
		}
		return fmt.Errorf("send mail: %w", err)
	}
	slog.Debug("approval request sent", "to", n.cfg.To, "username", reg.Username)
	return nil
}

func (n *SMTPNotifier) clientTLSConfig() *tls.Config {
	if n.tlsConfig != nil {
		return n.tlsConfig
	}
	return &tls.Config{ServerName: n.cfg.Host}
}

func (n *SMTPNotifier) send(ctx context.Context, msg []byte) error {
	addr := net.JoinHostPort(n.cfg.Host, n.cfg.Port)
	dialer := &net.Dialer{Timeout: dialTimeout}
	implicitTLS := n.cfg.Port == implicitTLSPort

	var (
		conn net.Conn
		err  error
	)
	if implicitTLS {
		conn, err = (&tls.Dialer{NetDialer: dialer, Config: n.clientTLSConfig()}).DialContext(ctx, "tcp", addr)
	} else {
		conn, err = dialer.DialContext(ctx, "tcp", addr)
	}
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	deadline, ok := ctx.Deadline()
	if fallback := time.Now().Add(n.timeout); !ok || fallback.Before(deadline) {
		deadline = fallback
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return fmt.Errorf("set deadline: %w", err)
	}
	// net/smtp has no context support; closing the conn unblocks it.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	client, err := smtp.NewClient(conn, n.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", err)
	}
	defer client.Close()

	if !implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(n.clientTLSConfig()); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		}
	}

	if n.cfg.Username != "" {
		if ok, _ := client.Extension("AUTH"); ok {
			auth := smtp.PlainAuth("", n.cfg.Username, n.cfg.Password, n.cfg.Host)
			if err := client.Auth(auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	if err := client.Mail(n.cfg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := client.Rcpt(n.cfg.To); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}

	w, err := client.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(msg); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("close message: %w", err)
	}

	return client.Quit()
}
