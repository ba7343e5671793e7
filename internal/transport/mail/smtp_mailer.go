// Package mail delivers outbound email over SMTP.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"mime"
	"mime/quotedprintable"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/njprem/password-reset-api/internal/domain"
)

var ErrNotConfigured = errors.New("mailer not configured")

const implicitTLSPort = "465"

type Config struct {
	Host               string
	Port               string
	Username           string
	Password           string
	From               string
	UseTLS             bool
	InsecureSkipVerify bool
}

type SMTPMailer struct {
	host               string
	port               string
	username           string
	password           string
	from               string
	useTLS             bool
	insecureSkipVerify bool
	now                func() time.Time
}

func NewSMTPMailer(cfg Config) *SMTPMailer {
	return &SMTPMailer{
		host:               strings.TrimSpace(cfg.Host),
		port:               strings.TrimSpace(cfg.Port),
		username:           cfg.Username,
		password:           cfg.Password,
		from:               strings.TrimSpace(cfg.From),
		useTLS:             cfg.UseTLS,
		insecureSkipVerify: cfg.InsecureSkipVerify,
		now:                time.Now,
	}
}

// Send delivers msg to a single recipient. The connection is bound to ctx: its
// deadline becomes the socket deadline and cancellation closes the socket.
func (m *SMTPMailer) Send(ctx context.Context, msg domain.EmailMessage) error {
	if m == nil || m.host == "" || m.port == "" || m.from == "" {
		return ErrNotConfigured
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	from, err := netmail.ParseAddress(m.from)
	if err != nil {
		return fmt.Errorf("parse sender address: %w", err)
	}
	to, err := netmail.ParseAddress(msg.To)
	if err != nil {
		return fmt.Errorf("parse recipient address: %w", err)
	}
	raw, err := m.buildMessage(from, to, msg)
	if err != nil {
		return err
	}

	if err := m.deliver(ctx, from.Address, to.Address, raw); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("send mail: %w", ctxErr)
		}
		// the socket deadline can fire a moment before the context notices
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return fmt.Errorf("send mail: %w: %w", context.DeadlineExceeded, err)
		}
		return fmt.Errorf("send mail: %w", err)
	}
	return nil
}

func (m *SMTPMailer) deliver(ctx context.Context, from, to string, raw []byte) error {
	conn, err := m.dial(ctx)
	if err != nil {
		return err
	}
	defer conn.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, m.host)
	if err != nil {
		return fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	if m.port != implicitTLSPort {
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(m.tlsConfig()); err != nil {
				return fmt.Errorf("starttls: %w", err)
			}
		} else if m.useTLS {
			return errors.New("server does not support STARTTLS")
		}
	}

	if m.username != "" || m.password != "" {
		if ok, _ := c.Extension("AUTH"); !ok {
			return errors.New("server does not support AUTH")
		}
		if err := c.Auth(smtp.PlainAuth("", m.username, m.password, m.host)); err != nil {
			return fmt.Errorf("auth: %w", err)
		}
	}

	if err := c.Mail(from); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("rcpt to: %w", err)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write body: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("finish body: %w", err)
	}
	return c.Quit()
}

func (m *SMTPMailer) dial(ctx context.Context) (net.Conn, error) {
	addr := net.JoinHostPort(m.host, m.port)
	if m.port == implicitTLSPort {
		d := &tls.Dialer{Config: m.tlsConfig()}
		return d.DialContext(ctx, "tcp", addr)
	}
	var d net.Dialer
	return d.DialContext(ctx, "tcp", addr)
}

func (m *SMTPMailer) tlsConfig() *tls.Config {
	return &tls.Config{
		ServerName:         m.host,
		InsecureSkipVerify: m.insecureSkipVerify,
		MinVersion:         tls.VersionTLS12,
	}
}

func (m *SMTPMailer) buildMessage(from, to *netmail.Address, msg domain.EmailMessage) ([]byte, error) {
	if strings.ContainsAny(msg.Subject, "\r\n") {
		return nil, errors.New("subject contains line breaks")
	}

	var buf bytes.Buffer
	header := func(k, v string) { fmt.Fprintf(&buf, "%s: %s\r\n", k, v) }
	header("From", from.String())
	header("To", to.String())
	header("Subject", mime.QEncoding.Encode("utf-8", msg.Subject))
	header("Date", m.now().Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), senderDomain(from.Address)))
	header("MIME-Version", "1.0")
	header("Content-Type", `text/html; charset="UTF-8"`)
	header("Content-Transfer-Encoding", "quoted-printable")
	buf.WriteString("\r\n")

	qp := quotedprintable.NewWriter(&buf)
	if _, err := qp.Write([]byte(msg.HTMLBody)); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	if err := qp.Close(); err != nil {
		return nil, fmt.Errorf("encode body: %w", err)
	}
	buf.WriteString("\r\n")
	return buf.Bytes(), nil
}

func senderDomain(address string) string {
	if i := strings.LastIndexByte(address, '@'); i >= 0 && i < len(address)-1 {
		return address[i+1:]
	}
	return "localhost"
}
