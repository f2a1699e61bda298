package mail

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrSMTPHostPortRequired is returned when Host/Port are missing.
	ErrSMTPHostPortRequired = errors.New("smtp host and port are required")
	// ErrSMTPNoRecipients is returned when To is empty.
	ErrSMTPNoRecipients = errors.New("no recipients provided")
	// ErrSMTPNoSender is returned when neither Message.From nor the configured From is set.
	ErrSMTPNoSender = errors.New("no sender provided")
	// ErrSMTPHeaderInjection is returned when a header value contains a line break.
	ErrSMTPHeaderInjection = errors.New("header value contains a line break")
)

// SMTP sends mail with net/smtp. Each Send dials a new connection.
type SMTP struct {
	addr string
	host string
	from string
	auth smtp.Auth
	now  func() time.Time
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	// From is the sender used when Message.From is empty.
	From string
}

func NewSMTP(cfg SMTPConfig) (*SMTP, error) {
	if cfg.Host == "" || cfg.Port == 0 {
		return nil, ErrSMTPHostPortRequired
	}

	var auth smtp.Auth
	if cfg.Username != "" && cfg.Password != "" {
		auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
	}

	return &SMTP{
		addr: net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)),
		host: cfg.Host,
		from: cfg.From,
		auth: auth,
		now:  time.Now,
	}, nil
}

// Send returns ctx.Err() when ctx is done before dialing. net/smtp has no
// context support, so a send in flight is not interrupted.
func (s *SMTP) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(msg.To) == 0 {
		return ErrSMTPNoRecipients
	}

	from := msg.From
	if from == "" {
		from = s.from
	}
	if from == "" {
		return ErrSMTPNoSender
	}

	raw, err := s.compose(from, msg)
	if err != nil {
		return err
	}

	return smtp.SendMail(s.addr, s.auth, from, msg.To, raw)
}

func (s *SMTP) Close() error {
	return nil
}

func (s *SMTP) compose(from string, msg Message) ([]byte, error) {
	headers := [][2]string{
		{"From", from},
		{"To", strings.Join(msg.To, ", ")},
		{"Subject", msg.Subject},
		{"Date", s.now().Format(time.RFC1123Z)},
	}
	if msg.ID != "" {
		headers = append(headers, [2]string{"Message-ID", "<" + msg.ID + "@" + s.host + ">"})
	}

	body, contentType := buildBody(msg)
	headers = append(headers,
		[2]string{"MIME-Version", "1.0"},
		[2]string{"Content-Type", contentType},
	)

	var sb strings.Builder
	for _, h := range headers {
		if strings.ContainsAny(h[1], "\r\n") {
			return nil, fmt.Errorf("%w: %s", ErrSMTPHeaderInjection, h[0])
		}
		sb.WriteString(h[0] + ": " + h[1] + "\r\n")
	}
	sb.WriteString("\r\n")
	sb.WriteString(body)

	return []byte(sb.String()), nil
}

func buildBody(msg Message) (body string, contentType string) {
	if msg.HTMLBody == "" {
		return msg.TextBody, "text/plain; charset=UTF-8"
	}
	if msg.TextBody == "" {
		return msg.HTMLBody, "text/html; charset=UTF-8"
	}

	boundary := multipartBoundary()
	var sb strings.Builder
	for _, part := range [][2]string{{"text/plain", msg.TextBody}, {"text/html", msg.HTMLBody}} {
		fmt.Fprintf(&sb, "--%s\r\nContent-Type: %s; charset=UTF-8\r\n\r\n%s\r\n", boundary, part[0], part[1])
	}
	fmt.Fprintf(&sb, "--%s--", boundary)

	return sb.String(), "multipart/alternative; boundary=" + boundary
}

func multipartBoundary() string {
	var b [12]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "gotp-boundary"
	}
	return "gotp-" + hex.EncodeToString(b[:])
}
