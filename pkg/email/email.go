// Package email sends the outbound notices of the placement workflow over
// SMTP.
package email

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/Alijeyrad/internhub_backend/config"
)

const defaultTimeout = 30 * time.Second

// ErrDisabled is returned by Send when mail delivery is switched off.
var ErrDisabled = errors.New("email: delivery disabled")

// MessageError reports a message that cannot be rendered.
type MessageError struct{ Reason string }

func (e *MessageError) Error() string { return "email: invalid message: " + e.Reason }

// SendError wraps a transport failure.
type SendError struct {
	Host string
	Err  error
}

func (e *SendError) Error() string { return fmt.Sprintf("email: send via %s: %v", e.Host, e.Err) }
func (e *SendError) Unwrap() error { return e.Err }

type Message struct {
	To       []string
	ReplyTo  string
	Subject  string
	TextBody string
	HTMLBody string
	Headers  map[string]string
}

type Config struct {
	Enabled  bool
	From     string
	Host     string
	Port     int
	Username string
	Password string
	UseTLS   bool
	Timeout  time.Duration
}

func FromCentralConfig(c config.EmailConfig) Config {
	cfg := Config{
		Enabled:  c.Enabled,
		From:     strings.TrimSpace(c.From),
		Host:     c.SMTP.Host,
		Port:     c.SMTP.Port,
		Username: c.SMTP.Username,
		Password: c.SMTP.Password,
		UseTLS:   c.SMTP.UseTLS,
		Timeout:  time.Duration(c.SMTP.TimeoutSeconds) * time.Second,
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	return cfg
}

type Client struct {
	cfg    Config
	dialer *gomail.Dialer
}

func NewFromCentral(cfg config.EmailConfig) (*Client, error) {
	return New(FromCentralConfig(cfg))
}

func New(cfg Config) (*Client, error) {
	if cfg.Enabled && cfg.Host == "" {
		return nil, errors.New("email: smtp host is required when enabled")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}

	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	d.SSL = cfg.UseTLS
	if cfg.UseTLS {
		d.TLSConfig = &tls.Config{ServerName: cfg.Host}
	}
	return &Client{cfg: cfg, dialer: d}, nil
}

// Send delivers m, giving up at the earlier of ctx's deadline and the
// configured SMTP timeout. The dial keeps running in the background after a
// timeout; gomail offers no way to cancel it.
func (c *Client) Send(ctx context.Context, m Message) error {
	if !c.cfg.Enabled {
		return ErrDisabled
	}
	msg, err := render(c.cfg.From, m)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- c.dialer.DialAndSend(msg) }()

	select {
	case err := <-done:
		if err != nil {
			return &SendError{Host: c.cfg.Host, Err: err}
		}
		return nil
	case <-ctx.Done():
		return &SendError{Host: c.cfg.Host, Err: ctx.Err()}
	}
}

func render(from string, m Message) (*gomail.Message, error) {
	if from == "" {
		return nil, &MessageError{Reason: "sender address is required"}
	}
	to := make([]string, 0, len(m.To))
	for _, addr := range m.To {
		if addr = strings.TrimSpace(addr); addr != "" {
			to = append(to, addr)
		}
	}
	if len(to) == 0 {
		return nil, &MessageError{Reason: "at least one recipient is required"}
	}
	subject := strings.TrimSpace(m.Subject)
	if subject == "" {
		return nil, &MessageError{Reason: "subject is required"}
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	if m.ReplyTo != "" {
		msg.SetHeader("Reply-To", m.ReplyTo)
	}
	for k, v := range m.Headers {
		if k, v = strings.TrimSpace(k), strings.TrimSpace(v); k != "" && v != "" {
			msg.SetHeader(k, v)
		}
	}

	text, html := strings.TrimSpace(m.TextBody) != "", strings.TrimSpace(m.HTMLBody) != ""
	switch {
	case text && html:
		msg.SetBody("text/plain", m.TextBody)
		msg.AddAlternative("text/html", m.HTMLBody)
	case html:
		msg.SetBody("text/html", m.HTMLBody)
	case text:
		msg.SetBody("text/plain", m.TextBody)
	default:
		return nil, &MessageError{Reason: "a text or html body is required"}
	}
	return msg, nil
}
