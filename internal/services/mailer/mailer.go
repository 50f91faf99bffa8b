package mailer

import (
	"context"
	"errors"
	"fmt"

	"github.com/wneessen/go-mail"

	"github.com/grocer-core-poc/server/internal/agent/model"
	errx "github.com/grocer-core-poc/server/internal/core/error"
	logx "github.com/grocer-core-poc/server/pkg/logger"
)

// Message is one HTML email.
type Message struct {
	From    string
	To      string
	Subject string
	HTML    string
}

// Sender delivers messages to a mail relay.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTP sends through an authenticated implicit-TLS relay.
type SMTP struct {
	host     string
	port     int
	username string
	password string
}

func NewSMTP(cfg model.EmailConfig) (*SMTP, error) {
	if cfg.Host == "" {
		return nil, errors.New("smtp host is required")
	}
	return &SMTP{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
	}, nil
}

func (s *SMTP) Send(ctx context.Context, m Message) error {
	msg, err := buildMessage(m)
	if err != nil {
		return err
	}

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSSL(),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
	)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, msg); err != nil {
		return errx.WrapUpstream(fmt.Errorf("smtp send: %w", err))
	}

	logx.Info().Str("to", m.To).Str("subject", m.Subject).Msg("Email sent")
	return nil
}

func buildMessage(m Message) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(m.From); err != nil {
		return nil, fmt.Errorf("sender address %q: %w", m.From, err)
	}
	if err := msg.To(m.To); err != nil {
		return nil, fmt.Errorf("recipient address %q: %w", m.To, err)
	}
	msg.Subject(m.Subject)
	msg.SetBodyString(mail.TypeTextHTML, m.HTML)
	return msg, nil
}

var _ Sender = (*SMTP)(nil)
