package mail

import (
	"context"
	"fmt"
	"strings"
	"time"

	"libraryhub/internal/config"

	gomail "github.com/wneessen/go-mail"
)

const dialTimeout = 15 * time.Second

// SMTPSender delivers plain-text mail through an SMTP relay
type SMTPSender struct {
	from   string
	client *gomail.Client
}

// NewSMTPSender creates a new SMTP sender. Auth is skipped when no user is configured.
func NewSMTPSender(cfg config.SMTPConfig) (*SMTPSender, error) {
	opts := []gomail.Option{
		gomail.WithPort(cfg.Port),
		gomail.WithTimeout(dialTimeout),
		gomail.WithTLSPolicy(gomail.TLSOpportunistic),
	}
	if cfg.User != "" {
		opts = append(opts,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.User),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Host, opts...)
	if err != nil {
		return nil, fmt.Errorf("smtp client: %w", err)
	}
	return &SMTPSender{from: cfg.From, client: client}, nil
}

// Send delivers one message, giving up when ctx is done
func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := buildMessage(s.from, to, subject, body, time.Now())
	if err != nil {
		return err
	}
	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func buildMessage(from, to, subject, body string, now time.Time) (*gomail.Msg, error) {
	msg := gomail.NewMsg()
	if err := msg.From(from); err != nil {
		return nil, fmt.Errorf("invalid sender %q: %w", from, err)
	}
	if err := msg.To(to); err != nil {
		return nil, fmt.Errorf("invalid recipient %q: %w", to, err)
	}
	msg.Subject(stripCRLF(subject))
	msg.SetDateWithValue(now)
	msg.SetBodyString(gomail.TypeTextPlain, body)
	return msg, nil
}

// stripCRLF keeps header values on one line
func stripCRLF(s string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(s)
}
