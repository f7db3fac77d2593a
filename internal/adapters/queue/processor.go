package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Sender delivers a decoded mail
type Sender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// MailProcessor decodes stream entries and delivers them
type MailProcessor struct {
	sender Sender
	log    zerolog.Logger
}

// NewMailProcessor creates a new mail processor
func NewMailProcessor(sender Sender, log zerolog.Logger) *MailProcessor {
	return &MailProcessor{sender: sender, log: log}
}

// Handle delivers one entry. Undecodable entries are logged and acknowledged
// so they do not block the group.
func (p *MailProcessor) Handle(ctx context.Context, msg redis.XMessage) error {
	mail, err := decodeMail(msg.Values)
	if err != nil {
		p.log.Warn().Err(err).Str("message_id", msg.ID).Msg("dropping malformed mail")
		return nil
	}

	if err := p.sender.Send(ctx, mail.To, mail.Subject, mail.Body); err != nil {
		return fmt.Errorf("send mail %s: %w", msg.ID, err)
	}
	p.log.Info().Str("message_id", msg.ID).Str("to", mail.To).Msg("mail delivered")
	return nil
}
