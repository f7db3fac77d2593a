package queue

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// StreamSender hands mail to the mailer worker through a Redis stream.
// It satisfies services.NotificationSender.
type StreamSender struct {
	client *redis.Client
	stream string
}

// NewStreamSender creates a new stream sender
func NewStreamSender(client *redis.Client, stream string) *StreamSender {
	return &StreamSender{client: client, stream: stream}
}

// Send appends the mail to the stream
func (s *StreamSender) Send(ctx context.Context, to, subject, body string) error {
	values, err := encodeMail(MailMessage{To: to, Subject: subject, Body: body})
	if err != nil {
		return fmt.Errorf("encode mail: %w", err)
	}
	if err := s.client.XAdd(ctx, &redis.XAddArgs{
		Stream: s.stream,
		Values: values,
	}).Err(); err != nil {
		return fmt.Errorf("enqueue mail: %w", err)
	}
	return nil
}
