package services

import (
	"context"
	"sync"
	"time"

	"libraryhub/internal/config"

	"github.com/rs/zerolog"
	"github.com/sethvargo/go-retry"
)

// NotificationSender delivers one message to one recipient
type NotificationSender interface {
	Send(ctx context.Context, to, subject, body string) error
}

// LogSender writes messages to the log instead of delivering them (dev mode)
type LogSender struct {
	log zerolog.Logger
}

// NewLogSender creates a new log sender
func NewLogSender(log zerolog.Logger) *LogSender {
	return &LogSender{log: log}
}

// Send logs the message
func (s *LogSender) Send(_ context.Context, to, subject, body string) error {
	s.log.Info().
		Str("to", to).
		Str("subject", subject).
		Str("body", body).
		Msg("notification")
	return nil
}

// NotificationService dispatches notifications in the background.
// Callers never wait for delivery; failures are retried with exponential
// backoff and then logged.
type NotificationService struct {
	sender  NotificationSender
	log     zerolog.Logger
	retries uint64
	backoff time.Duration
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewNotificationService creates a new notification service
func NewNotificationService(sender NotificationSender, cfg config.MailConfig, log zerolog.Logger) *NotificationService {
	backoff := cfg.Backoff
	if backoff <= 0 {
		backoff = 500 * time.Millisecond
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NotificationService{
		sender:  sender,
		log:     log,
		retries: cfg.Retries,
		backoff: backoff,
		timeout: timeout,
	}
}

// Notify queues a message for delivery and returns immediately
func (s *NotificationService) Notify(to, subject, body string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.deliver(ctx, to, subject, body); err != nil {
			s.log.Error().Err(err).Str("to", to).Str("subject", subject).Msg("notification dropped")
		}
	}()
}

func (s *NotificationService) deliver(ctx context.Context, to, subject, body string) error {
	b := retry.WithMaxRetries(s.retries, retry.NewExponential(s.backoff))
	attempt := 0
	return retry.Do(ctx, b, func(ctx context.Context) error {
		attempt++
		if err := s.sender.Send(ctx, to, subject, body); err != nil {
			s.log.Warn().Err(err).Int("attempt", attempt).Str("to", to).Msg("notification send failed")
			return retry.RetryableError(err)
		}
		return nil
	})
}

// Wait blocks until every queued notification has finished (shutdown, tests)
func (s *NotificationService) Wait() {
	s.wg.Wait()
}
