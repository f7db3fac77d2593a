package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"libraryhub/internal/adapters/mail"
	"libraryhub/internal/adapters/queue"
	"libraryhub/internal/config"
	"libraryhub/internal/pkg/logger"
)

// The mailer drains the mail stream written by the API when MAIL_DRIVER=redis
// and delivers each entry over SMTP.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.AppMode).With().Str("component", "mailer").Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client, err := queue.NewRedisClient(ctx, cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer client.Close()

	smtpSender, err := mail.NewSMTPSender(cfg.SMTP)
	if err != nil {
		log.Fatal().Err(err).Msg("smtp configuration failed")
	}
	processor := queue.NewMailProcessor(smtpSender, log)
	consumer := queue.NewConsumer(
		client,
		cfg.Redis.Stream,
		cfg.Redis.Group,
		cfg.Redis.Consumer,
		cfg.Mail.ClaimIdle,
		log,
		processor,
	)
	if err := consumer.EnsureGroup(ctx); err != nil {
		log.Fatal().Err(err).Msg("create consumer group")
	}

	log.Info().Str("stream", cfg.Redis.Stream).Str("group", cfg.Redis.Group).Msg("mailer started")
	if err := consumer.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal().Err(err).Msg("consumer stopped unexpectedly")
	}
	log.Info().Msg("mailer stopped")
}
