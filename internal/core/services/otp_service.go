package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/config"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/password"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ============================================================
// OTP Service - email ownership challenges
// ============================================================

// OTPService issues and checks one-time codes. Codes are stored as bcrypt
// hashes; only the newest challenge for an email is ever compared.
type OTPService struct {
	otpRepo  repositories.OTPRepository
	notifier *NotificationService
	cfg      config.OTPConfig
	log      zerolog.Logger
	now      func() time.Time
}

// NewOTPService creates a new OTP service
func NewOTPService(
	otpRepo repositories.OTPRepository,
	notifier *NotificationService,
	cfg config.OTPConfig,
	log zerolog.Logger,
) *OTPService {
	return &OTPService{
		otpRepo:  otpRepo,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Send creates a new challenge for email and dispatches the code without waiting
func (s *OTPService) Send(ctx context.Context, email, subject, message string) error {
	code, err := password.GenerateCode(s.cfg.Length)
	if err != nil {
		return fmt.Errorf("generate otp: %w", err)
	}
	hashed, err := password.Hash(code)
	if err != nil {
		return fmt.Errorf("hash otp: %w", err)
	}

	challenge := &models.OTPChallenge{
		Email:     email,
		CodeHash:  hashed,
		ExpiresAt: s.now().Add(s.cfg.TTL),
	}
	if err := s.otpRepo.Create(ctx, challenge); err != nil {
		return err
	}

	s.notifier.Notify(email, subject, fmt.Sprintf("%s %s", message, code))
	s.log.Debug().Str("email", email).Time("expires_at", challenge.ExpiresAt).Msg("otp issued")
	return nil
}

// Verify checks code against the newest challenge for email and consumes
// every outstanding challenge on success. A missing, expired or wrong code
// all return the same ErrInvalidOTP.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	latest, err := s.otpRepo.Latest(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrInvalidOTP
		}
		return err
	}

	if latest.IsExpired(s.now()) {
		return domain.ErrInvalidOTP
	}
	if !password.Verify(normalizeCode(code), latest.CodeHash) {
		return domain.ErrInvalidOTP
	}

	consumed, err := s.otpRepo.Consume(ctx, latest.ID)
	if err != nil {
		return err
	}
	if !consumed {
		return domain.ErrInvalidOTP
	}
	return s.otpRepo.DeleteByEmail(ctx, email)
}

// CleanupExpired removes challenges past their TTL
func (s *OTPService) CleanupExpired(ctx context.Context) (int64, error) {
	return s.otpRepo.DeleteExpired(ctx, s.now())
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
