package services

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/config"
	"libraryhub/internal/pkg/password"
	"libraryhub/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func init() {
	password.Cost = bcrypt.MinCost
}

type sentMessage struct {
	to, subject, body string
}

// recordingSender keeps every message it is asked to deliver
type recordingSender struct {
	mu       sync.Mutex
	messages []sentMessage
	failures int
}

func (s *recordingSender) Send(_ context.Context, to, subject, body string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failures > 0 {
		s.failures--
		return errSendFailed
	}
	s.messages = append(s.messages, sentMessage{to: to, subject: subject, body: body})
	return nil
}

func (s *recordingSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.messages)
}

// lastCode returns the code appended to the newest message for to
func (s *recordingSender) lastCode(t *testing.T, to string) string {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].to == to {
			fields := strings.Fields(s.messages[i].body)
			return fields[len(fields)-1]
		}
	}
	t.Fatalf("no message sent to %s", to)
	return ""
}

type sendError string

func (e sendError) Error() string { return string(e) }

const errSendFailed = sendError("smtp unavailable")

func testConfig() *config.Config {
	return &config.Config{
		AppMode: "dev",
		JWT: config.JWTConfig{
			Secret:        "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    time.Hour,
		},
		OTP: config.OTPConfig{
			TTL:            5 * time.Minute,
			Length:         6,
			Subject:        "Verify your email",
			ResetSubject:   "Reset your password",
			ActivationText: "Your code is",
		},
		Borrowing: config.BorrowingConfig{MaxRenewalDays: 30},
		Mail: config.MailConfig{
			Retries: 2,
			Backoff: time.Millisecond,
			Timeout: time.Second,
		},
	}
}

type authFixture struct {
	db       *gorm.DB
	cfg      *config.Config
	sender   *recordingSender
	notifier *NotificationService
	otp      *OTPService
	auth     *AuthService
	accounts repositories.AccountRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	db := testutil.NewDB(t)
	cfg := testConfig()
	log := zerolog.Nop()
	sender := &recordingSender{}
	notifier := NewNotificationService(sender, cfg.Mail, log)
	otp := NewOTPService(repositories.NewOTPRepository(db), notifier, cfg.OTP, log)
	accounts := repositories.NewAccountRepository(db)

	return &authFixture{
		db:       db,
		cfg:      cfg,
		sender:   sender,
		notifier: notifier,
		otp:      otp,
		auth:     NewAuthService(accounts, otp, cfg, log),
		accounts: accounts,
	}
}

// code waits for outstanding notifications and returns the last code mailed to email
func (f *authFixture) code(t *testing.T, email string) string {
	t.Helper()
	f.notifier.Wait()
	return f.sender.lastCode(t, email)
}

// activate walks email through register, verify and create password
func (f *authFixture) activate(t *testing.T, email, plain string) {
	t.Helper()
	ctx := context.Background()

	_, err := f.auth.Register(ctx, email)
	require.NoError(t, err)
	require.NoError(t, f.auth.VerifyOTP(ctx, email, f.code(t, email)))
	require.NoError(t, f.auth.CreatePassword(ctx, email, plain))
}
