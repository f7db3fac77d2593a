package services

import (
	"context"
	"strings"
	"testing"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/password"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthService_RegisterCreatesInactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	acc, err := f.auth.Register(ctx, "  Reader@Example.com ")
	require.NoError(t, err)
	assert.Equal(t, "reader@example.com", acc.Email)
	assert.Equal(t, domain.AccountInactive, acc.Status)
	assert.Equal(t, domain.RoleUser, acc.Role)

	stored, err := f.accounts.GetByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.False(t, stored.HasPassword())

	code := f.code(t, "reader@example.com")
	assert.Len(t, code, 6)
	assert.Equal(t, strings.ToUpper(code), code)

	_, err = f.auth.Register(ctx, "reader@example.com")
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)
}

func TestAuthService_VerifyOTPIsSingleUse(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "reader@example.com")
	require.NoError(t, err)
	code := f.code(t, "reader@example.com")

	require.NoError(t, f.auth.VerifyOTP(ctx, "reader@example.com", strings.ToLower(code)))

	acc, err := f.accounts.GetByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.True(t, acc.IsActive())

	err = f.auth.VerifyOTP(ctx, "reader@example.com", code)
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)
	assert.Equal(t, 403, domain.StatusOf(err))
}

func TestAuthService_VerifyOTPChecksOnlyNewestChallenge(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "reader@example.com")
	require.NoError(t, err)
	first := f.code(t, "reader@example.com")

	require.NoError(t, f.auth.ResendOTP(ctx, "reader@example.com"))
	second := f.code(t, "reader@example.com")

	if first != second {
		assert.ErrorIs(t, f.auth.VerifyOTP(ctx, "reader@example.com", first), domain.ErrInvalidOTP)
	}
	assert.NoError(t, f.auth.VerifyOTP(ctx, "reader@example.com", second))
}

func TestAuthService_VerifyOTPAfterTTL(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "reader@example.com")
	require.NoError(t, err)
	code := f.code(t, "reader@example.com")

	f.otp.now = func() time.Time { return time.Now().UTC().Add(6 * time.Minute) }

	err = f.auth.VerifyOTP(ctx, "reader@example.com", code)
	assert.ErrorIs(t, err, domain.ErrInvalidOTP)

	acc, err := f.accounts.GetByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	assert.False(t, acc.IsActive())
}

func TestAuthService_ResendOTPUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)

	require.NoError(t, f.auth.ResendOTP(context.Background(), "ghost@example.com"))
	f.notifier.Wait()
	assert.Zero(t, f.sender.count())
}

func TestAuthService_CreatePassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.auth.Register(ctx, "reader@example.com")
	require.NoError(t, err)

	// not verified yet
	assert.ErrorIs(t, f.auth.CreatePassword(ctx, "reader@example.com", "longenough"), domain.ErrAccessDenied)

	require.NoError(t, f.auth.VerifyOTP(ctx, "reader@example.com", f.code(t, "reader@example.com")))
	assert.ErrorIs(t, f.auth.CreatePassword(ctx, "reader@example.com", "short"), domain.ErrPasswordTooShort)
	require.NoError(t, f.auth.CreatePassword(ctx, "reader@example.com", "longenough"))

	// only once
	assert.ErrorIs(t, f.auth.CreatePassword(ctx, "reader@example.com", "another-one"), domain.ErrAccessDenied)
	assert.ErrorIs(t, f.auth.CreatePassword(ctx, "ghost@example.com", "longenough"), domain.ErrAccessDenied)
}

func TestAuthService_LoginErrorsAreGeneric(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.activate(t, "reader@example.com", "correct-horse")

	_, err := f.auth.Login(ctx, "reader@example.com", "wrong-horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "ghost@example.com", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	resp, err := f.auth.Login(ctx, "READER@example.com", "correct-horse")
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "reader@example.com", resp.Account.Email)

	principal, err := f.auth.ValidateAccessToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Account.ID, principal.AccountID)
	assert.Equal(t, domain.RoleUser, principal.Role)

	// access and refresh tokens are signed with different secrets
	_, err = f.auth.ValidateRefreshToken(resp.AccessToken)
	assert.Error(t, err)

	stored, err := f.accounts.GetByID(ctx, principal.AccountID)
	require.NoError(t, err)
	require.NotNil(t, stored.RefreshTokenHash)
	assert.NotEqual(t, resp.RefreshToken, *stored.RefreshTokenHash)
	assert.True(t, password.TokenMatches(resp.RefreshToken, *stored.RefreshTokenHash))
}

func TestAuthService_LoginInactiveAccount(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.activate(t, "reader@example.com", "correct-horse")

	acc, err := f.accounts.GetByEmail(ctx, "reader@example.com")
	require.NoError(t, err)
	require.NoError(t, f.accounts.UpdateFields(ctx, acc.ID, map[string]interface{}{"status": domain.AccountInactive}))

	_, err = f.auth.Login(ctx, "reader@example.com", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrAccountInactive)
}

func TestAuthService_RefreshRotatesAndRejectsReplay(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.activate(t, "reader@example.com", "correct-horse")

	login, err := f.auth.Login(ctx, "reader@example.com", "correct-horse")
	require.NoError(t, err)

	principal, err := f.auth.ValidateRefreshToken(login.RefreshToken)
	require.NoError(t, err)

	rotated, err := f.auth.RefreshToken(ctx, principal, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, rotated.RefreshToken)

	_, err = f.auth.RefreshToken(ctx, principal, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrRefreshTokenInvalid)

	_, err = f.auth.RefreshToken(ctx, principal, rotated.RefreshToken)
	assert.NoError(t, err)
}

func TestAuthService_LogoutInvalidatesRefreshToken(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.activate(t, "reader@example.com", "correct-horse")

	login, err := f.auth.Login(ctx, "reader@example.com", "correct-horse")
	require.NoError(t, err)
	principal, err := f.auth.ValidateAccessToken(login.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, principal))

	_, err = f.auth.RefreshToken(ctx, principal, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrRefreshTokenInvalid)
}

func TestAuthService_ForgotAndResetPassword(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	f.activate(t, "reader@example.com", "correct-horse")

	login, err := f.auth.Login(ctx, "reader@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, f.auth.ForgotPassword(ctx, "ghost@example.com"))
	require.NoError(t, f.auth.ForgotPassword(ctx, "reader@example.com"))
	code := f.code(t, "reader@example.com")

	assert.ErrorIs(t, f.auth.ResetPassword(ctx, "reader@example.com", code, "short"), domain.ErrPasswordTooShort)
	assert.ErrorIs(t, f.auth.ResetPassword(ctx, "reader@example.com", "ZZZZZZ", "battery-staple"), domain.ErrInvalidOTP)
	require.NoError(t, f.auth.ResetPassword(ctx, "reader@example.com", code, "battery-staple"))

	_, err = f.auth.Login(ctx, "reader@example.com", "correct-horse")
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
	_, err = f.auth.Login(ctx, "reader@example.com", "battery-staple")
	assert.NoError(t, err)

	// sessions issued before the reset are gone
	principal, err := f.auth.ValidateRefreshToken(login.RefreshToken)
	require.NoError(t, err)
	_, err = f.auth.RefreshToken(ctx, principal, login.RefreshToken)
	assert.ErrorIs(t, err, domain.ErrRefreshTokenInvalid)
}

// staleOTPRepository hands out the first challenge it read, as a concurrent
// verifier that loaded it before the other one consumed it would
type staleOTPRepository struct {
	repositories.OTPRepository
	cached *models.OTPChallenge
}

func (r *staleOTPRepository) Latest(ctx context.Context, email string) (*models.OTPChallenge, error) {
	if r.cached != nil {
		return r.cached, nil
	}
	latest, err := r.OTPRepository.Latest(ctx, email)
	if err != nil {
		return nil, err
	}
	r.cached = latest
	return latest, nil
}

func TestOTPService_VerifyFromStaleReadSucceedsOnce(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.auth.SendOTP(ctx, "reader@example.com", "Code", "Your code is"))
	code := f.code(t, "reader@example.com")

	stale := &staleOTPRepository{OTPRepository: repositories.NewOTPRepository(f.db)}
	otp := NewOTPService(stale, f.notifier, f.cfg.OTP, zerolog.Nop())

	require.NoError(t, otp.Verify(ctx, "reader@example.com", code))
	assert.ErrorIs(t, otp.Verify(ctx, "reader@example.com", code), domain.ErrInvalidOTP)
}
