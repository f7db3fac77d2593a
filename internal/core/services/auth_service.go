package services

import (
	"context"
	"errors"
	"strings"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/config"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/jwt"
	"libraryhub/internal/pkg/password"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// AuthService handles authentication business logic
type AuthService struct {
	accountRepo repositories.AccountRepository
	otp         *OTPService
	cfg         *config.Config
	log         zerolog.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(
	accountRepo repositories.AccountRepository,
	otp *OTPService,
	cfg *config.Config,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		accountRepo: accountRepo,
		otp:         otp,
		cfg:         cfg,
		log:         log,
	}
}

// LoginResponse represents a successful login
type LoginResponse struct {
	Account *models.AccountResponse `json:"account"`
	domain.TokenPair
}

// NormalizeEmail trims and lower-cases an email address
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register creates an inactive account without a password and sends an activation code
func (s *AuthService) Register(ctx context.Context, email string) (*models.AccountResponse, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	account := &models.Account{
		Email:  email,
		Status: domain.AccountInactive,
		Role:   domain.RoleUser,
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if err := s.SendOTP(ctx, email, s.cfg.OTP.Subject, s.cfg.OTP.ActivationText); err != nil {
		return nil, err
	}

	s.log.Info().Uint("account_id", account.ID).Str("email", email).Msg("account registered")
	return account.ToResponse(), nil
}

// SendOTP issues a new challenge for email
func (s *AuthService) SendOTP(ctx context.Context, email, subject, message string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.ErrEmailRequired
	}
	return s.otp.Send(ctx, email, subject, message)
}

// ResendOTP issues a fresh activation code. Unknown emails succeed silently.
func (s *AuthService) ResendOTP(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.ErrEmailRequired
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if account.IsDeactivated() {
		return nil
	}
	return s.otp.Send(ctx, email, s.cfg.OTP.Subject, s.cfg.OTP.ActivationText)
}

// VerifyOTP consumes the newest challenge for email and activates the account if needed
func (s *AuthService) VerifyOTP(ctx context.Context, email, code string) error {
	email = NormalizeEmail(email)

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	if account != nil && account.IsDeactivated() {
		return domain.ErrAccountInactive
	}

	if err := s.otp.Verify(ctx, email, code); err != nil {
		return err
	}
	if account == nil || account.IsActive() {
		return nil
	}

	if err := s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"status": domain.AccountActive,
	}); err != nil {
		return err
	}

	s.log.Info().Uint("account_id", account.ID).Msg("account activated")
	return nil
}

// CreatePassword sets the first password of an activated account
func (s *AuthService) CreatePassword(ctx context.Context, email, plain string) error {
	email = NormalizeEmail(email)

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrAccessDenied
		}
		return err
	}
	if !account.IsActive() || account.HasPassword() {
		return domain.ErrAccessDenied
	}
	if !password.ValidatePassword(plain) {
		return domain.ErrPasswordTooShort
	}

	hashed, err := password.Hash(plain)
	if err != nil {
		return err
	}
	return s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"password_hash": hashed,
	})
}

// Login authenticates an account and starts a new session
func (s *AuthService) Login(ctx context.Context, email, plain string) (*LoginResponse, error) {
	email = NormalizeEmail(email)

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}

	if !account.HasPassword() || !password.Verify(plain, *account.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	if !account.IsActive() {
		return nil, domain.ErrAccountInactive
	}

	tokens, err := s.generateTokens(account)
	if err != nil {
		return nil, err
	}

	hash := password.HashToken(tokens.RefreshToken)
	if err := s.accountRepo.SetRefreshTokenHash(ctx, account.ID, &hash); err != nil {
		return nil, err
	}

	s.log.Info().Uint("account_id", account.ID).Msg("account logged in")

	return &LoginResponse{
		Account:   account.ToResponse(),
		TokenPair: *tokens,
	}, nil
}

// RefreshToken rotates the token pair. The presented refresh token must be
// the one issued last; afterwards it no longer matches.
func (s *AuthService) RefreshToken(ctx context.Context, principal domain.Principal, rawToken string) (*domain.TokenPair, error) {
	account, err := s.accountRepo.GetByID(ctx, principal.AccountID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRefreshTokenInvalid
		}
		return nil, err
	}

	if account.RefreshTokenHash == nil || !password.TokenMatches(rawToken, *account.RefreshTokenHash) {
		return nil, domain.ErrRefreshTokenInvalid
	}
	if !account.IsActive() {
		return nil, domain.ErrAccountInactive
	}

	tokens, err := s.generateTokens(account)
	if err != nil {
		return nil, err
	}

	err = s.accountRepo.RotateRefreshTokenHash(ctx, account.ID,
		*account.RefreshTokenHash, password.HashToken(tokens.RefreshToken))
	if err != nil {
		return nil, err
	}

	s.log.Debug().Uint("account_id", account.ID).Msg("token pair rotated")
	return tokens, nil
}

// Logout clears the stored refresh token hash
func (s *AuthService) Logout(ctx context.Context, principal domain.Principal) error {
	if err := s.accountRepo.SetRefreshTokenHash(ctx, principal.AccountID, nil); err != nil {
		return err
	}

	s.log.Info().Uint("account_id", principal.AccountID).Msg("account logged out")
	return nil
}

// ForgotPassword sends a reset code to an active account. Unknown emails succeed silently.
func (s *AuthService) ForgotPassword(ctx context.Context, email string) error {
	email = NormalizeEmail(email)
	if email == "" {
		return domain.ErrEmailRequired
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return err
	}
	if !account.IsActive() {
		return nil
	}

	return s.otp.Send(ctx, email, s.cfg.OTP.ResetSubject, s.cfg.OTP.ActivationText)
}

// ResetPassword replaces the password after a reset code is verified and ends every session
func (s *AuthService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	email = NormalizeEmail(email)
	if !password.ValidatePassword(newPassword) {
		return domain.ErrPasswordTooShort
	}

	if err := s.otp.Verify(ctx, email, code); err != nil {
		return err
	}

	account, err := s.accountRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return domain.ErrInvalidOTP
		}
		return err
	}
	if !account.IsActive() {
		return domain.ErrAccountInactive
	}

	hashed, err := password.Hash(newPassword)
	if err != nil {
		return err
	}
	if err := s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"password_hash":      hashed,
		"refresh_token_hash": nil,
	}); err != nil {
		return err
	}

	s.log.Info().Uint("account_id", account.ID).Msg("password reset")
	return nil
}

// ValidateAccessToken turns an access token into a principal
func (s *AuthService) ValidateAccessToken(token string) (domain.Principal, error) {
	return principalFromToken(token, s.cfg.JWT.Secret)
}

// ValidateRefreshToken turns a refresh token into a principal
func (s *AuthService) ValidateRefreshToken(token string) (domain.Principal, error) {
	return principalFromToken(token, s.cfg.JWT.RefreshSecret)
}

func principalFromToken(token, secret string) (domain.Principal, error) {
	claims, err := jwt.Validate(token, secret)
	if err != nil {
		return domain.Principal{}, err
	}
	role := domain.Role(claims.Role)
	if !role.Valid() || claims.AccountID == 0 {
		return domain.Principal{}, jwt.ErrTokenInvalid
	}
	return domain.Principal{
		AccountID: claims.AccountID,
		Email:     claims.Email,
		Role:      role,
	}, nil
}

// generateTokens generates access and refresh tokens
func (s *AuthService) generateTokens(account *models.Account) (*domain.TokenPair, error) {
	accessToken, err := jwt.Generate(
		account.ID,
		account.Email,
		string(account.Role),
		s.cfg.JWT.Secret,
		s.cfg.JWT.AccessTTL,
	)
	if err != nil {
		return nil, err
	}

	refreshToken, err := jwt.Generate(
		account.ID,
		account.Email,
		string(account.Role),
		s.cfg.JWT.RefreshSecret,
		s.cfg.JWT.RefreshTTL,
	)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}
