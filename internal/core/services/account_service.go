package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
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

// AvatarStore puts profile pictures somewhere publicly readable
type AvatarStore interface {
	Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) (string, error)
}

// AccountService handles profile and account administration business logic
type AccountService struct {
	accountRepo repositories.AccountRepository
	otp         *OTPService
	avatars     AvatarStore
	cfg         *config.Config
	log         zerolog.Logger
}

// NewAccountService creates a new account service. avatars may be nil when
// object storage is not configured.
func NewAccountService(
	accountRepo repositories.AccountRepository,
	otp *OTPService,
	avatars AvatarStore,
	cfg *config.Config,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		otp:         otp,
		avatars:     avatars,
		cfg:         cfg,
		log:         log,
	}
}

// UpdateAddressInput represents update address input
type UpdateAddressInput struct {
	FirstName string     `json:"first_name"`
	LastName  string     `json:"last_name"`
	Phone     string     `json:"phone_number"`
	DOB       *time.Time `json:"dob"`
	Street    string     `json:"street"`
	Ward      string     `json:"ward"`
	District  string     `json:"district"`
	Province  string     `json:"province"`
}

// ChangePasswordInput represents change password input
type ChangePasswordInput struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// CreateEmployeeInput represents create employee input
type CreateEmployeeInput struct {
	Email     string      `json:"email"`
	Role      domain.Role `json:"role"`
	FirstName string      `json:"first_name"`
	LastName  string      `json:"last_name"`
}

func (s *AccountService) get(ctx context.Context, id uint) (*models.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// Me gets own profile
func (s *AccountService) Me(ctx context.Context, principal domain.Principal) (*models.AccountResponse, error) {
	account, err := s.get(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}
	return account.ToResponse(), nil
}

// UpdateAddress saves the delivery address and personal details used for borrowing
func (s *AccountService) UpdateAddress(ctx context.Context, principal domain.Principal, input *UpdateAddressInput) (*models.AccountResponse, error) {
	account, err := s.get(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}

	account.Street = strings.TrimSpace(input.Street)
	account.Ward = strings.TrimSpace(input.Ward)
	account.District = strings.TrimSpace(input.District)
	account.Province = strings.TrimSpace(input.Province)
	if !account.HasAddress() {
		return nil, domain.BadRequest("street, district and province are required")
	}

	if input.FirstName != "" {
		account.FirstName = strings.TrimSpace(input.FirstName)
	}
	if input.LastName != "" {
		account.LastName = strings.TrimSpace(input.LastName)
	}
	if input.Phone != "" {
		account.PhoneNumber = strings.TrimSpace(input.Phone)
	}
	if input.DOB != nil {
		account.DOB = input.DOB
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, err
	}
	return account.ToResponse(), nil
}

// ChangePassword changes own password and ends other sessions
func (s *AccountService) ChangePassword(ctx context.Context, principal domain.Principal, input *ChangePasswordInput) error {
	account, err := s.get(ctx, principal.AccountID)
	if err != nil {
		return err
	}

	// Verify old password
	if !account.HasPassword() || !password.Verify(input.OldPassword, *account.PasswordHash) {
		return domain.ErrOldPasswordWrong
	}

	// Validate new password
	if !password.ValidatePassword(input.NewPassword) {
		return domain.ErrPasswordTooShort
	}

	hashed, err := password.Hash(input.NewPassword)
	if err != nil {
		return err
	}
	return s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{
		"password_hash":      hashed,
		"refresh_token_hash": nil,
	})
}

// UploadAvatar stores a new profile picture and records its URL
func (s *AccountService) UploadAvatar(ctx context.Context, principal domain.Principal, filename string, r io.Reader, size int64, contentType string) (*models.AccountResponse, error) {
	if s.avatars == nil {
		return nil, domain.Unprocessable("avatar storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, domain.BadRequest("avatar must be an image")
	}

	account, err := s.get(ctx, principal.AccountID)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("accounts/%d/%d%s", account.ID, time.Now().UnixNano(), strings.ToLower(path.Ext(filename)))
	url, err := s.avatars.Put(ctx, key, r, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("store avatar: %w", err)
	}

	if err := s.accountRepo.UpdateFields(ctx, account.ID, map[string]interface{}{"avatar": url}); err != nil {
		return nil, err
	}
	account.Avatar = url
	return account.ToResponse(), nil
}

// ListAccounts lists all accounts with pagination
func (s *AccountService) ListAccounts(ctx context.Context, offset, limit int) ([]*models.AccountResponse, int64, error) {
	accounts, total, err := s.accountRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.AccountResponse, len(accounts))
	for i, account := range accounts {
		out[i] = account.ToResponse()
	}
	return out, total, nil
}

// CreateEmployeeAccount creates a staff account without a password. The
// employee activates it with the mailed code and then creates a password.
func (s *AccountService) CreateEmployeeAccount(ctx context.Context, input *CreateEmployeeInput) (*models.AccountResponse, error) {
	email := NormalizeEmail(input.Email)
	if email == "" {
		return nil, domain.ErrEmailRequired
	}
	role := input.Role
	if role == "" {
		role = domain.RoleEmployee
	}
	if !role.Valid() || role == domain.RoleUser {
		return nil, domain.ErrInvalidRole
	}

	exists, err := s.accountRepo.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrEmailAlreadyExists
	}

	account := &models.Account{
		Email:     email,
		Status:    domain.AccountInactive,
		Role:      role,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, err
	}

	if err := s.otp.Send(ctx, email, s.cfg.OTP.Subject, s.cfg.OTP.ActivationText); err != nil {
		return nil, err
	}

	s.log.Info().Uint("account_id", account.ID).Str("role", string(role)).Msg("employee account created")
	return account.ToResponse(), nil
}

// SetRole changes the role of another account
func (s *AccountService) SetRole(ctx context.Context, admin domain.Principal, id uint, role domain.Role) (*models.AccountResponse, error) {
	if !role.Valid() {
		return nil, domain.ErrInvalidRole
	}
	// Prevent admin from changing own role
	if id == admin.AccountID {
		return nil, domain.ErrCannotChangeOwnRole
	}

	account, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.UpdateFields(ctx, id, map[string]interface{}{"role": role}); err != nil {
		return nil, err
	}

	s.log.Info().Uint("account_id", id).Str("role", string(role)).Uint("by", admin.AccountID).Msg("role changed")
	account.Role = role
	return account.ToResponse(), nil
}

// DeleteAccount deactivates an account and ends its session. Rows are kept
// because borrowing records reference them.
func (s *AccountService) DeleteAccount(ctx context.Context, admin domain.Principal, id uint) error {
	// Prevent admin from deleting self
	if id == admin.AccountID {
		return domain.ErrCannotDeleteSelf
	}
	if _, err := s.get(ctx, id); err != nil {
		return err
	}

	if err := s.accountRepo.UpdateFields(ctx, id, map[string]interface{}{
		"status":             domain.AccountInactive,
		"refresh_token_hash": nil,
		"deactivated_at":     time.Now().UTC(),
	}); err != nil {
		return err
	}

	s.log.Info().Uint("account_id", id).Uint("by", admin.AccountID).Msg("account deleted")
	return nil
}

// RestoreAccount reactivates a deleted account
func (s *AccountService) RestoreAccount(ctx context.Context, id uint) (*models.AccountResponse, error) {
	account, err := s.get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.accountRepo.UpdateFields(ctx, id, map[string]interface{}{
		"status":         domain.AccountActive,
		"deactivated_at": nil,
	}); err != nil {
		return nil, err
	}
	account.Status = domain.AccountActive
	account.DeactivatedAt = nil
	return account.ToResponse(), nil
}
