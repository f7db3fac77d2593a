package config

import (
	"errors"
	"fmt"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/pkg/password"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// Seeder handles database seeding
type Seeder struct {
	db  *gorm.DB
	log zerolog.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log zerolog.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

// Run executes all seeders
func (s *Seeder) Run(seed SeedConfig) error {
	s.log.Info().Msg("running database seeders")

	if _, err := s.EnsureAdmin(seed.AdminEmail, seed.AdminPassword); err != nil {
		return fmt.Errorf("seed admin: %w", err)
	}
	if err := SeedCatalogData(s.db, s.log); err != nil {
		return fmt.Errorf("seed catalog: %w", err)
	}

	s.log.Info().Msg("database seeding completed")
	return nil
}

// EnsureAdmin creates an active admin account, or promotes and reactivates
// an existing account with that email. The password is only set on create.
func (s *Seeder) EnsureAdmin(email, plain string) (bool, error) {
	if email == "" {
		return false, domain.ErrEmailRequired
	}

	var existing models.Account
	err := s.db.Where("email = ?", email).First(&existing).Error
	if err == nil {
		if existing.Role == domain.RoleAdmin && existing.IsActive() {
			return false, nil
		}
		err = s.db.Model(&existing).Updates(map[string]interface{}{
			"role":   domain.RoleAdmin,
			"status": domain.AccountActive,
		}).Error
		if err == nil {
			s.log.Info().Str("email", email).Msg("existing account promoted to admin")
		}
		return false, err
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return false, err
	}

	if !password.ValidatePassword(plain) {
		return false, domain.ErrPasswordTooShort
	}
	hashed, err := password.Hash(plain)
	if err != nil {
		return false, err
	}

	admin := &models.Account{
		Email:        email,
		PasswordHash: &hashed,
		Status:       domain.AccountActive,
		Role:         domain.RoleAdmin,
		FirstName:    "Library",
		LastName:     "Admin",
	}
	if err := s.db.Create(admin).Error; err != nil {
		return false, err
	}

	s.log.Info().Str("email", email).Msg("admin account created")
	return true, nil
}
