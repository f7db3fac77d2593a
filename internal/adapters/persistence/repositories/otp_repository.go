package repositories

import (
	"context"
	"time"

	"libraryhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type otpRepository struct {
	db *gorm.DB
}

// NewOTPRepository creates a new OTP challenge repository
func NewOTPRepository(db *gorm.DB) OTPRepository {
	return &otpRepository{db: db}
}

// Create stores a new challenge
func (r *otpRepository) Create(ctx context.Context, challenge *models.OTPChallenge) error {
	return r.db.WithContext(ctx).Create(challenge).Error
}

// Latest returns the most recently created challenge for email
func (r *otpRepository) Latest(ctx context.Context, email string) (*models.OTPChallenge, error) {
	var challenge models.OTPChallenge
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		Order("id DESC").
		First(&challenge).Error
	if err != nil {
		return nil, err
	}
	return &challenge, nil
}

// Consume deletes one challenge and reports whether this call removed it
func (r *otpRepository) Consume(ctx context.Context, id uint) (bool, error) {
	res := r.db.WithContext(ctx).Delete(&models.OTPChallenge{}, id)
	return res.RowsAffected == 1, res.Error
}

// DeleteByEmail removes every outstanding challenge for email
func (r *otpRepository) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).
		Where("email = ?", email).
		Delete(&models.OTPChallenge{}).Error
}

// DeleteExpired deletes all expired challenges (cleanup job)
func (r *otpRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.OTPChallenge{})
	return res.RowsAffected, res.Error
}
