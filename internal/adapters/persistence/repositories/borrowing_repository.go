package repositories

import (
	"context"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"

	"gorm.io/gorm"
)

// closedStatuses never block a new request for the same book
var closedStatuses = []domain.BorrowingStatus{
	domain.StatusCancelled,
	domain.StatusRejected,
	domain.StatusReturned,
}

type borrowingRepository struct {
	db *gorm.DB
}

// NewBorrowingRepository creates a new borrowing ledger repository
func NewBorrowingRepository(db *gorm.DB) BorrowingRepository {
	return &borrowingRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *borrowingRepository) WithTx(tx *gorm.DB) BorrowingRepository {
	return &borrowingRepository{db: tx}
}

func (r *borrowingRepository) withRelations(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Book").Preload("User")
}

// Create creates a new borrowing record
func (r *borrowingRepository) Create(ctx context.Context, borrowing *models.Borrowing) error {
	return r.db.WithContext(ctx).Create(borrowing).Error
}

// GetByID gets a borrowing record by ID
func (r *borrowingRepository) GetByID(ctx context.Context, id uint) (*models.Borrowing, error) {
	var borrowing models.Borrowing
	if err := r.withRelations(ctx).First(&borrowing, id).Error; err != nil {
		return nil, err
	}
	return &borrowing, nil
}

// List lists every borrowing record, newest first
func (r *borrowingRepository) List(ctx context.Context) ([]*models.Borrowing, error) {
	var items []*models.Borrowing
	err := r.withRelations(ctx).Order("created_at DESC").Order("id DESC").Find(&items).Error
	return items, err
}

// ListByStatus lists records currently stored with status
func (r *borrowingRepository) ListByStatus(ctx context.Context, status domain.BorrowingStatus) ([]*models.Borrowing, error) {
	var items []*models.Borrowing
	err := r.withRelations(ctx).
		Where("status = ?", status).
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error
	return items, err
}

// ListByUser lists records owned by userID
func (r *borrowingRepository) ListByUser(ctx context.Context, userID uint) ([]*models.Borrowing, error) {
	var items []*models.Borrowing
	err := r.withRelations(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").Order("id DESC").
		Find(&items).Error
	return items, err
}

// ListInHand lists records whose copies are with the borrower
func (r *borrowingRepository) ListInHand(ctx context.Context) ([]*models.Borrowing, error) {
	var items []*models.Borrowing
	err := r.db.WithContext(ctx).
		Where("status IN ?", []domain.BorrowingStatus{domain.StatusReceived, domain.StatusRenewed, domain.StatusOverdue}).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

// ListLive lists records of userID for bookID that are still open
func (r *borrowingRepository) ListLive(ctx context.Context, userID, bookID uint) ([]*models.Borrowing, error) {
	var items []*models.Borrowing
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND book_id = ?", userID, bookID).
		Where("status NOT IN ?", closedStatuses).
		Find(&items).Error
	return items, err
}

// UpdateStatus moves the record to status `to` only if it is still in one of `from`
// and nobody has written it since it was read at version. Extra columns in fields
// are written in the same statement.
func (r *borrowingRepository) UpdateStatus(
	ctx context.Context,
	id, version uint,
	from []domain.BorrowingStatus,
	to domain.BorrowingStatus,
	fields map[string]interface{},
) error {
	if !to.Valid() {
		return domain.ErrInvalidStatus
	}

	updates := map[string]interface{}{
		"status":  to,
		"version": gorm.Expr("version + 1"),
	}
	for k, v := range fields {
		updates[k] = v
	}

	res := r.db.WithContext(ctx).
		Model(&models.Borrowing{}).
		Where("id = ? AND version = ? AND status IN ?", id, version, from).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrStaleBorrowingStatus
	}
	return nil
}

// AddEvent appends an audit row
func (r *borrowingRepository) AddEvent(ctx context.Context, event *models.BorrowingEvent) error {
	return r.db.WithContext(ctx).Create(event).Error
}

// ListEvents returns the audit trail of a record, oldest first
func (r *borrowingRepository) ListEvents(ctx context.Context, borrowingID uint) ([]*models.BorrowingEvent, error) {
	var events []*models.BorrowingEvent
	err := r.db.WithContext(ctx).
		Where("borrowing_id = ?", borrowingID).
		Order("id ASC").
		Find(&events).Error
	return events, err
}
