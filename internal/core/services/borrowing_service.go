package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/config"
	"libraryhub/internal/core/domain"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// ============================================================
// Borrowing Service - lending lifecycle and inventory
// ============================================================

// BorrowingService drives borrowing records through their lifecycle. Every
// transition that moves copies runs the inventory change, the conditional
// status write and the audit row in one transaction.
type BorrowingService struct {
	borrowingRepo repositories.BorrowingRepository
	bookRepo      repositories.BookRepository
	accountRepo   repositories.AccountRepository
	tx            repositories.Transactor
	cfg           config.BorrowingConfig
	log           zerolog.Logger
	now           func() time.Time
}

// NewBorrowingService creates a new borrowing service
func NewBorrowingService(
	borrowingRepo repositories.BorrowingRepository,
	bookRepo repositories.BookRepository,
	accountRepo repositories.AccountRepository,
	tx repositories.Transactor,
	cfg config.BorrowingConfig,
	log zerolog.Logger,
) *BorrowingService {
	return &BorrowingService{
		borrowingRepo: borrowingRepo,
		bookRepo:      bookRepo,
		accountRepo:   accountRepo,
		tx:            tx,
		cfg:           cfg,
		log:           log,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// CreateBorrowingInput represents a borrow request
type CreateBorrowingInput struct {
	UserID     uint
	BookID     uint
	Quantity   int
	BorrowDate time.Time
	DueDate    time.Time
}

// Create records a pending borrow request. Copies are only taken off the
// shelf when a librarian accepts it.
func (s *BorrowingService) Create(ctx context.Context, input *CreateBorrowingInput) (*models.BorrowingResponse, error) {
	if input.UserID == 0 || input.BookID == 0 || input.Quantity == 0 ||
		input.BorrowDate.IsZero() || input.DueDate.IsZero() {
		return nil, domain.ErrMissingBorrowingData
	}
	if input.Quantity < 1 || input.Quantity > domain.MaxCopiesPerBorrowing {
		return nil, domain.ErrQuantityLimit
	}
	borrowDate := input.BorrowDate.UTC()
	dueDate := input.DueDate.UTC()
	if !dueDate.After(borrowDate) {
		return nil, domain.ErrInvalidDueDate
	}

	account, err := s.accountRepo.GetByID(ctx, input.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	book, err := s.bookRepo.GetByID(ctx, input.BookID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}

	if !account.HasAddress() {
		return nil, domain.ErrAddressRequired
	}

	live, err := s.borrowingRepo.ListLive(ctx, account.ID, book.ID)
	if err != nil {
		return nil, err
	}
	dayEnd := startOfDay(borrowDate).AddDate(0, 0, 1)
	for _, rec := range live {
		if rec.BorrowDate.Before(dayEnd) {
			return nil, domain.ErrDuplicateBorrowing
		}
	}

	if book.Quantity < input.Quantity {
		return nil, domain.ErrInsufficientQuantity
	}

	rec := &models.Borrowing{
		UserID:     account.ID,
		BookID:     book.ID,
		Quantity:   input.Quantity,
		BorrowDate: borrowDate,
		DueDate:    dueDate,
		Status:     domain.StatusPending,
	}
	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		ledger := s.borrowingRepo.WithTx(tx)
		if err := ledger.Create(ctx, rec); err != nil {
			return err
		}
		return ledger.AddEvent(ctx, &models.BorrowingEvent{
			BorrowingID: rec.ID,
			Action:      domain.ActionCreate,
			ToStatus:    domain.StatusPending,
			PerformedBy: &account.ID,
		})
	})
	if err != nil {
		return nil, err
	}

	rec.User = account
	rec.Book = book
	s.log.Info().
		Uint("borrowing_id", rec.ID).
		Uint("user_id", account.ID).
		Uint("book_id", book.ID).
		Int("quantity", rec.Quantity).
		Msg("borrowing requested")
	return rec.ToResponse(), nil
}

// Accept approves a pending request and takes its copies off the shelf
func (s *BorrowingService) Accept(ctx context.Context, employee domain.Principal, id uint) (*models.BorrowingResponse, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, rec, domain.ActionAccept, employee.AccountID, map[string]interface{}{
		"accepted_by": employee.AccountID,
	}, "")
}

// Reject declines a pending request
func (s *BorrowingService) Reject(ctx context.Context, employee domain.Principal, id uint) (*models.BorrowingResponse, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, rec, domain.ActionReject, employee.AccountID, nil, "")
}

// Receive confirms the borrower got the delivered copies
func (s *BorrowingService) Receive(ctx context.Context, user domain.Principal, id uint) (*models.BorrowingResponse, error) {
	rec, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, rec, domain.ActionReceive, user.AccountID, nil, "")
}

// Return puts the copies back on the shelf
func (s *BorrowingService) Return(ctx context.Context, user domain.Principal, id uint) (*models.BorrowingResponse, error) {
	rec, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, rec, domain.ActionReturn, user.AccountID, nil, "")
}

// Renew extends the due date by days
func (s *BorrowingService) Renew(ctx context.Context, user domain.Principal, id uint, days int) (*models.BorrowingResponse, error) {
	if days < 1 || (s.cfg.MaxRenewalDays > 0 && days > s.cfg.MaxRenewalDays) {
		return nil, domain.ErrInvalidRenewalDays
	}

	rec, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	dueDate := rec.DueDate.AddDate(0, 0, days)
	return s.apply(ctx, rec, domain.ActionRenew, user.AccountID, map[string]interface{}{
		"due_date": dueDate,
	}, fmt.Sprintf("renewed %d days, due %s", days, dueDate.Format(time.DateOnly)))
}

// Cancel withdraws a request or gives back copies that are in hand
func (s *BorrowingService) Cancel(ctx context.Context, user domain.Principal, id uint) (*models.BorrowingResponse, error) {
	rec, err := s.loadOwned(ctx, user, id)
	if err != nil {
		return nil, err
	}
	return s.apply(ctx, rec, domain.ActionCancel, user.AccountID, nil, "")
}

// GetByID gets a record visible to the caller
func (s *BorrowingService) GetByID(ctx context.Context, caller domain.Principal, id uint) (*models.BorrowingResponse, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if !caller.IsStaff() && rec.UserID != caller.AccountID {
		return nil, domain.ErrNotBorrowingOwner
	}
	return rec.ToResponse(), nil
}

// History returns the audit trail of a record visible to the caller
func (s *BorrowingService) History(ctx context.Context, caller domain.Principal, id uint) ([]*models.BorrowingEvent, error) {
	if _, err := s.GetByID(ctx, caller, id); err != nil {
		return nil, err
	}
	return s.borrowingRepo.ListEvents(ctx, id)
}

// List lists every record, optionally only those in status
func (s *BorrowingService) List(ctx context.Context, status *domain.BorrowingStatus) ([]*models.BorrowingResponse, error) {
	var (
		items []*models.Borrowing
		err   error
	)
	// stored statuses that reconcile can change are only trustworthy after reconciling
	if status != nil && !affectedByReconcile(*status) {
		items, err = s.borrowingRepo.ListByStatus(ctx, *status)
	} else {
		items, err = s.borrowingRepo.List(ctx)
	}
	if err != nil {
		return nil, err
	}
	return s.reconcileAll(ctx, items, status)
}

// ListByUser lists the records of userID; users may only list their own
func (s *BorrowingService) ListByUser(ctx context.Context, caller domain.Principal, userID uint) ([]*models.BorrowingResponse, error) {
	if !caller.IsStaff() && userID != caller.AccountID {
		return nil, domain.ErrNotBorrowingOwner
	}
	items, err := s.borrowingRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.reconcileAll(ctx, items, nil)
}

// SweepOverdue reconciles every record in hand and returns how many changed
func (s *BorrowingService) SweepOverdue(ctx context.Context) (int, error) {
	items, err := s.borrowingRepo.ListInHand(ctx)
	if err != nil {
		return 0, err
	}

	changed := 0
	for _, rec := range items {
		before := rec.Status
		rec, err = s.reconcile(ctx, rec)
		if err != nil {
			return changed, err
		}
		if rec.Status != before {
			changed++
		}
	}
	if changed > 0 {
		s.log.Info().Int("changed", changed).Msg("overdue sweep finished")
	}
	return changed, nil
}

// load reads a record and brings its due-date status up to date
func (s *BorrowingService) load(ctx context.Context, id uint) (*models.Borrowing, error) {
	rec, err := s.borrowingRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBorrowingNotFound
		}
		return nil, err
	}
	return s.reconcile(ctx, rec)
}

func (s *BorrowingService) loadOwned(ctx context.Context, user domain.Principal, id uint) (*models.Borrowing, error) {
	rec, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.UserID != user.AccountID {
		return nil, domain.ErrNotBorrowingOwner
	}
	return rec, nil
}

// apply performs action on rec: inventory change, conditional status write
// and audit row commit together or not at all.
func (s *BorrowingService) apply(
	ctx context.Context,
	rec *models.Borrowing,
	action domain.Action,
	actorID uint,
	fields map[string]interface{},
	note string,
) (*models.BorrowingResponse, error) {
	t, err := domain.NextTransition(rec.Status, action)
	if err != nil {
		return nil, err
	}
	delta := t.Delta * rec.Quantity

	err = s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		if delta != 0 {
			if err := s.bookRepo.WithTx(tx).AdjustQuantity(ctx, rec.BookID, delta); err != nil {
				return err
			}
		}

		ledger := s.borrowingRepo.WithTx(tx)
		if err := ledger.UpdateStatus(ctx, rec.ID, rec.Version, []domain.BorrowingStatus{t.From}, t.To, fields); err != nil {
			return err
		}
		return ledger.AddEvent(ctx, &models.BorrowingEvent{
			BorrowingID:   rec.ID,
			Action:        action,
			FromStatus:    t.From,
			ToStatus:      t.To,
			QuantityDelta: delta,
			PerformedBy:   &actorID,
			Note:          note,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("borrowing_id", rec.ID).
		Str("action", string(action)).
		Str("from", string(t.From)).
		Str("to", string(t.To)).
		Int("quantity_delta", delta).
		Uint("by", actorID).
		Msg("borrowing transition")

	updated, err := s.borrowingRepo.GetByID(ctx, rec.ID)
	if err != nil {
		return nil, err
	}
	return updated.ToResponse(), nil
}

// reconcile persists the due-date driven status of rec, if it changed
func (s *BorrowingService) reconcile(ctx context.Context, rec *models.Borrowing) (*models.Borrowing, error) {
	next := domain.ReconcileStatus(rec.Status, rec.DueDate, s.now())
	if next == rec.Status {
		return rec, nil
	}

	err := s.tx.WithinTransaction(ctx, func(tx *gorm.DB) error {
		ledger := s.borrowingRepo.WithTx(tx)
		if err := ledger.UpdateStatus(ctx, rec.ID, rec.Version, []domain.BorrowingStatus{rec.Status}, next, nil); err != nil {
			return err
		}
		return ledger.AddEvent(ctx, &models.BorrowingEvent{
			BorrowingID: rec.ID,
			Action:      domain.ActionReconcile,
			FromStatus:  rec.Status,
			ToStatus:    next,
			Note:        "due " + rec.DueDate.Format(time.DateOnly),
		})
	})
	if errors.Is(err, domain.ErrStaleBorrowingStatus) {
		// another request moved it first; report what is stored now
		return s.borrowingRepo.GetByID(ctx, rec.ID)
	}
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Uint("borrowing_id", rec.ID).
		Str("from", string(rec.Status)).
		Str("to", string(next)).
		Msg("borrowing status reconciled")
	rec.Status = next
	rec.Version++
	return rec, nil
}

func (s *BorrowingService) reconcileAll(ctx context.Context, items []*models.Borrowing, status *domain.BorrowingStatus) ([]*models.BorrowingResponse, error) {
	out := make([]*models.BorrowingResponse, 0, len(items))
	for _, rec := range items {
		rec, err := s.reconcile(ctx, rec)
		if err != nil {
			return nil, err
		}
		if status != nil && rec.Status != *status {
			continue
		}
		out = append(out, rec.ToResponse())
	}
	return out, nil
}

// affectedByReconcile reports whether a stored status may lag behind the due date
func affectedByReconcile(status domain.BorrowingStatus) bool {
	return status.InHand() || status == domain.StatusLost
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
