package repositories

import (
	"context"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"

	"gorm.io/gorm"
)

// Transactor runs fn inside a single database transaction.
// Repositories bound with WithTx(tx) inside fn share that transaction.
type Transactor interface {
	WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// AccountRepository defines account repository interface
type AccountRepository interface {
	WithTx(tx *gorm.DB) AccountRepository
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uint) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Update(ctx context.Context, account *models.Account) error
	UpdateFields(ctx context.Context, id uint, fields map[string]interface{}) error
	SetRefreshTokenHash(ctx context.Context, id uint, hash *string) error
	RotateRefreshTokenHash(ctx context.Context, id uint, oldHash, newHash string) error
	List(ctx context.Context, offset, limit int) ([]*models.Account, int64, error)
}

// OTPRepository defines OTP challenge repository interface
type OTPRepository interface {
	Create(ctx context.Context, challenge *models.OTPChallenge) error
	Latest(ctx context.Context, email string) (*models.OTPChallenge, error)
	Consume(ctx context.Context, id uint) (bool, error)
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// BookRepository defines book repository interface
type BookRepository interface {
	WithTx(tx *gorm.DB) BookRepository
	Create(ctx context.Context, book *models.Book) error
	GetByID(ctx context.Context, id uint) (*models.Book, error)
	GetBySlug(ctx context.Context, slug string) (*models.Book, error)
	ExistsBySlug(ctx context.Context, slug string) (bool, error)
	List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error)
	AdjustQuantity(ctx context.Context, id uint, delta int) error
}

// CatalogRepository defines author and publisher repository interface
type CatalogRepository interface {
	CreateAuthor(ctx context.Context, author *models.Author) error
	GetAuthor(ctx context.Context, id uint) (*models.Author, error)
	ListAuthors(ctx context.Context) ([]*models.Author, error)
	CreatePublisher(ctx context.Context, publisher *models.Publisher) error
	GetPublisher(ctx context.Context, id uint) (*models.Publisher, error)
	ListPublishers(ctx context.Context) ([]*models.Publisher, error)
}

// BorrowingRepository defines borrowing ledger repository interface
type BorrowingRepository interface {
	WithTx(tx *gorm.DB) BorrowingRepository
	Create(ctx context.Context, borrowing *models.Borrowing) error
	GetByID(ctx context.Context, id uint) (*models.Borrowing, error)
	List(ctx context.Context) ([]*models.Borrowing, error)
	ListByStatus(ctx context.Context, status domain.BorrowingStatus) ([]*models.Borrowing, error)
	ListByUser(ctx context.Context, userID uint) ([]*models.Borrowing, error)
	ListInHand(ctx context.Context) ([]*models.Borrowing, error)
	ListLive(ctx context.Context, userID, bookID uint) ([]*models.Borrowing, error)
	UpdateStatus(ctx context.Context, id, version uint, from []domain.BorrowingStatus, to domain.BorrowingStatus, fields map[string]interface{}) error
	AddEvent(ctx context.Context, event *models.BorrowingEvent) error
	ListEvents(ctx context.Context, borrowingID uint) ([]*models.BorrowingEvent, error)
}
