package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestBookRepository_AdjustQuantity(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewBookRepository(db)
	ctx := context.Background()
	book := testutil.SeedBook(t, db, "dune", 2)

	require.NoError(t, repo.AdjustQuantity(ctx, book.ID, -2))
	assert.Equal(t, 0, testutil.BookQuantity(t, db, book.ID))

	err := repo.AdjustQuantity(ctx, book.ID, -1)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.Equal(t, 0, testutil.BookQuantity(t, db, book.ID))

	require.NoError(t, repo.AdjustQuantity(ctx, book.ID, 3))
	assert.Equal(t, 3, testutil.BookQuantity(t, db, book.ID))

	assert.ErrorIs(t, repo.AdjustQuantity(ctx, 9999, 1), domain.ErrBookNotFound)
}

func TestBorrowingRepository_UpdateStatusIsConditional(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewBorrowingRepository(db)
	ctx := context.Background()

	user := testutil.SeedAccount(t, db, "reader@example.com", domain.RoleUser)
	book := testutil.SeedBook(t, db, "emma", 1)
	rec := &models.Borrowing{
		UserID:     user.ID,
		BookID:     book.ID,
		Quantity:   1,
		BorrowDate: time.Now().UTC(),
		DueDate:    time.Now().UTC().AddDate(0, 0, 14),
		Status:     domain.StatusPending,
	}
	require.NoError(t, repo.Create(ctx, rec))

	from := []domain.BorrowingStatus{domain.StatusPending}
	require.NoError(t, repo.UpdateStatus(ctx, rec.ID, rec.Version, from, domain.StatusDelivery, nil))

	// second writer read the same stale status
	err := repo.UpdateStatus(ctx, rec.ID, rec.Version, from, domain.StatusDelivery, nil)
	assert.ErrorIs(t, err, domain.ErrStaleBorrowingStatus)

	// same status, but the row moved on since it was read
	same := []domain.BorrowingStatus{domain.StatusDelivery}
	err = repo.UpdateStatus(ctx, rec.ID, rec.Version, same, domain.StatusDelivery, nil)
	assert.ErrorIs(t, err, domain.ErrStaleBorrowingStatus)

	err = repo.UpdateStatus(ctx, rec.ID, rec.Version+1, same, "DELIVERED", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	got, err := repo.GetByID(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDelivery, got.Status)
	assert.Equal(t, rec.Version+1, got.Version)
	require.NotNil(t, got.Book)
	assert.Equal(t, "emma", got.Book.Name)
}

func TestBorrowingRepository_ListLiveSkipsClosed(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewBorrowingRepository(db)
	ctx := context.Background()

	user := testutil.SeedAccount(t, db, "reader@example.com", domain.RoleUser)
	book := testutil.SeedBook(t, db, "ulysses", 5)
	now := time.Now().UTC()

	for _, st := range []domain.BorrowingStatus{domain.StatusCancelled, domain.StatusReturned, domain.StatusPending} {
		require.NoError(t, repo.Create(ctx, &models.Borrowing{
			UserID: user.ID, BookID: book.ID, Quantity: 1,
			BorrowDate: now, DueDate: now.AddDate(0, 0, 7), Status: st,
		}))
	}

	live, err := repo.ListLive(ctx, user.ID, book.ID)
	require.NoError(t, err)
	require.Len(t, live, 1)
	assert.Equal(t, domain.StatusPending, live[0].Status)
}

func TestTransactor_RollsBackOnError(t *testing.T) {
	db := testutil.NewDB(t)
	books := repositories.NewBookRepository(db)
	tx := repositories.NewTransactor(db)
	ctx := context.Background()
	book := testutil.SeedBook(t, db, "ivanhoe", 1)

	boom := errors.New("boom")
	err := tx.WithinTransaction(ctx, func(gtx *gorm.DB) error {
		require.NoError(t, books.WithTx(gtx).AdjustQuantity(ctx, book.ID, -1))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, testutil.BookQuantity(t, db, book.ID))
}

func TestOTPRepository_LatestAndCleanup(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewOTPRepository(db)
	ctx := context.Background()
	now := time.Now().UTC()

	old := &models.OTPChallenge{Email: "a@example.com", CodeHash: "old", ExpiresAt: now.Add(-time.Minute)}
	require.NoError(t, repo.Create(ctx, old))
	fresh := &models.OTPChallenge{Email: "a@example.com", CodeHash: "fresh", ExpiresAt: now.Add(5 * time.Minute)}
	require.NoError(t, repo.Create(ctx, fresh))

	latest, err := repo.Latest(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, "fresh", latest.CodeHash)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, repo.DeleteByEmail(ctx, "a@example.com"))
	_, err = repo.Latest(ctx, "a@example.com")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestOTPRepository_ConsumeOnlyOnce(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewOTPRepository(db)
	ctx := context.Background()

	challenge := &models.OTPChallenge{Email: "a@example.com", CodeHash: "x", ExpiresAt: time.Now().UTC().Add(time.Minute)}
	require.NoError(t, repo.Create(ctx, challenge))

	ok, err := repo.Consume(ctx, challenge.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.Consume(ctx, challenge.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAccountRepository_RefreshTokenHash(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewAccountRepository(db)
	ctx := context.Background()
	acc := testutil.SeedAccount(t, db, "staff@example.com", domain.RoleLibrarian)

	hash := "abc123"
	require.NoError(t, repo.SetRefreshTokenHash(ctx, acc.ID, &hash))
	got, err := repo.GetByEmail(ctx, "staff@example.com")
	require.NoError(t, err)
	require.NotNil(t, got.RefreshTokenHash)
	assert.Equal(t, hash, *got.RefreshTokenHash)

	require.NoError(t, repo.SetRefreshTokenHash(ctx, acc.ID, nil))
	got, err = repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	assert.Nil(t, got.RefreshTokenHash)
}

func TestAccountRepository_RotateRefreshTokenHash(t *testing.T) {
	db := testutil.NewDB(t)
	repo := repositories.NewAccountRepository(db)
	ctx := context.Background()
	acc := testutil.SeedAccount(t, db, "reader@example.com", domain.RoleUser)

	first := "hash-1"
	require.NoError(t, repo.SetRefreshTokenHash(ctx, acc.ID, &first))
	require.NoError(t, repo.RotateRefreshTokenHash(ctx, acc.ID, "hash-1", "hash-2"))

	// replaying the old hash loses
	assert.ErrorIs(t, repo.RotateRefreshTokenHash(ctx, acc.ID, "hash-1", "hash-3"), domain.ErrRefreshTokenInvalid)

	got, err := repo.GetByID(ctx, acc.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RefreshTokenHash)
	assert.Equal(t, "hash-2", *got.RefreshTokenHash)
}
