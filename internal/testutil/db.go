// Package testutil holds helpers shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewDB opens a migrated SQLite database in a temp dir, closed on cleanup.
// A single connection serializes writers so concurrent tests see SQLite's
// locking as plain ordering instead of SQLITE_BUSY.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "library.db") + "?_busy_timeout=5000&_foreign_keys=on"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:  logger.Default.LogMode(logger.Silent),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, models.AutoMigrate(db))
	return db
}

// SeedBook inserts an author, a publisher and a book with quantity copies
func SeedBook(t *testing.T, db *gorm.DB, name string, quantity int) *models.Book {
	t.Helper()

	author := &models.Author{Name: "Author of " + name}
	require.NoError(t, db.Create(author).Error)
	publisher := &models.Publisher{Name: "Publisher of " + name}
	require.NoError(t, db.Create(publisher).Error)

	book := &models.Book{
		Name:        name,
		Slug:        filepath.Base(t.Name()) + "-" + name,
		Quantity:    quantity,
		AuthorID:    author.ID,
		PublisherID: publisher.ID,
	}
	require.NoError(t, db.Create(book).Error)
	return book
}

// SeedAccount inserts an active account with a saved address
func SeedAccount(t *testing.T, db *gorm.DB, email string, role domain.Role) *models.Account {
	t.Helper()

	account := &models.Account{
		Email:    email,
		Status:   domain.AccountActive,
		Role:     role,
		Street:   "12 Library Road",
		Ward:     "Ward 1",
		District: "Central",
		Province: "Capital",
	}
	require.NoError(t, db.Create(account).Error)
	return account
}

// BookQuantity reads the current shelf quantity straight from the table
func BookQuantity(t *testing.T, db *gorm.DB, bookID uint) int {
	t.Helper()

	var book models.Book
	require.NoError(t, db.First(&book, bookID).Error)
	return book.Quantity
}
