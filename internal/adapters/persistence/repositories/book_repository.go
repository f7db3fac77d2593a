package repositories

import (
	"context"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/core/domain"

	"gorm.io/gorm"
)

type bookRepository struct {
	db *gorm.DB
}

// NewBookRepository creates a new book repository
func NewBookRepository(db *gorm.DB) BookRepository {
	return &bookRepository{db: db}
}

// WithTx returns a copy bound to tx
func (r *bookRepository) WithTx(tx *gorm.DB) BookRepository {
	return &bookRepository{db: tx}
}

// Create creates a new book
func (r *bookRepository) Create(ctx context.Context, book *models.Book) error {
	return r.db.WithContext(ctx).Create(book).Error
}

// GetByID gets a book by ID with author and publisher
func (r *bookRepository) GetByID(ctx context.Context, id uint) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Publisher").
		First(&book, id).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBySlug gets a book by slug
func (r *bookRepository) GetBySlug(ctx context.Context, slug string) (*models.Book, error) {
	var book models.Book
	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Publisher").
		Where("slug = ?", slug).
		First(&book).Error
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// ExistsBySlug checks if slug is taken
func (r *bookRepository) ExistsBySlug(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Book{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

// List lists books with pagination
func (r *bookRepository) List(ctx context.Context, offset, limit int) ([]*models.Book, int64, error) {
	var books []*models.Book
	var total int64

	if err := r.db.WithContext(ctx).Model(&models.Book{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := r.db.WithContext(ctx).
		Preload("Author").
		Preload("Publisher").
		Order("id ASC").
		Offset(offset).Limit(limit).
		Find(&books).Error
	if err != nil {
		return nil, 0, err
	}

	return books, total, nil
}

// AdjustQuantity adds delta to the shelf quantity in a single conditional statement.
// A negative delta that would take the quantity below zero touches no row and
// returns ErrInsufficientQuantity; an unknown id returns ErrBookNotFound.
func (r *bookRepository) AdjustQuantity(ctx context.Context, id uint, delta int) error {
	if delta == 0 {
		return nil
	}
	q := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id)
	if delta < 0 {
		q = q.Where("quantity >= ?", -delta)
	}
	res := q.UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 1 {
		return nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Book{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return err
	}
	if count == 0 {
		return domain.ErrBookNotFound
	}
	return domain.ErrInsufficientQuantity
}
