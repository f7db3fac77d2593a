package repositories

import (
	"context"

	"libraryhub/internal/adapters/persistence/models"

	"gorm.io/gorm"
)

type catalogRepository struct {
	db *gorm.DB
}

// NewCatalogRepository creates a new author/publisher repository
func NewCatalogRepository(db *gorm.DB) CatalogRepository {
	return &catalogRepository{db: db}
}

// CreateAuthor creates a new author
func (r *catalogRepository) CreateAuthor(ctx context.Context, author *models.Author) error {
	return r.db.WithContext(ctx).Create(author).Error
}

// GetAuthor gets an author by ID
func (r *catalogRepository) GetAuthor(ctx context.Context, id uint) (*models.Author, error) {
	var author models.Author
	if err := r.db.WithContext(ctx).First(&author, id).Error; err != nil {
		return nil, err
	}
	return &author, nil
}

// ListAuthors lists all authors
func (r *catalogRepository) ListAuthors(ctx context.Context) ([]*models.Author, error) {
	var authors []*models.Author
	err := r.db.WithContext(ctx).Order("name ASC").Find(&authors).Error
	return authors, err
}

// CreatePublisher creates a new publisher
func (r *catalogRepository) CreatePublisher(ctx context.Context, publisher *models.Publisher) error {
	return r.db.WithContext(ctx).Create(publisher).Error
}

// GetPublisher gets a publisher by ID
func (r *catalogRepository) GetPublisher(ctx context.Context, id uint) (*models.Publisher, error) {
	var publisher models.Publisher
	if err := r.db.WithContext(ctx).First(&publisher, id).Error; err != nil {
		return nil, err
	}
	return &publisher, nil
}

// ListPublishers lists all publishers
func (r *catalogRepository) ListPublishers(ctx context.Context) ([]*models.Publisher, error) {
	var publishers []*models.Publisher
	err := r.db.WithContext(ctx).Order("name ASC").Find(&publishers).Error
	return publishers, err
}
