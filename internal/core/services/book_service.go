package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"libraryhub/internal/adapters/persistence/models"
	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

// maxSlugAttempts bounds the numeric suffixes tried for a taken slug
const maxSlugAttempts = 50

// BookService handles catalog business logic
type BookService struct {
	bookRepo    repositories.BookRepository
	catalogRepo repositories.CatalogRepository
	log         zerolog.Logger
}

// NewBookService creates a new book service
func NewBookService(
	bookRepo repositories.BookRepository,
	catalogRepo repositories.CatalogRepository,
	log zerolog.Logger,
) *BookService {
	return &BookService{
		bookRepo:    bookRepo,
		catalogRepo: catalogRepo,
		log:         log,
	}
}

// CreateBookInput represents create book input
type CreateBookInput struct {
	Name            string `json:"name"`
	Quantity        int    `json:"quantity"`
	AuthorID        uint   `json:"author_id"`
	PublisherID     uint   `json:"publisher_id"`
	PublicationYear int    `json:"publication_year"`
	Description     string `json:"description"`
	Thumbnail       string `json:"thumbnail"`
}

// Create adds a book to the catalog
func (s *BookService) Create(ctx context.Context, input *CreateBookInput) (*models.BookResponse, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" || input.AuthorID == 0 || input.PublisherID == 0 {
		return nil, domain.BadRequest("name, author_id and publisher_id are required")
	}
	if input.Quantity < 0 {
		return nil, domain.BadRequest("quantity cannot be negative")
	}

	author, err := s.catalogRepo.GetAuthor(ctx, input.AuthorID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrAuthorNotFound
		}
		return nil, err
	}
	publisher, err := s.catalogRepo.GetPublisher(ctx, input.PublisherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrPublisherNotFound
		}
		return nil, err
	}

	bookSlug, err := s.uniqueSlug(ctx, name)
	if err != nil {
		return nil, err
	}

	book := &models.Book{
		Name:            name,
		Slug:            bookSlug,
		Quantity:        input.Quantity,
		AuthorID:        author.ID,
		PublisherID:     publisher.ID,
		PublicationYear: input.PublicationYear,
		Description:     input.Description,
		Thumbnail:       input.Thumbnail,
	}
	if err := s.bookRepo.Create(ctx, book); err != nil {
		return nil, err
	}
	book.Author = author
	book.Publisher = publisher

	s.log.Info().Uint("book_id", book.ID).Str("slug", book.Slug).Int("quantity", book.Quantity).Msg("book created")
	return book.ToResponse(), nil
}

// uniqueSlug derives a slug from name, suffixing -2, -3... while taken
func (s *BookService) uniqueSlug(ctx context.Context, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "book"
	}

	candidate := base
	for i := 2; i <= maxSlugAttempts+1; i++ {
		exists, err := s.bookRepo.ExistsBySlug(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, i)
	}
	return "", domain.Conflict("could not derive a unique slug")
}

// GetByID gets a book by ID
func (s *BookService) GetByID(ctx context.Context, id uint) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book.ToResponse(), nil
}

// GetBySlug gets a book by slug
func (s *BookService) GetBySlug(ctx context.Context, bookSlug string) (*models.BookResponse, error) {
	book, err := s.bookRepo.GetBySlug(ctx, bookSlug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrBookNotFound
		}
		return nil, err
	}
	return book.ToResponse(), nil
}

// List lists books with pagination
func (s *BookService) List(ctx context.Context, offset, limit int) ([]*models.BookResponse, int64, error) {
	books, total, err := s.bookRepo.List(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}

	out := make([]*models.BookResponse, len(books))
	for i, book := range books {
		out[i] = book.ToResponse()
	}
	return out, total, nil
}

// Restock changes the shelf quantity by delta; it never goes below zero
func (s *BookService) Restock(ctx context.Context, id uint, delta int) (*models.BookResponse, error) {
	if delta == 0 {
		return nil, domain.BadRequest("delta must not be zero")
	}
	if err := s.bookRepo.AdjustQuantity(ctx, id, delta); err != nil {
		return nil, err
	}

	s.log.Info().Uint("book_id", id).Int("delta", delta).Msg("book restocked")
	return s.GetByID(ctx, id)
}

// ListAuthors lists all authors
func (s *BookService) ListAuthors(ctx context.Context) ([]*models.Author, error) {
	return s.catalogRepo.ListAuthors(ctx)
}

// ListPublishers lists all publishers
func (s *BookService) ListPublishers(ctx context.Context) ([]*models.Publisher, error) {
	return s.catalogRepo.ListPublishers(ctx)
}

// CreateAuthor adds an author
func (s *BookService) CreateAuthor(ctx context.Context, name string) (*models.Author, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.BadRequest("name is required")
	}
	author := &models.Author{Name: name}
	if err := s.catalogRepo.CreateAuthor(ctx, author); err != nil {
		return nil, err
	}
	return author, nil
}

// CreatePublisher adds a publisher
func (s *BookService) CreatePublisher(ctx context.Context, name string) (*models.Publisher, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, domain.BadRequest("name is required")
	}
	publisher := &models.Publisher{Name: name}
	if err := s.catalogRepo.CreatePublisher(ctx, publisher); err != nil {
		return nil, err
	}
	return publisher, nil
}
