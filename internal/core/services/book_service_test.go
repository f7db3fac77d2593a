package services

import (
	"context"
	"testing"

	"libraryhub/internal/adapters/persistence/repositories"
	"libraryhub/internal/core/domain"
	"libraryhub/internal/testutil"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newBookService(t *testing.T) (*BookService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	return NewBookService(repositories.NewBookRepository(db), repositories.NewCatalogRepository(db), zerolog.Nop()), db
}

func TestBookService_CreateDerivesUniqueSlugs(t *testing.T) {
	svc, _ := newBookService(t)
	ctx := context.Background()

	author, err := svc.CreateAuthor(ctx, "Frank Herbert")
	require.NoError(t, err)
	publisher, err := svc.CreatePublisher(ctx, "Chilton")
	require.NoError(t, err)

	input := &CreateBookInput{Name: "Dune: Messiah", Quantity: 2, AuthorID: author.ID, PublisherID: publisher.ID}
	first, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "dune-messiah", first.Slug)

	second, err := svc.Create(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, "dune-messiah-2", second.Slug)

	got, err := svc.GetBySlug(ctx, "dune-messiah-2")
	require.NoError(t, err)
	assert.Equal(t, second.ID, got.ID)
}

func TestBookService_CreateValidation(t *testing.T) {
	svc, _ := newBookService(t)
	ctx := context.Background()
	author, err := svc.CreateAuthor(ctx, "Jane Austen")
	require.NoError(t, err)

	tests := []struct {
		name  string
		input CreateBookInput
		want  error
	}{
		{"missing name", CreateBookInput{AuthorID: author.ID, PublisherID: 1}, nil},
		{"negative quantity", CreateBookInput{Name: "Emma", Quantity: -1, AuthorID: author.ID, PublisherID: 1}, nil},
		{"unknown author", CreateBookInput{Name: "Emma", AuthorID: 999, PublisherID: 1}, domain.ErrAuthorNotFound},
		{"unknown publisher", CreateBookInput{Name: "Emma", AuthorID: author.ID, PublisherID: 999}, domain.ErrPublisherNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(ctx, &tt.input)
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			} else {
				assert.Equal(t, 400, domain.StatusOf(err))
			}
		})
	}

	_, err = svc.CreateAuthor(ctx, "   ")
	assert.Equal(t, 400, domain.StatusOf(err))
}

func TestBookService_Restock(t *testing.T) {
	svc, db := newBookService(t)
	ctx := context.Background()
	book := testutil.SeedBook(t, db, "Emma", 1)

	_, err := svc.Restock(ctx, book.ID, 0)
	assert.Equal(t, 400, domain.StatusOf(err))

	got, err := svc.Restock(ctx, book.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, got.Quantity)

	_, err = svc.Restock(ctx, book.ID, -6)
	assert.ErrorIs(t, err, domain.ErrInsufficientQuantity)
	assert.Equal(t, 5, testutil.BookQuantity(t, db, book.ID))

	_, err = svc.Restock(ctx, 999, 1)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

func TestBookService_List(t *testing.T) {
	svc, db := newBookService(t)
	ctx := context.Background()
	for _, name := range []string{"A", "B", "C"} {
		testutil.SeedBook(t, db, name, 1)
	}

	page, total, err := svc.List(ctx, 1, 1)
	require.NoError(t, err)
	assert.EqualValues(t, 3, total)
	require.Len(t, page, 1)

	_, err = svc.GetByID(ctx, 999)
	assert.ErrorIs(t, err, domain.ErrBookNotFound)
}

