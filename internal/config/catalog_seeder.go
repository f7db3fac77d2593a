package config

import (
	"errors"

	"libraryhub/internal/adapters/persistence/models"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type seedBook struct {
	Name      string
	Author    string
	Publisher string
	Year      int
	Quantity  int
}

// SeedCatalogData seeds a small starter catalog. Rows are matched by name
// or slug, so running it twice changes nothing.
func SeedCatalogData(db *gorm.DB, log zerolog.Logger) error {
	books := []seedBook{
		{Name: "The Pragmatic Programmer", Author: "Andrew Hunt", Publisher: "Addison-Wesley", Year: 1999, Quantity: 3},
		{Name: "The Go Programming Language", Author: "Alan Donovan", Publisher: "Addison-Wesley", Year: 2015, Quantity: 2},
		{Name: "Designing Data-Intensive Applications", Author: "Martin Kleppmann", Publisher: "O'Reilly Media", Year: 2017, Quantity: 2},
		{Name: "Dune", Author: "Frank Herbert", Publisher: "Chilton Books", Year: 1965, Quantity: 1},
	}

	authors := map[string]uint{}
	publishers := map[string]uint{}

	for _, b := range books {
		if _, ok := authors[b.Author]; !ok {
			id, err := seedAuthor(db, b.Author)
			if err != nil {
				return err
			}
			authors[b.Author] = id
		}
		if _, ok := publishers[b.Publisher]; !ok {
			id, err := seedPublisher(db, b.Publisher)
			if err != nil {
				return err
			}
			publishers[b.Publisher] = id
		}

		book := models.Book{
			Name:            b.Name,
			Slug:            slug.Make(b.Name),
			Quantity:        b.Quantity,
			AuthorID:        authors[b.Author],
			PublisherID:     publishers[b.Publisher],
			PublicationYear: b.Year,
		}

		var existing models.Book
		err := db.Where("slug = ?", book.Slug).First(&existing).Error
		if err == nil {
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := db.Create(&book).Error; err != nil {
			return err
		}
		log.Debug().Str("slug", book.Slug).Msg("created book")
	}

	log.Info().Int("books", len(books)).Msg("catalog data seeded")
	return nil
}

func seedAuthor(db *gorm.DB, name string) (uint, error) {
	author := models.Author{Name: name}
	err := db.Where("name = ?", name).FirstOrCreate(&author).Error
	return author.ID, err
}

func seedPublisher(db *gorm.DB, name string) (uint, error) {
	publisher := models.Publisher{Name: name}
	err := db.Where("name = ?", name).FirstOrCreate(&publisher).Error
	return publisher.ID, err
}
