package repositories

import (
	"context"

	"gorm.io/gorm"
)

type gormTransactor struct {
	db *gorm.DB
}

// NewTransactor creates a Transactor over db
func NewTransactor(db *gorm.DB) Transactor {
	return &gormTransactor{db: db}
}

// WithinTransaction commits when fn returns nil and rolls back otherwise
func (t *gormTransactor) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return t.db.WithContext(ctx).Transaction(fn)
}
