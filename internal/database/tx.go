package database

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// WithTx runs fn inside one transaction. The transaction commits when fn
// returns nil and rolls back when fn errors, panics, or ctx is cancelled.
func WithTx(ctx context.Context, db *gorm.DB, fn func(tx *gorm.DB) error) error {
	return db.WithContext(ctx).Transaction(fn)
}

// FindOne loads the first row matching query. An absent row is (nil, nil).
func FindOne[T any](tx *gorm.DB, query any, args ...any) (*T, error) {
	var row T
	err := tx.Where(query, args...).Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &row, nil
}
