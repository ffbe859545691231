package database

import (
	"errors"

	"gorm.io/gorm"
)

const upsertSavepoint = "upsert_sp"

var errRowVanished = errors.New("row missing after unique violation")

// UpsertFuncs are the per-entity steps of Upsert. Find returns (nil, nil)
// when no row exists for the key.
type UpsertFuncs[T any] struct {
	Find   func(tx *gorm.DB) (*T, error)
	Create func(tx *gorm.DB) (*T, error)
	Update func(tx *gorm.DB, existing *T) (*T, error)
}

type UpsertResult[T any] struct {
	Row     *T
	Created bool
	Retried bool // a concurrent insert won and the write became an update
}

// Upsert writes exactly one row for a unique key inside tx.
//
// The insert runs under a savepoint. If it loses a race with a concurrent
// insert of the same key, the savepoint is rolled back, the row is read
// again once and updated instead. A second failure is reported as
// ErrConflict; the write is never retried in a loop.
func Upsert[T any](tx *gorm.DB, op string, fns UpsertFuncs[T]) (*UpsertResult[T], error) {
	existing, err := fns.Find(tx)
	if err != nil {
		return nil, Classify(op, err)
	}
	if existing != nil {
		row, err := fns.Update(tx, existing)
		if err != nil {
			return nil, Classify(op, err)
		}
		return &UpsertResult[T]{Row: row}, nil
	}

	if err := tx.SavePoint(upsertSavepoint).Error; err != nil {
		return nil, Classify(op, err)
	}
	row, err := fns.Create(tx)
	if err == nil {
		return &UpsertResult[T]{Row: row, Created: true}, nil
	}
	if !IsUniqueViolation(err) {
		return nil, Classify(op, err)
	}

	if err := tx.RollbackTo(upsertSavepoint).Error; err != nil {
		return nil, Classify(op, err)
	}
	existing, err = fns.Find(tx)
	if err != nil {
		return nil, Classify(op, err)
	}
	if existing == nil {
		return nil, Conflict(op, errRowVanished)
	}
	row, err = fns.Update(tx, existing)
	if err != nil {
		// A unique violation here classifies as ErrConflict.
		return nil, Classify(op, err)
	}
	return &UpsertResult[T]{Row: row, Retried: true}, nil
}
