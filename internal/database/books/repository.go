// Package books provides database operations for books and their chapters.
//
// Books are keyed by (library_id, folder_path); chapters by
// (book_id, order_index). Inserting either twice is a database.ErrConflict.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.Create(ctx, &entities.Book{LibraryID: lib.ID, FolderPath: "Dune", Title: "Dune"})
//	chapters, err := repo.ListChapters(ctx, book.ID)
package books

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

var ErrInvalidBook = errors.New("invalid book")

// Repository handles all book and chapter database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts a book together with any chapters it carries.
func (r *Repository) Create(ctx context.Context, book *entities.Book) (*entities.Book, error) {
	if book.LibraryID == 0 || book.FolderPath == "" || book.Title == "" {
		return nil, fmt.Errorf("%w: library, folder and title are required", ErrInvalidBook)
	}
	if book.MatchConfidence != nil {
		book.ReviewNeeded = entities.NeedsReview(*book.MatchConfidence)
	}

	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Omit("Library").Create(book).Error
	})
	if err != nil {
		return nil, database.Classify("books.create", err)
	}
	return book, nil
}

// Get returns a book with its chapters in natural order.
func (r *Repository) Get(ctx context.Context, id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.WithContext(ctx).Preload("Chapters").First(&book, id).Error
	if err != nil {
		return nil, database.Classify("books.get", err)
	}
	entities.SortChapters(book.Chapters)
	return &book, nil
}

// GetByFolder finds a book by its folder inside a library, or nil.
func (r *Repository) GetByFolder(ctx context.Context, libraryID uint, folderPath string) (*entities.Book, error) {
	book, err := database.FindOne[entities.Book](r.db.WithContext(ctx), "library_id = ? AND folder_path = ?", libraryID, folderPath)
	if err != nil {
		return nil, database.Classify("books.get_by_folder", err)
	}
	return book, nil
}

// ListByLibrary returns a library's books ordered by series, position in
// the series and title.
func (r *Repository) ListByLibrary(ctx context.Context, libraryID uint) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).
		Where("library_id = ?", libraryID).
		Order("series ASC, series_index ASC, title ASC").
		Find(&books).Error
	if err != nil {
		return nil, database.Classify("books.list_by_library", err)
	}
	return books, nil
}

// ListNeedingReview returns books whose automated match was not trusted.
func (r *Repository) ListNeedingReview(ctx context.Context) ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.WithContext(ctx).Where("review_needed = ?", true).Order("id ASC").Find(&books).Error
	if err != nil {
		return nil, database.Classify("books.list_needing_review", err)
	}
	return books, nil
}

// RecordMatch stores the confidence of an external metadata match and
// flags the book for review when it is too low.
func (r *Repository) RecordMatch(ctx context.Context, id uint, confidence float64) error {
	result := r.db.WithContext(ctx).Model(&entities.Book{}).Where("id = ?", id).Updates(map[string]any{
		"match_confidence": confidence,
		"review_needed":    entities.NeedsReview(confidence),
	})
	if result.Error != nil {
		return database.Classify("books.record_match", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NotFound("books.record_match", "book %d", id)
	}
	return nil
}

// Delete removes a book. Foreign keys cascade to chapters, settings,
// progress and sessions.
func (r *Repository) Delete(ctx context.Context, id uint) error {
	result := r.db.WithContext(ctx).Delete(&entities.Book{}, id)
	if result.Error != nil {
		return database.Classify("books.delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NotFound("books.delete", "book %d", id)
	}
	return nil
}
