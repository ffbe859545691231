package books

import (
	"context"

	"gorm.io/gorm"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

// AddChapter inserts one chapter. A second chapter with the same order
// index in the same book is a database.ErrConflict.
func (r *Repository) AddChapter(ctx context.Context, chapter *entities.Chapter) error {
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		return tx.Create(chapter).Error
	})
	return database.Classify("books.add_chapter", err)
}

// ReplaceChapters swaps a book's chapter list for the one a rescan found.
func (r *Repository) ReplaceChapters(ctx context.Context, bookID uint, chapters []entities.Chapter) error {
	for i := range chapters {
		chapters[i].ID = 0
		chapters[i].BookID = bookID
	}
	err := database.WithTx(ctx, r.db, func(tx *gorm.DB) error {
		book, err := database.FindOne[entities.Book](tx, "id = ?", bookID)
		if err != nil {
			return err
		}
		if book == nil {
			return database.NotFound("books.replace_chapters", "book %d", bookID)
		}
		if err := tx.Where("book_id = ?", bookID).Delete(&entities.Chapter{}).Error; err != nil {
			return err
		}
		if len(chapters) == 0 {
			return nil
		}
		return tx.Create(&chapters).Error
	})
	return database.Classify("books.replace_chapters", err)
}

// ListChapters returns a book's chapters in natural order of their titles,
// ties broken by order index.
func (r *Repository) ListChapters(ctx context.Context, bookID uint) ([]entities.Chapter, error) {
	var chapters []entities.Chapter
	err := r.db.WithContext(ctx).
		Where("book_id = ?", bookID).
		Order("natural_sort_key ASC, order_index ASC").
		Find(&chapters).Error
	if err != nil {
		return nil, database.Classify("books.list_chapters", err)
	}
	// Database collations differ; the key's byte order is authoritative.
	entities.SortChapters(chapters)
	return chapters, nil
}
