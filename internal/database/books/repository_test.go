package books

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/database/dbtest"
	"github.com/earshelf/earshelf/internal/entities"
)

func setupTestDB(t *testing.T) (*Repository, *gorm.DB, dbtest.Fixture) {
	db := dbtest.Open(t)
	return NewRepository(db), db, dbtest.Seed(t, db, "alice")
}

func float(v float64) *float64 { return &v }

func TestRepository_Create_DuplicateFolder(t *testing.T) {
	repo, _, f := setupTestDB(t)

	_, err := repo.Create(context.Background(), &entities.Book{LibraryID: f.Library.ID, FolderPath: f.Book.FolderPath, Title: "Again"})

	assert.ErrorIs(t, err, database.ErrConflict)
}

func TestRepository_Create_UnknownLibrary(t *testing.T) {
	repo, _, _ := setupTestDB(t)

	_, err := repo.Create(context.Background(), &entities.Book{LibraryID: 77, FolderPath: "x", Title: "x"})

	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestRepository_Create_WithChaptersAndGenres(t *testing.T) {
	repo, _, f := setupTestDB(t)
	ctx := context.Background()

	book, err := repo.Create(ctx, &entities.Book{
		LibraryID:       f.Library.ID,
		FolderPath:      "Dune",
		Title:           "Dune",
		Author:          "Frank Herbert",
		Genres:          []string{"sci-fi", "classic"},
		MatchConfidence: float(0.65),
		Chapters: []entities.Chapter{
			{OrderIndex: 1, Title: "Book One", StartMs: 0},
			{OrderIndex: 2, Title: "Book Two", StartMs: 3_600_000},
		},
	})
	require.NoError(t, err)
	assert.True(t, book.ReviewNeeded)

	got, err := repo.Get(ctx, book.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"sci-fi", "classic"}, []string(got.Genres))
	require.Len(t, got.Chapters, 2)
	assert.Equal(t, "Book One", got.Chapters[0].Title)
}

func TestRepository_ListChapters_NaturalOrder(t *testing.T) {
	repo, _, f := setupTestDB(t)
	ctx := context.Background()

	for i, title := range []string{"1", "2", "10", "9"} {
		require.NoError(t, repo.AddChapter(ctx, &entities.Chapter{BookID: f.Book.ID, OrderIndex: i, Title: title}))
	}

	chapters, err := repo.ListChapters(ctx, f.Book.ID)
	require.NoError(t, err)

	var titles []string
	for _, c := range chapters {
		titles = append(titles, c.Title)
	}
	assert.Equal(t, []string{"1", "2", "9", "10"}, titles)
}

func TestRepository_AddChapter_DuplicateOrderIndex(t *testing.T) {
	repo, _, f := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddChapter(ctx, &entities.Chapter{BookID: f.Book.ID, OrderIndex: 1, Title: "Opening"}))

	err := repo.AddChapter(ctx, &entities.Chapter{BookID: f.Book.ID, OrderIndex: 1, Title: "Opening again"})

	assert.ErrorIs(t, err, database.ErrConflict)
	assert.NotErrorIs(t, err, database.ErrStorage)
}

func TestRepository_ReplaceChapters(t *testing.T) {
	repo, _, f := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddChapter(ctx, &entities.Chapter{BookID: f.Book.ID, OrderIndex: 1, Title: "Old"}))

	err := repo.ReplaceChapters(ctx, f.Book.ID, []entities.Chapter{
		{OrderIndex: 1, Title: "Part 1"},
		{OrderIndex: 2, Title: "Part 2"},
	})
	require.NoError(t, err)

	chapters, err := repo.ListChapters(ctx, f.Book.ID)
	require.NoError(t, err)
	require.Len(t, chapters, 2)
	assert.Equal(t, "Part 1", chapters[0].Title)

	assert.ErrorIs(t, repo.ReplaceChapters(ctx, 404, nil), database.ErrNotFound)
}

func TestRepository_ListByLibrary_SeriesOrder(t *testing.T) {
	repo, _, f := setupTestDB(t)
	ctx := context.Background()

	for _, b := range []entities.Book{
		{FolderPath: "s2", Title: "Second", Series: "Saga", SeriesIndex: float(2)},
		{FolderPath: "s1", Title: "First", Series: "Saga", SeriesIndex: float(1)},
		{FolderPath: "s15", Title: "Novella", Series: "Saga", SeriesIndex: float(1.5)},
	} {
		b.LibraryID = f.Library.ID
		_, err := repo.Create(ctx, &b)
		require.NoError(t, err)
	}

	books, err := repo.ListByLibrary(ctx, f.Library.ID)
	require.NoError(t, err)
	require.Len(t, books, 4)

	// The seeded book has no series and sorts first.
	assert.Equal(t, f.Book.ID, books[0].ID)
	assert.Equal(t, "First", books[1].Title)
	assert.Equal(t, "Novella", books[2].Title)
	assert.Equal(t, "Second", books[3].Title)
}

func TestRepository_RecordMatch(t *testing.T) {
	repo, _, f := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.RecordMatch(ctx, f.Book.ID, 0.5))
	review, err := repo.ListNeedingReview(ctx)
	require.NoError(t, err)
	require.Len(t, review, 1)

	require.NoError(t, repo.RecordMatch(ctx, f.Book.ID, 0.95))
	review, err = repo.ListNeedingReview(ctx)
	require.NoError(t, err)
	assert.Empty(t, review)

	assert.ErrorIs(t, repo.RecordMatch(ctx, 999, 0.9), database.ErrNotFound)
}

func TestRepository_Delete_Cascades(t *testing.T) {
	repo, db, f := setupTestDB(t)
	ctx := context.Background()

	require.NoError(t, repo.AddChapter(ctx, &entities.Chapter{BookID: f.Book.ID, OrderIndex: 1}))
	settings := entities.DefaultBookSettings(f.Book.ID, f.User.ID)
	require.NoError(t, db.Create(&settings).Error)

	require.NoError(t, repo.Delete(ctx, f.Book.ID))

	var chapters, settingsRows int64
	db.Model(&entities.Chapter{}).Count(&chapters)
	db.Model(&entities.BookSettings{}).Count(&settingsRows)
	assert.Zero(t, chapters)
	assert.Zero(t, settingsRows)

	assert.ErrorIs(t, repo.Delete(ctx, f.Book.ID), database.ErrNotFound)
}
