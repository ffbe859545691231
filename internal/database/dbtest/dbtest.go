// Package dbtest opens throwaway databases for repository tests.
package dbtest

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

// Open creates a migrated SQLite file under t.TempDir() through the same
// path production uses. The database is closed when the test ends.
func Open(t *testing.T) *gorm.DB {
	t.Helper()

	store, err := database.Open(Config(t))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	return store.DB
}

// Config returns the database settings Open uses.
func Config(t *testing.T) config.Database {
	t.Helper()
	return config.Database{
		URL:         filepath.Join(t.TempDir(), "test.db"),
		Quiet:       true,
		PoolSize:    4,
		MaxOverflow: 4,
		BusyTimeout: 10 * time.Second,
	}
}

// Fixture is a user with one book in one library.
type Fixture struct {
	User    *entities.User
	Library *entities.Library
	Book    *entities.Book
}

// Seed inserts a user, a library and a book.
func Seed(t *testing.T, db *gorm.DB, username string) Fixture {
	t.Helper()

	user := &entities.User{Username: username, PasswordHash: "x", Role: entities.RoleUser}
	require.NoError(t, db.Create(user).Error)

	library := &entities.Library{Name: username + " library", RootPath: "/audiobooks/" + username, ScanIntervalMinutes: 30}
	require.NoError(t, db.Create(library).Error)

	book := &entities.Book{LibraryID: library.ID, FolderPath: "book-1", Title: "The Book"}
	require.NoError(t, db.Create(book).Error)

	return Fixture{User: user, Library: library, Book: book}
}

// AddBook inserts another book into the fixture's library.
func AddBook(t *testing.T, db *gorm.DB, f Fixture, folder string, chapters ...entities.Chapter) *entities.Book {
	t.Helper()

	book := &entities.Book{LibraryID: f.Library.ID, FolderPath: folder, Title: folder, Chapters: chapters}
	require.NoError(t, db.Create(book).Error)
	return book
}
