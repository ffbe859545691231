// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Engine selection, pool limits, migrations
//	├── errors.go        # NotFound / Conflict / Storage error kinds
//	├── tx.go            # Scoped transactions
//	├── upsert.go        # Savepoint based create-or-update protocol
//	├── settings/        # Per-user book settings
//	├── progress/        # Listening progress, resume and smart rewind
//	├── sessions/        # Playback session recorder
//	├── devices/         # Device activity
//	├── users/           # User accounts and preferences
//	├── libraries/       # Library roots
//	├── books/           # Books and chapters
//	├── audit/           # Audit event log
//	└── dbtest/          # Test helpers
//
// # Using Sub-packages
//
// There is no global handle. Open the store once and hand its *gorm.DB to
// each repository:
//
//	store, err := database.Open(cfg.Database)
//	progressRepo := progress.NewRepository(store.DB, progress.DefaultRewindPolicy(), clock.New())
//	settingsRepo := settings.NewRepository(store.DB)
//
// Every repository operation runs in its own transaction obtained from
// WithTx and returns errors that match ErrNotFound, ErrConflict or
// ErrStorage under errors.Is.
//
// # Engines
//
// A DATABASE_URL starting with postgres:// or postgresql:// selects
// PostgreSQL; anything else is treated as an SQLite file path. SQLite is
// opened with foreign keys on, WAL journaling and immediate transactions,
// which serializes concurrent writers of the same key.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Wrap each operation in WithTx and pass storage errors through Classify
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
