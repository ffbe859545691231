package database

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/entities"
)

// setupTestDB creates a fresh test database
func setupTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(config.Database{
		URL:         filepath.Join(t.TempDir(), "test.db"),
		Quiet:       true,
		PoolSize:    2,
		BusyTimeout: 5 * time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func seedUser(t *testing.T, db *gorm.DB) *entities.User {
	t.Helper()
	user := &entities.User{Username: "reader", PasswordHash: "x", Role: entities.RoleUser}
	require.NoError(t, db.Create(user).Error)
	return user
}

func deviceFuncs(userID uint, device string, seen time.Time) UpsertFuncs[entities.DeviceActivity] {
	return UpsertFuncs[entities.DeviceActivity]{
		Find: func(tx *gorm.DB) (*entities.DeviceActivity, error) {
			return FindOne[entities.DeviceActivity](tx, "user_id = ? AND device = ?", userID, device)
		},
		Create: func(tx *gorm.DB) (*entities.DeviceActivity, error) {
			row := &entities.DeviceActivity{UserID: userID, Device: device, LastSeenAt: seen, Reports: 1}
			return row, tx.Omit("User").Create(row).Error
		},
		Update: func(tx *gorm.DB, existing *entities.DeviceActivity) (*entities.DeviceActivity, error) {
			existing.LastSeenAt = seen
			existing.Reports++
			return existing, tx.Omit("User").Save(existing).Error
		},
	}
}

func insertDevice(tx *gorm.DB, userID uint, device string) error {
	_, err := tx.Statement.ConnPool.ExecContext(context.Background(),
		"INSERT INTO device_activity (user_id, device, last_book_id, last_seen_at, reports, stale_writes) VALUES (?, ?, 0, ?, 1, 0)",
		userID, device, time.Now().UTC())
	return err
}

func TestOpen_MigratesSchema(t *testing.T) {
	db := setupTestDB(t)

	assert.Equal(t, DialectSQLite, db.Dialect())
	for _, model := range Models() {
		assert.True(t, db.DB.Migrator().HasTable(model), "missing table for %T", model)
	}
	require.NoError(t, db.Ping(context.Background()))
}

func TestSQLiteDSN(t *testing.T) {
	dsn := SQLiteDSN("/tmp/library.db", 5*time.Second)

	assert.Contains(t, dsn, "/tmp/library.db?")
	assert.Contains(t, dsn, "_foreign_keys=on")
	assert.Contains(t, dsn, "_journal_mode=WAL")
	assert.Contains(t, dsn, "_txlock=immediate")
	assert.Contains(t, dsn, "_busy_timeout=5000")

	assert.Contains(t, SQLiteDSN("file:x.db?cache=shared", 0), "cache=shared&")
}

func TestClassify(t *testing.T) {
	t.Run("nil stays nil", func(t *testing.T) {
		assert.NoError(t, Classify("op", nil))
	})

	t.Run("record not found", func(t *testing.T) {
		err := Classify("op", gorm.ErrRecordNotFound)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
	})

	t.Run("postgres unique violation", func(t *testing.T) {
		err := Classify("op", fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"}))
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("postgres foreign key violation", func(t *testing.T) {
		err := Classify("op", &pgconn.PgError{Code: "23503"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("cancellation is a storage error", func(t *testing.T) {
		err := Classify("op", context.Canceled)
		assert.ErrorIs(t, err, ErrStorage)
		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("already classified passes through", func(t *testing.T) {
		original := Conflict("inner", errors.New("boom"))
		assert.Same(t, original, Classify("outer", original))
	})

	t.Run("stale write is a conflict", func(t *testing.T) {
		assert.ErrorIs(t, ErrStaleWrite, ErrConflict)
	})
}

func TestClassify_SQLiteConstraints(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db.DB)

	t.Run("duplicate key", func(t *testing.T) {
		dup := &entities.User{Username: user.Username, PasswordHash: "x", Role: entities.RoleUser}
		err := Classify("users.create", db.DB.Create(dup).Error)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("missing parent", func(t *testing.T) {
		row := &entities.Progress{UserID: user.ID, BookID: 999, Device: "phone", LastInteractionAt: time.Now()}
		err := Classify("progress.create", db.DB.Omit("User", "Book").Create(row).Error)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestUpsert_CreateThenUpdate(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db.DB)
	ctx := context.Background()

	var first, second *UpsertResult[entities.DeviceActivity]
	err := WithTx(ctx, db.DB, func(tx *gorm.DB) error {
		var err error
		first, err = Upsert(tx, "devices.touch", deviceFuncs(user.ID, "phone", time.Now()))
		return err
	})
	require.NoError(t, err)
	assert.True(t, first.Created)
	assert.False(t, first.Retried)

	err = WithTx(ctx, db.DB, func(tx *gorm.DB) error {
		var err error
		second, err = Upsert(tx, "devices.touch", deviceFuncs(user.ID, "phone", time.Now()))
		return err
	})
	require.NoError(t, err)
	assert.False(t, second.Created)
	assert.Equal(t, first.Row.ID, second.Row.ID)
	assert.Equal(t, 2, second.Row.Reports)

	var count int64
	db.DB.Model(&entities.DeviceActivity{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsert_LostInsertRaceBecomesUpdate(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db.DB)

	fns := deviceFuncs(user.ID, "phone", time.Now())
	find := fns.Find
	raced := false
	fns.Find = func(tx *gorm.DB) (*entities.DeviceActivity, error) {
		row, err := find(tx)
		if row == nil && !raced {
			// Another writer commits the same key between our read and insert.
			raced = true
			require.NoError(t, insertDevice(tx, user.ID, "phone"))
		}
		return row, err
	}

	var result *UpsertResult[entities.DeviceActivity]
	err := WithTx(context.Background(), db.DB, func(tx *gorm.DB) error {
		var err error
		result, err = Upsert(tx, "devices.touch", fns)
		return err
	})
	require.NoError(t, err)
	assert.True(t, result.Retried)
	assert.False(t, result.Created)
	assert.Equal(t, 2, result.Row.Reports)

	var count int64
	db.DB.Model(&entities.DeviceActivity{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestUpsert_SecondFailureIsConflict(t *testing.T) {
	db := setupTestDB(t)
	user := seedUser(t, db.DB)

	fns := deviceFuncs(user.ID, "phone", time.Now())
	create := fns.Create
	fns.Create = func(tx *gorm.DB) (*entities.DeviceActivity, error) {
		// The competing row lives inside the savepoint, so the rollback
		// removes it and the re-read finds nothing.
		require.NoError(t, insertDevice(tx, user.ID, "phone"))
		return create(tx)
	}

	err := WithTx(context.Background(), db.DB, func(tx *gorm.DB) error {
		_, err := Upsert(tx, "devices.touch", fns)
		return err
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConflict)

	var count int64
	db.DB.Model(&entities.DeviceActivity{}).Count(&count)
	assert.Equal(t, int64(0), count)
}

func TestWithTx_RollsBackOnError(t *testing.T) {
	db := setupTestDB(t)
	boom := errors.New("boom")

	err := WithTx(context.Background(), db.DB, func(tx *gorm.DB) error {
		require.NoError(t, tx.Create(&entities.User{Username: "ghost", PasswordHash: "x", Role: entities.RoleUser}).Error)
		return boom
	})
	assert.ErrorIs(t, err, boom)

	found, err := FindOne[entities.User](db.DB, "username = ?", "ghost")
	require.NoError(t, err)
	assert.Nil(t, found)
}

func TestWithTx_CancelledContext(t *testing.T) {
	db := setupTestDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := WithTx(ctx, db.DB, func(tx *gorm.DB) error {
		return tx.Create(&entities.User{Username: "late", PasswordHash: "x", Role: entities.RoleUser}).Error
	})
	require.Error(t, err)
	assert.ErrorIs(t, Classify("users.create", err), ErrStorage)
}
