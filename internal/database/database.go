package database

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/entities"
)

const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Models lists every table the store owns, in dependency order.
func Models() []any {
	return []any{
		&entities.User{},
		&entities.Library{},
		&entities.Book{},
		&entities.Chapter{},
		&entities.BookSettings{},
		&entities.PlaybackSession{},
		&entities.Progress{},
		&entities.DeviceActivity{},
		&entities.AuditEvent{},
	}
}

type Database struct {
	DB      *gorm.DB
	dialect string
}

// Open connects to the engine named by cfg.URL, applies pool limits and
// migrates the schema. There is no package level handle; callers pass
// Database.DB to each repository.
func Open(cfg config.Database) (*Database, error) {
	dialect, dialector := dialectorFor(cfg)

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger:  newLogger(cfg),
		NowFunc: func() time.Time { return time.Now().UTC() },
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to access connection pool: %w", err)
	}
	if cfg.PoolSize > 0 {
		sqlDB.SetMaxIdleConns(cfg.PoolSize)
		sqlDB.SetMaxOpenConns(cfg.PoolSize + max(cfg.MaxOverflow, 0))
	}

	if err := db.AutoMigrate(Models()...); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	if !cfg.Quiet {
		log.Printf("Database initialized successfully (%s) at %s", dialect, redact(cfg.URL))
	}

	return &Database{DB: db, dialect: dialect}, nil
}

func (d *Database) Dialect() string {
	return d.dialect
}

func (d *Database) Ping(ctx context.Context) error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return Classify("database.ping", err)
	}
	return Classify("database.ping", sqlDB.PingContext(ctx))
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func dialectorFor(cfg config.Database) (string, gorm.Dialector) {
	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		return DialectPostgres, postgres.Open(cfg.URL)
	}
	return DialectSQLite, sqlite.Open(SQLiteDSN(cfg.URL, cfg.BusyTimeout))
}

// SQLiteDSN turns a file path into a mattn/go-sqlite3 DSN with foreign keys
// enforced, WAL journaling, and BEGIN IMMEDIATE transactions so that two
// writers of the same key are serialized by the engine.
func SQLiteDSN(path string, busyTimeout time.Duration) string {
	path = strings.TrimPrefix(path, "sqlite://")
	if path == "" {
		path = config.DefaultDatabaseURL
	}

	params := url.Values{}
	params.Set("_foreign_keys", "on")
	params.Set("_journal_mode", "WAL")
	params.Set("_txlock", "immediate")
	if busyTimeout > 0 {
		params.Set("_busy_timeout", fmt.Sprint(busyTimeout.Milliseconds()))
	}

	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + params.Encode()
}

func newLogger(cfg config.Database) logger.Interface {
	level := logger.Warn
	switch {
	case cfg.Quiet:
		level = logger.Silent
	case cfg.Echo:
		level = logger.Info
	}
	return logger.New(log.New(os.Stdout, "\r\n", log.LstdFlags), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  level,
		IgnoreRecordNotFoundError: true,
		Colorful:                  false,
	})
}

// redact hides the password of a PostgreSQL URL before it is logged.
func redact(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.User == nil {
		return raw
	}
	if _, ok := u.User.Password(); ok {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}
