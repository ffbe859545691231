package config

import (
	"time"

	"github.com/spf13/viper"
)

type (
	Config struct {
		HTTP
		Global
		Database
		Rewind
		Sessions
		Audit
		Tasks
		Auth
	}

	HTTP struct {
		Port int32
		Host string
	}
	Global struct {
		ShutdownTimeoutInSeconds int
	}
	Database struct {
		URL         string // file path or postgres:// URL
		Echo        bool   // log every SQL statement
		Quiet       bool   // silence the SQL logger entirely
		PoolSize    int    // idle connections kept open
		MaxOverflow int    // connections allowed beyond PoolSize
		BusyTimeout time.Duration
	}
	Rewind struct {
		Window           time.Duration // minimum rewind once the threshold is crossed
		DefaultThreshold time.Duration // used when a book has no settings row
	}
	Sessions struct {
		AbandonAfter  time.Duration // open sessions older than this are closed by maintenance
		SweepSchedule string        // Cron format
	}
	Audit struct {
		RetentionDays   int
		CleanupSchedule string // Cron format
	}
	Tasks struct {
		Enabled         bool
		DBPath          string
		Workers         int
		ReleaseAfter    time.Duration // stuck tasks return to the queue after this
		CleanupInterval time.Duration // how often finished tasks are purged
	}
	Auth struct {
		BcryptCost int
	}
)

func NewConfig() *Config {
	loadEnvFile()

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8188)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)

	v.SetDefault("database_url", DefaultDatabaseURL)
	v.SetDefault("db_echo", false)
	v.SetDefault("db_quiet", false)
	v.SetDefault("db_pool_size", 5)
	v.SetDefault("db_max_overflow", 10)
	v.SetDefault("db_busy_timeout", "5s")

	v.SetDefault("rewind_window", "10s")
	v.SetDefault("rewind_default_threshold", "300s")

	v.SetDefault("session_abandon_after", "12h")
	v.SetDefault("session_sweep_schedule", "*/30 * * * *") // Every 30 minutes

	v.SetDefault("audit_retention_days", 30)
	v.SetDefault("audit_cleanup_schedule", "0 3 * * *") // Daily at 03:00

	v.SetDefault("auth_bcrypt_cost", 12)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("tasks_db_path", DefaultTasksDatabasePath)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			URL:         v.GetString("DATABASE_URL"),
			Echo:        v.GetBool("DB_ECHO"),
			Quiet:       v.GetBool("DB_QUIET"),
			PoolSize:    v.GetInt("DB_POOL_SIZE"),
			MaxOverflow: v.GetInt("DB_MAX_OVERFLOW"),
			BusyTimeout: v.GetDuration("DB_BUSY_TIMEOUT"),
		},
		Rewind: Rewind{
			Window:           v.GetDuration("REWIND_WINDOW"),
			DefaultThreshold: v.GetDuration("REWIND_DEFAULT_THRESHOLD"),
		},
		Sessions: Sessions{
			AbandonAfter:  v.GetDuration("SESSION_ABANDON_AFTER"),
			SweepSchedule: v.GetString("SESSION_SWEEP_SCHEDULE"),
		},
		Audit: Audit{
			RetentionDays:   v.GetInt("AUDIT_RETENTION_DAYS"),
			CleanupSchedule: v.GetString("AUDIT_CLEANUP_SCHEDULE"),
		},
		Tasks: Tasks{
			Enabled:         v.GetBool("TASKS_ENABLED"),
			DBPath:          v.GetString("TASKS_DB_PATH"),
			Workers:         v.GetInt("TASK_WORKERS"),
			ReleaseAfter:    v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval: v.GetDuration("TASK_CLEANUP_INTERVAL"),
		},
		Auth: Auth{
			BcryptCost: v.GetInt("AUTH_BCRYPT_COST"),
		},
	}
}
