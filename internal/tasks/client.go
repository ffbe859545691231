package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"

	"github.com/earshelf/earshelf/internal/config"
	"github.com/earshelf/earshelf/internal/database"
)

// Client runs maintenance work on backlite workers. Tasks live in their own
// SQLite file so the queue keeps working whichever engine holds the library.
type Client struct {
	client   *backlite.Client
	db       *sql.DB
	settings config.Tasks
	queues   []string

	mu      sync.RWMutex
	started bool
}

// NewClient opens (creating if needed) the tasks database and installs the
// backlite schema.
func NewClient(settings config.Tasks) (*Client, error) {
	settings = withDefaults(settings)

	if dir := filepath.Dir(settings.DBPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create tasks database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", database.SQLiteDSN(settings.DBPath, busyTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	// Workers plus the dispatcher and enqueueing callers.
	db.SetMaxOpenConns(settings.Workers + 5)
	db.SetMaxIdleConns(settings.Workers + 2)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      settings.Workers,
		ReleaseAfter:    settings.ReleaseAfter,
		CleanupInterval: settings.CleanupInterval,
		Logger:          taskLogger{},
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create backlite client: %w", err)
	}
	if err := client.Install(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to install backlite schema: %w", err)
	}

	return &Client{client: client, db: db, settings: settings}, nil
}

// Register adds queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
		c.queues = append(c.queues, q.Config().Name)
	}
}

// Start runs the workers until ctx is done or Stop is called. Call it
// from a goroutine.
func (c *Client) Start(ctx context.Context) {
	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return
	}
	c.started = true
	c.mu.Unlock()

	log.Printf("[TASK] Queue started with %d workers (%s)", c.settings.Workers, strings.Join(c.queues, ", "))
	c.client.Start(ctx)
}

// Stop waits for running tasks until ctx expires. It reports whether every
// worker finished in time.
func (c *Client) Stop(ctx context.Context) bool {
	c.mu.RLock()
	started := c.started
	c.mu.RUnlock()
	if !started {
		return true
	}

	ok := c.client.Stop(ctx)
	if ok {
		log.Printf("[TASK] Queue stopped")
	} else {
		log.Printf("[TASK] Queue stop timed out, running tasks will be released after %s", c.settings.ReleaseAfter)
	}
	return ok
}

// Close releases the database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Ping checks the tasks database connection.
func (c *Client) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}

// Add starts an operation to enqueue one or more tasks.
func (c *Client) Add(tasks ...backlite.Task) *backlite.TaskAddOp {
	return c.client.Add(tasks...)
}

// Enqueue adds a single task and returns its id.
func (c *Client) Enqueue(task backlite.Task) (string, error) {
	ids, err := c.client.Add(task).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", task.Config().Name, err)
	}
	if len(ids) == 0 {
		return "", fmt.Errorf("enqueue %s: no id returned", task.Config().Name)
	}
	return ids[0], nil
}

// taskLogger routes backlite's messages to the standard logger.
type taskLogger struct{}

func (taskLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (taskLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
