package progress

import (
	"context"
	"database/sql"

	"gorm.io/gorm"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

// HistoryCursor walks a user's progress rows once, in id order. It holds a
// connection until Close is called or the rows are exhausted.
type HistoryCursor struct {
	db      *gorm.DB
	rows    *sql.Rows
	current entities.Progress
	err     error
	done    bool
}

// History opens a cursor over every progress row of userID.
func (r *Repository) History(ctx context.Context, userID uint) (*HistoryCursor, error) {
	db := r.db.WithContext(ctx)
	rows, err := db.Model(&entities.Progress{}).
		Where("user_id = ?", userID).
		Order("id ASC").
		Rows()
	if err != nil {
		return nil, database.Classify("progress.history", err)
	}
	return &HistoryCursor{db: db, rows: rows}, nil
}

// Next advances to the next row. It returns false at the end or on error.
func (c *HistoryCursor) Next() bool {
	if c.done {
		return false
	}
	if !c.rows.Next() {
		c.err = c.rows.Err()
		c.Close()
		return false
	}
	c.current = entities.Progress{}
	if err := c.db.ScanRows(c.rows, &c.current); err != nil {
		c.err = err
		c.Close()
		return false
	}
	return true
}

// Progress returns the row Next moved to.
func (c *HistoryCursor) Progress() entities.Progress {
	return c.current
}

func (c *HistoryCursor) Err() error {
	return database.Classify("progress.history", c.err)
}

func (c *HistoryCursor) Close() error {
	if c.done {
		return nil
	}
	c.done = true
	return c.rows.Close()
}

// Collect drains the cursor into a slice and closes it.
func (c *HistoryCursor) Collect() ([]entities.Progress, error) {
	defer c.Close()
	var out []entities.Progress
	for c.Next() {
		out = append(out, c.Progress())
	}
	return out, c.Err()
}
