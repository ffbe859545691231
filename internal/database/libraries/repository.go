// Package libraries stores library roots and their scan bookkeeping. The
// scanner itself lives outside this module.
package libraries

import (
	"context"
	"errors"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/earshelf/earshelf/internal/database"
	"github.com/earshelf/earshelf/internal/entities"
)

const DefaultScanIntervalMinutes = 30

var ErrInvalidLibrary = errors.New("library needs a name and a root path")

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) Create(ctx context.Context, name, rootPath string, scanIntervalMinutes int) (*entities.Library, error) {
	if strings.TrimSpace(name) == "" || strings.TrimSpace(rootPath) == "" {
		return nil, ErrInvalidLibrary
	}
	if scanIntervalMinutes <= 0 {
		scanIntervalMinutes = DefaultScanIntervalMinutes
	}

	library := &entities.Library{Name: name, RootPath: rootPath, ScanIntervalMinutes: scanIntervalMinutes}
	if err := r.db.WithContext(ctx).Create(library).Error; err != nil {
		return nil, database.Classify("libraries.create", err)
	}
	return library, nil
}

func (r *Repository) Get(ctx context.Context, id uint) (*entities.Library, error) {
	library, err := database.FindOne[entities.Library](r.db.WithContext(ctx), "id = ?", id)
	if err != nil {
		return nil, database.Classify("libraries.get", err)
	}
	if library == nil {
		return nil, database.NotFound("libraries.get", "library %d", id)
	}
	return library, nil
}

func (r *Repository) List(ctx context.Context) ([]entities.Library, error) {
	var libraries []entities.Library
	if err := r.db.WithContext(ctx).Order("name ASC, id ASC").Find(&libraries).Error; err != nil {
		return nil, database.Classify("libraries.list", err)
	}
	return libraries, nil
}

// MarkScanned records the end of a scan run.
func (r *Repository) MarkScanned(ctx context.Context, id uint, at time.Time) error {
	result := r.db.WithContext(ctx).Model(&entities.Library{}).Where("id = ?", id).Update("last_scanned_at", at.UTC())
	if result.Error != nil {
		return database.Classify("libraries.mark_scanned", result.Error)
	}
	if result.RowsAffected == 0 {
		return database.NotFound("libraries.mark_scanned", "library %d", id)
	}
	return nil
}

// DueForScan returns libraries whose scan interval has elapsed at now.
func (r *Repository) DueForScan(ctx context.Context, now time.Time) ([]entities.Library, error) {
	all, err := r.List(ctx)
	if err != nil {
		return nil, err
	}
	var due []entities.Library
	for _, library := range all {
		interval := time.Duration(library.ScanIntervalMinutes) * time.Minute
		if library.LastScannedAt == nil || !now.Before(library.LastScannedAt.Add(interval)) {
			due = append(due, library)
		}
	}
	return due, nil
}
