package entities

import (
	"time"

	"gorm.io/datatypes"
)

// ReviewThreshold is the match confidence below which a book is flagged for
// manual review. The matcher owns the policy; it is only recorded here.
const ReviewThreshold = 0.8

// NeedsReview reports whether a match with the given confidence must be confirmed by hand.
func NeedsReview(confidence float64) bool {
	return confidence < ReviewThreshold
}

type Library struct {
	ID                  uint       `gorm:"primaryKey" json:"id"`
	Name                string     `gorm:"index;size:255;not null" json:"name"`
	RootPath            string     `gorm:"size:1024;not null" json:"root_path"`
	ScanIntervalMinutes int        `gorm:"not null" json:"scan_interval_minutes"`
	LastScannedAt       *time.Time `json:"last_scanned_at,omitempty"`
	CreatedAt           time.Time  `json:"created_at"`
}

func (Library) TableName() string {
	return "libraries"
}

type Book struct {
	ID               uint                        `gorm:"primaryKey" json:"id"`
	LibraryID        uint                        `gorm:"not null;index;uniqueIndex:uix_library_folder" json:"library_id"`
	FolderPath       string                      `gorm:"size:1024;not null;uniqueIndex:uix_library_folder" json:"folder_path"`
	Title            string                      `gorm:"index;size:512;not null" json:"title"`
	Author           string                      `gorm:"index;size:256" json:"author,omitempty"`
	Narrator         string                      `gorm:"size:256" json:"narrator,omitempty"`
	Series           string                      `gorm:"index;size:256" json:"series,omitempty"`
	SeriesIndex      *float64                    `json:"series_index,omitempty"` // fractional entries like 2.5 are allowed
	Genres           datatypes.JSONSlice[string] `json:"genres,omitempty"`
	CoverPath        string                      `gorm:"size:1024" json:"cover_path,omitempty"`
	TotalDurationSec int                         `json:"total_duration_sec,omitempty"`
	Description      string                      `gorm:"type:text" json:"description,omitempty"`
	ReviewNeeded     bool                        `gorm:"not null" json:"review_needed"`
	MatchConfidence  *float64                    `json:"match_confidence,omitempty"`
	Library          *Library                    `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Chapters         []Chapter                   `gorm:"foreignKey:BookID;constraint:OnDelete:CASCADE" json:"chapters,omitempty"`
	CreatedAt        time.Time                   `json:"created_at"`
	UpdatedAt        time.Time                   `json:"updated_at"`
}

func (Book) TableName() string {
	return "books"
}
