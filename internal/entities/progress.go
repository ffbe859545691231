package entities

import (
	"time"
)

// Progress is the single source of truth for where a user is in a book.
type Progress struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"not null;index;uniqueIndex:uix_user_book_progress" json:"user_id"`
	BookID             uint      `gorm:"not null;index;uniqueIndex:uix_user_book_progress" json:"book_id"`
	PositionMs         int64     `gorm:"not null" json:"position_ms"`
	LastChapter        string    `gorm:"size:512" json:"last_chapter,omitempty"`
	LastInteractionAt  time.Time `gorm:"not null;index" json:"last_interaction_at"`
	SmartRewindSeconds int       `gorm:"not null" json:"smart_rewind_seconds"` // offset applied on the most recent resume
	Device             string    `gorm:"size:255;not null" json:"device"`      // fingerprint of the last accepted writer
	User               *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Book               *Book     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

func (Progress) TableName() string {
	return "progress"
}
