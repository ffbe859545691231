package entities

import (
	"time"
)

// Defaults applied to a BookSettings row created without explicit values.
const (
	DefaultPlaybackSpeed           = 1.0
	DefaultLoudnessTargetLUFS      = -16.0
	DefaultSmartRewindThresholdSec = 300
	DefaultSilenceSkipThresholdDB  = -50.0
)

// BookSettings is one user's playback tuning for one book.
type BookSettings struct {
	ID                      uint      `gorm:"primaryKey" json:"id"`
	BookID                  uint      `gorm:"not null;index;uniqueIndex:uix_book_user_settings" json:"book_id"`
	UserID                  uint      `gorm:"not null;index;uniqueIndex:uix_book_user_settings" json:"user_id"`
	PlaybackSpeed           float64   `gorm:"not null" json:"playback_speed"`
	VolumeBoostDB           float64   `gorm:"not null" json:"volume_boost_db"`
	SkipIntroSec            int       `gorm:"not null" json:"skip_intro_sec"`
	SkipOutroSec            int       `gorm:"not null" json:"skip_outro_sec"`
	LoudnessTargetLUFS      float64   `gorm:"not null" json:"loudness_target_lufs"`
	SmartRewindThresholdSec int       `gorm:"not null" json:"smart_rewind_threshold_sec"` // max idle gap resumed without rewinding
	SilenceSkipThresholdDB  float64   `gorm:"not null" json:"silence_skip_threshold_db"`
	DrivingModeEnabled      bool      `gorm:"not null" json:"driving_mode_enabled"`
	SleepTimerMinutes       *int      `json:"sleep_timer_minutes,omitempty"`
	Book                    *Book     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	User                    *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	CreatedAt               time.Time `json:"created_at"`
	UpdatedAt               time.Time `json:"updated_at"`
}

func (BookSettings) TableName() string {
	return "book_settings"
}

// DefaultBookSettings returns the row a first customization starts from.
func DefaultBookSettings(bookID, userID uint) BookSettings {
	return BookSettings{
		BookID:                  bookID,
		UserID:                  userID,
		PlaybackSpeed:           DefaultPlaybackSpeed,
		LoudnessTargetLUFS:      DefaultLoudnessTargetLUFS,
		SmartRewindThresholdSec: DefaultSmartRewindThresholdSec,
		SilenceSkipThresholdDB:  DefaultSilenceSkipThresholdDB,
	}
}

// SmartRewindThreshold returns the threshold as a duration.
func (s BookSettings) SmartRewindThreshold() time.Duration {
	return time.Duration(s.SmartRewindThresholdSec) * time.Second
}
