package entities

import (
	"time"

	"gorm.io/datatypes"
)

type NetworkClass string

const (
	NetworkWifi     NetworkClass = "wifi"
	NetworkCellular NetworkClass = "cellular"
	NetworkOffline  NetworkClass = "offline"
)

// PlaybackSession is an append-only record of one playback span. Once
// EndedAt is set the row is never written again.
type PlaybackSession struct {
	ID                 string         `gorm:"primaryKey;size:36" json:"id"`
	UserID             uint           `gorm:"not null;index" json:"user_id"`
	BookID             uint           `gorm:"not null;index" json:"book_id"`
	StartedAt          time.Time      `gorm:"not null;index" json:"started_at"`
	EndedAt            *time.Time     `gorm:"index" json:"ended_at,omitempty"`
	Device             string         `gorm:"size:255" json:"device,omitempty"`
	Network            NetworkClass   `gorm:"size:20" json:"network,omitempty"`
	Bitrate            *int           `json:"bitrate,omitempty"` // kbps
	LoudnessNormalized bool           `gorm:"not null" json:"loudness_normalized"`
	SilenceSkipped     bool           `gorm:"not null" json:"silence_skipped"`
	MediaMetadata      datatypes.JSON `json:"media_metadata,omitempty"`
	User               *User          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
	Book               *Book          `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (PlaybackSession) TableName() string {
	return "playback_sessions"
}

// IsOpen reports whether the session has not been closed yet.
func (s *PlaybackSession) IsOpen() bool {
	return s.EndedAt == nil
}
