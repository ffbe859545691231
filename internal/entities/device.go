package entities

import (
	"time"
)

// DeviceActivity tracks the last time a device reported for a user, whether
// or not its report advanced any progress.
type DeviceActivity struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      uint      `gorm:"not null;index;uniqueIndex:uix_user_device" json:"user_id"`
	Device      string    `gorm:"size:255;not null;uniqueIndex:uix_user_device" json:"device"`
	LastBookID  uint      `json:"last_book_id"`
	LastSeenAt  time.Time `gorm:"not null" json:"last_seen_at"`
	Reports     int       `gorm:"not null" json:"reports"`
	StaleWrites int       `gorm:"not null" json:"stale_writes"`
	User        *User     `gorm:"constraint:OnDelete:CASCADE" json:"-"`
}

func (DeviceActivity) TableName() string {
	return "device_activity"
}
