package entities

import (
	"time"

	"gorm.io/datatypes"
)

type AuditEventType string

const (
	AuditEventProgressSync AuditEventType = "progress_sync"
	AuditEventSettings     AuditEventType = "settings"
	AuditEventSession      AuditEventType = "session"
	AuditEventMaintenance  AuditEventType = "maintenance"
)

type AuditStatus string

const (
	AuditStatusSuccess  AuditStatus = "success"
	AuditStatusRejected AuditStatus = "rejected" // stale progress report
	AuditStatusFailed   AuditStatus = "failed"
)

type AuditEvent struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	UserID      uint           `gorm:"index" json:"user_id"` // 0 for system events
	EventType   AuditEventType `gorm:"index;size:50" json:"event_type"`
	Action      string         `gorm:"size:100" json:"action"` // e.g. "progress_upsert", "session_close"
	Description string         `gorm:"size:500" json:"description"`
	BookID      *uint          `gorm:"index" json:"book_id,omitempty"`
	Device      string         `gorm:"size:255" json:"device,omitempty"`
	Details     datatypes.JSON `json:"details,omitempty"`
	Status      AuditStatus    `gorm:"size:20" json:"status"`
	ErrorMsg    string         `gorm:"size:500" json:"error_msg,omitempty"`
	CreatedAt   time.Time      `gorm:"index" json:"created_at"`
}

func (AuditEvent) TableName() string {
	return "audit_events"
}
