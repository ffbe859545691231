package entities

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Preferences is a user's global preference map. Keys the server acts on are
// typed fields; anything else a client stores is kept verbatim in Extra.
type Preferences struct {
	Theme        string  `json:"theme,omitempty"`
	DefaultSpeed float64 `json:"default_speed,omitempty"`
	SkipSilence  *bool   `json:"skip_silence,omitempty"`
	AutoRewind   *bool   `json:"auto_rewind,omitempty"`

	Extra map[string]json.RawMessage `json:"extra,omitempty"`
}

// SmartRewindEnabled defaults to true when the user never set auto_rewind.
func (p Preferences) SmartRewindEnabled() bool {
	return p.AutoRewind == nil || *p.AutoRewind
}

type User struct {
	ID           uint                            `gorm:"primaryKey" json:"id"`
	Username     string                          `gorm:"uniqueIndex;size:100;not null" json:"username"`
	DisplayName  string                          `gorm:"size:100" json:"display_name,omitempty"`
	PasswordHash string                          `gorm:"size:255;not null" json:"-"`
	Role         Role                            `gorm:"size:10;not null" json:"role"`
	APITokenHash *string                         `gorm:"uniqueIndex;size:64" json:"-"` // SHA-256 of the opaque API token
	Preferences  datatypes.JSONType[Preferences] `json:"preferences"`
	CreatedAt    time.Time                       `json:"created_at"`
	UpdatedAt    time.Time                       `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
