package model

import (
	"database/sql"
	"time"
)

// Event levels
const (
	EventLevelInfo    = "info"
	EventLevelWarning = "warning"
	EventLevelError   = "error"
)

// Event categories
const (
	EventCategoryAuth     = "auth"
	EventCategoryBoard    = "board"
	EventCategoryUser     = "user"
	EventCategoryConfig   = "config"
	EventCategorySystem   = "system"
	EventCategoryTransfer = "transfer"
)

// Event represents a system event log entry.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	UserID    sql.NullString
	Metadata  string // JSON string
	CreatedAt time.Time
}
