package entities

import "time"

// StreamCursor tracks how far a change feed consumer has read, keyed by
// consumer name so the feed resumes after restarts.
type StreamCursor struct {
	Name      string    `gorm:"type:varchar(64);primaryKey"`
	Position  uint      `gorm:"not null;default:0"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}
