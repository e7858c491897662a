package models

import (
	"time"
)

// ActivityLog is an append-only audit trail. Rows are never updated or
// deleted by the application.
type ActivityLog struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	UserID      uint      `gorm:"not null;index" json:"user_id"`
	WorkspaceID *uint     `gorm:"index" json:"workspace_id,omitempty"`
	TaskID      *uint     `gorm:"index" json:"task_id,omitempty"`
	Action      string    `gorm:"not null" json:"action"`
	Details     string    `gorm:"type:text" json:"details"`
	CreatedAt   time.Time `json:"created_at"`

	User User `json:"-"`
}
