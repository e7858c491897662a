package models

import "gorm.io/gorm"

// Notification types.
const (
	NotificationTaskUpdated = "task_updated"
	NotificationTaskDue     = "task_due"
	NotificationWorkspace   = "workspace"
)

type Notification struct {
	gorm.Model
	UserID  uint   `gorm:"not null;index" json:"user_id"`
	Message string `gorm:"not null" json:"message"`
	Type    string `gorm:"size:30" json:"type"`
	Link    string `json:"link,omitempty"`
	Read    bool   `gorm:"default:false;index" json:"read"`

	User User `json:"-"`
}
