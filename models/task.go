package models

import (
	"time"

	"gorm.io/gorm"
)

// Task statuses.
const (
	TaskStatusPending    = "pending"
	TaskStatusInProgress = "in-progress"
	TaskStatusCompleted  = "completed"
)

// Task priorities. Priority is optional; stats report missing values
// under "Unspecified".
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Subtask statuses. These are capitalized on the wire, unlike task statuses.
const (
	SubtaskStatusPending    = "Pending"
	SubtaskStatusInProgress = "In-Progress"
	SubtaskStatusCompleted  = "Completed"
)

// Task is either personal (WorkspaceID nil, mutable only by its owner) or
// workspace-scoped (mutable by workspace admins regardless of OwnerID).
type Task struct {
	gorm.Model
	Title       string     `gorm:"not null" json:"title"`
	Description string     `gorm:"type:text" json:"description"`
	Status      string     `gorm:"default:'pending';index" json:"status"`
	DueDate     *time.Time `json:"due_date"`
	Priority    string     `json:"priority"`
	Category    string     `json:"category"`
	OwnerID     uint       `gorm:"not null;index" json:"owner_id"`
	WorkspaceID *uint      `gorm:"index" json:"workspace_id"`

	// CompletedAt feeds the per-day/per-week stat buckets.
	CompletedAt *time.Time `json:"completed_at,omitempty"`

	// Relations
	Subtasks []Subtask `gorm:"foreignKey:TaskID" json:"subtasks"`
	Owner    User      `json:"-"`
}

// IsPersonal reports whether the task lives outside any workspace.
func (t *Task) IsPersonal() bool {
	return t.WorkspaceID == nil
}

type Subtask struct {
	gorm.Model
	TaskID uint   `gorm:"not null;index" json:"task_id"`
	Title  string `gorm:"not null" json:"title"`
	Status string `gorm:"default:'Pending'" json:"status"`

	Task Task `json:"-"`
}

// ValidSubtaskStatus reports whether s is one of the accepted subtask statuses.
func ValidSubtaskStatus(s string) bool {
	switch s {
	case SubtaskStatusPending, SubtaskStatusInProgress, SubtaskStatusCompleted:
		return true
	}
	return false
}
