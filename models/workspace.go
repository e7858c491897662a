package models

import "gorm.io/gorm"

// Workspace member roles. The owner is treated as an admin even when
// they have no member row, see the authz package.
const (
	RoleAdmin  = "admin"
	RoleMember = "member"
)

// Workspace is a shared collaboration container. Tasks may reference it,
// in which case mutation rights follow workspace roles, not task ownership.
type Workspace struct {
	gorm.Model
	Name        string `gorm:"not null" json:"name"`
	Description string `json:"description"`
	OwnerID     uint   `gorm:"not null;index" json:"owner_id"`

	// Relations
	Members []WorkspaceMember `gorm:"foreignKey:WorkspaceID" json:"members,omitempty"`
	Owner   User              `json:"-"`
}

// WorkspaceMember links a user to a workspace with a role.
type WorkspaceMember struct {
	gorm.Model
	WorkspaceID uint   `gorm:"not null;index" json:"workspace_id"`
	UserID      uint   `gorm:"not null;index" json:"user_id"`
	Role        string `gorm:"default:'member'" json:"role"` // admin, member

	// Relations
	Workspace Workspace `json:"-"`
	User      User      `json:"-"`
}
