// Package authz holds the workspace-scoped permission rules. Every function
// is a pure decision over the models passed in: no store access, no caching,
// so a role change is honored on the very next call.
package authz

import "tasknest/models"

// Verdict is the answer for a single (principal, target, operation) triple.
type Verdict int

const (
	Allow Verdict = iota
	Deny
)

func (v Verdict) Allowed() bool { return v == Allow }

// IsWorkspaceMember reports whether userID is the owner of ws or appears in
// its member list, with any role.
func IsWorkspaceMember(userID uint, ws *models.Workspace) bool {
	if ws.OwnerID == userID {
		return true
	}
	for _, m := range ws.Members {
		if m.UserID == userID {
			return true
		}
	}
	return false
}

// IsWorkspaceAdmin reports whether userID may manage ws. The owner is always
// an admin, even when absent from the member list; the rule lives here rather
// than being normalized into the data so the two representations cannot drift.
func IsWorkspaceAdmin(userID uint, ws *models.Workspace) bool {
	if ws.OwnerID == userID {
		return true
	}
	for _, m := range ws.Members {
		if m.UserID == userID && m.Role == models.RoleAdmin {
			return true
		}
	}
	return false
}

// WorkspaceRead: owner or any listed member.
func WorkspaceRead(userID uint, ws *models.Workspace) Verdict {
	if IsWorkspaceMember(userID, ws) {
		return Allow
	}
	return Deny
}

// WorkspaceManage covers workspace update, delete and member invites:
// owner or admin member only.
func WorkspaceManage(userID uint, ws *models.Workspace) Verdict {
	if IsWorkspaceAdmin(userID, ws) {
		return Allow
	}
	return Deny
}

// MemberRemove is stricter than the generic admin check: only the original
// owner may remove members.
func MemberRemove(userID uint, ws *models.Workspace) Verdict {
	if ws.OwnerID == userID {
		return Allow
	}
	return Deny
}

// TaskCreate: creating inside a workspace needs membership with any role.
// Personal tasks (ws nil) need no check.
func TaskCreate(userID uint, ws *models.Workspace) Verdict {
	if ws == nil {
		return Allow
	}
	if IsWorkspaceMember(userID, ws) {
		return Allow
	}
	return Deny
}

// TaskList: listing a workspace's tasks needs membership; listing without a
// workspace is implicitly scoped to the principal's own tasks by the caller.
func TaskList(userID uint, ws *models.Workspace) Verdict {
	return TaskCreate(userID, ws)
}

// TaskWrite covers task update and delete, and is inherited by subtask
// mutations. Workspace tasks are writable by workspace admins only,
// regardless of the task's owner; personal tasks by their owner only.
// ws must be the task's workspace when task.WorkspaceID is set.
func TaskWrite(userID uint, task *models.Task, ws *models.Workspace) Verdict {
	if task.WorkspaceID != nil {
		if ws == nil || ws.ID != *task.WorkspaceID {
			return Deny
		}
		if IsWorkspaceAdmin(userID, ws) {
			return Allow
		}
		return Deny
	}
	if task.OwnerID == userID {
		return Allow
	}
	return Deny
}

// TaskRead: workspace tasks are readable by any member, personal tasks by
// their owner only.
func TaskRead(userID uint, task *models.Task, ws *models.Workspace) Verdict {
	if task.WorkspaceID != nil {
		if ws == nil || ws.ID != *task.WorkspaceID {
			return Deny
		}
		if IsWorkspaceMember(userID, ws) {
			return Allow
		}
		return Deny
	}
	if task.OwnerID == userID {
		return Allow
	}
	return Deny
}
