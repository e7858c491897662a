package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"

	"tasknest/models"
)

func workspace(ownerID uint, members ...models.WorkspaceMember) *models.Workspace {
	return &models.Workspace{
		Model:   gorm.Model{ID: 1},
		Name:    "engineering",
		OwnerID: ownerID,
		Members: members,
	}
}

func member(userID uint, role string) models.WorkspaceMember {
	return models.WorkspaceMember{UserID: userID, Role: role}
}

func TestWorkspaceRead(t *testing.T) {
	ws := workspace(1, member(2, models.RoleMember), member(3, models.RoleAdmin))

	assert.Equal(t, Allow, WorkspaceRead(1, ws), "owner")
	assert.Equal(t, Allow, WorkspaceRead(2, ws), "plain member")
	assert.Equal(t, Allow, WorkspaceRead(3, ws), "admin member")
	assert.Equal(t, Deny, WorkspaceRead(4, ws), "outsider")
}

func TestWorkspaceManage(t *testing.T) {
	ws := workspace(1, member(2, models.RoleMember), member(3, models.RoleAdmin))

	assert.Equal(t, Allow, WorkspaceManage(1, ws))
	assert.Equal(t, Deny, WorkspaceManage(2, ws), "members cannot manage")
	assert.Equal(t, Allow, WorkspaceManage(3, ws))
	assert.Equal(t, Deny, WorkspaceManage(4, ws))
}

func TestOwnerIsImplicitAdmin(t *testing.T) {
	// Owner absent from the member list keeps admin capability.
	ws := workspace(1, member(2, models.RoleAdmin))

	assert.True(t, IsWorkspaceAdmin(1, ws))
	assert.True(t, IsWorkspaceMember(1, ws))

	// Even a member row that disagrees with the owner's role cannot
	// strip the owner's admin rights.
	ws = workspace(1, member(1, models.RoleMember))
	assert.True(t, IsWorkspaceAdmin(1, ws))
}

func TestMemberRemoveIsOwnerOnly(t *testing.T) {
	ws := workspace(1, member(3, models.RoleAdmin))

	assert.Equal(t, Allow, MemberRemove(1, ws))
	assert.Equal(t, Deny, MemberRemove(3, ws), "admins other than the owner cannot remove members")
}

func TestTaskCreate(t *testing.T) {
	ws := workspace(1, member(2, models.RoleMember))

	assert.Equal(t, Allow, TaskCreate(5, nil), "personal task needs no membership")
	assert.Equal(t, Allow, TaskCreate(2, ws), "any role can create workspace tasks")
	assert.Equal(t, Deny, TaskCreate(5, ws))
}

func TestTaskWriteWorkspaceTask(t *testing.T) {
	ws := workspace(1, member(2, models.RoleMember), member(3, models.RoleAdmin))
	wsID := ws.ID
	task := &models.Task{OwnerID: 2, WorkspaceID: &wsID}

	// Admin rights win over ownership once a task is inside a workspace.
	assert.Equal(t, Allow, TaskWrite(1, task, ws), "workspace owner")
	assert.Equal(t, Allow, TaskWrite(3, task, ws), "workspace admin")
	assert.Equal(t, Deny, TaskWrite(2, task, ws), "task owner with plain member role")
	assert.Equal(t, Deny, TaskWrite(4, task, ws), "outsider")
}

func TestTaskWritePersonalTask(t *testing.T) {
	task := &models.Task{OwnerID: 7}

	assert.Equal(t, Allow, TaskWrite(7, task, nil))
	assert.Equal(t, Deny, TaskWrite(8, task, nil))
}

func TestTaskWriteMismatchedWorkspace(t *testing.T) {
	ws := workspace(1)
	otherID := uint(99)
	task := &models.Task{OwnerID: 1, WorkspaceID: &otherID}

	// A snapshot of the wrong workspace never grants access.
	assert.Equal(t, Deny, TaskWrite(1, task, ws))
	assert.Equal(t, Deny, TaskWrite(1, task, nil))
}

func TestTaskRead(t *testing.T) {
	ws := workspace(1, member(2, models.RoleMember))
	wsID := ws.ID
	shared := &models.Task{OwnerID: 1, WorkspaceID: &wsID}
	personal := &models.Task{OwnerID: 2}

	assert.Equal(t, Allow, TaskRead(2, shared, ws), "plain member reads workspace tasks")
	assert.Equal(t, Deny, TaskRead(4, shared, ws))
	assert.Equal(t, Allow, TaskRead(2, personal, nil))
	assert.Equal(t, Deny, TaskRead(1, personal, nil), "personal tasks are never exposed to others")
}

func TestRoleChangeTakesEffectImmediately(t *testing.T) {
	ws := workspace(1, member(2, models.RoleAdmin))
	wsID := ws.ID
	task := &models.Task{OwnerID: 3, WorkspaceID: &wsID}

	assert.Equal(t, Allow, TaskWrite(2, task, ws))

	// Demote on the snapshot; the next decision must see it.
	ws.Members[0].Role = models.RoleMember
	assert.Equal(t, Deny, TaskWrite(2, task, ws))
}
