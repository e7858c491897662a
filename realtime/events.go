package realtime

import "tasknest/models"

// Event names published by the task and workspace controllers.
const (
	EventTaskCreated      = "task.created"
	EventTaskUpdated      = "task.updated"
	EventTaskDeleted      = "task.deleted"
	EventWorkspaceUpdated = "workspace.updated"
	EventWorkspaceDeleted = "workspace.deleted"
	EventMemberInvited    = "workspace.member_invited"
	EventMemberRemoved    = "workspace.member_removed"
)

// TaskTopic resolves where a task's events go: the workspace room when the
// task is shared, otherwise the owner's personal channel.
func TaskTopic(task *models.Task) string {
	if task.WorkspaceID != nil {
		return WorkspaceTopic(*task.WorkspaceID)
	}
	return UserTopic(task.OwnerID)
}

// PublishTask sends a task event with the full task as payload.
func (h *Hub) PublishTask(name string, task *models.Task, skip *Session) {
	h.Publish(TaskTopic(task), Event{Name: name, Payload: task}, skip)
}

// PublishTaskDeleted sends only the id; the entity is gone.
func (h *Hub) PublishTaskDeleted(task *models.Task, skip *Session) {
	h.Publish(TaskTopic(task), Event{
		Name:    EventTaskDeleted,
		Payload: map[string]uint{"id": task.ID},
	}, skip)
}

// PublishWorkspace sends a workspace event to the workspace room.
func (h *Hub) PublishWorkspace(name string, workspaceID uint, payload interface{}, skip *Session) {
	h.Publish(WorkspaceTopic(workspaceID), Event{Name: name, Payload: payload}, skip)
}
