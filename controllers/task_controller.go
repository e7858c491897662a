package controller

import (
	"fmt"
	"log"
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasknest/authz"
	"tasknest/models"
	"tasknest/realtime"
	"tasknest/utils"
)

type TaskController struct {
	DB      *gorm.DB
	Hub     *realtime.Hub
	Effects *utils.Effects
	Logger  *log.Logger

	taskLocks sync.Map // task id -> *sync.Mutex
}

// lockTask serializes the store write and the event publish for one task,
// so subscribers observe that task's events in mutation order. Returns the
// unlock func.
func (tc *TaskController) lockTask(id uint) func() {
	v, _ := tc.taskLocks.LoadOrStore(id, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

func NewTaskController(db *gorm.DB, hub *realtime.Hub, effects *utils.Effects, logger *log.Logger) *TaskController {
	return &TaskController{
		DB:      db,
		Hub:     hub,
		Effects: effects,
		Logger:  logger,
	}
}

// loadWorkspace fetches a workspace with its member list for authorization.
func (tc *TaskController) loadWorkspace(id uint) (*models.Workspace, error) {
	var ws models.Workspace
	if err := tc.DB.Preload("Members").First(&ws, id).Error; err != nil {
		return nil, err
	}
	return &ws, nil
}

// loadTaskAndWorkspace fetches the task plus, for workspace tasks, the
// workspace snapshot the authz decision runs against.
func (tc *TaskController) loadTaskAndWorkspace(taskID string) (*models.Task, *models.Workspace, error) {
	var task models.Task
	if err := tc.DB.Preload("Subtasks").First(&task, "id = ?", utils.ParseUint(taskID)).Error; err != nil {
		return nil, nil, err
	}
	if task.WorkspaceID == nil {
		return &task, nil, nil
	}
	ws, err := tc.loadWorkspace(*task.WorkspaceID)
	if err != nil {
		return nil, nil, fmt.Errorf("workspace %d referenced by task %d: %w", *task.WorkspaceID, task.ID, err)
	}
	return &task, ws, nil
}

// clampPagination normalizes page and limit and returns the row offset.
func clampPagination(page, limit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 1
	}
	if limit > 100 {
		limit = 100
	}
	return page, limit, (page - 1) * limit
}

// dueDateUpperBound is the exclusive cutoff for "due on or before day".
func dueDateUpperBound(day time.Time) time.Time {
	return day.AddDate(0, 0, 1)
}

// CreateTask creates a personal task, or a workspace task when workspace_id
// is supplied and the principal is a member of that workspace.
func (tc *TaskController) CreateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Title       string     `json:"title" validate:"required,max=200"`
		Description string     `json:"description" validate:"omitempty,max=5000"`
		Status      string     `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
		DueDate     *time.Time `json:"due_date"`
		Priority    string     `json:"priority" validate:"omitempty,oneof=Low Medium High"`
		Category    string     `json:"category" validate:"omitempty,max=100"`
		WorkspaceID *uint      `json:"workspace_id"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}

	if input.WorkspaceID != nil {
		ws, err := tc.loadWorkspace(*input.WorkspaceID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", nil)
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspace", err)
		}
		if !authz.TaskCreate(user.ID, ws).Allowed() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
		}
	}

	task := models.Task{
		Title:       input.Title,
		Description: input.Description,
		Status:      input.Status,
		DueDate:     input.DueDate,
		Priority:    input.Priority,
		Category:    input.Category,
		OwnerID:     user.ID,
		WorkspaceID: input.WorkspaceID,
	}
	if task.Status == "" {
		task.Status = models.TaskStatusPending
	}
	if task.Status == models.TaskStatusCompleted {
		now := time.Now()
		task.CompletedAt = &now
	}

	if err := tc.DB.Create(&task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create task", err)
	}

	tc.Hub.PublishTask(realtime.EventTaskCreated, &task, nil)
	tc.Effects.LogActivity(user.ID, task.WorkspaceID, utils.Pointer(task.ID), "task_created", "created task "+task.Title)

	return c.Status(fiber.StatusCreated).JSON(utils.SuccessResponse(task))
}

// GetTasks lists tasks newest-created first with filters and pagination.
// Without a workspace filter the listing is scoped to the principal's own
// tasks; with one, the principal must be a member of that workspace.
func (tc *TaskController) GetTasks(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	page, _ := strconv.Atoi(c.Query("page", "1"))
	limit, _ := strconv.Atoi(c.Query("limit", "20"))
	page, limit, offset := clampPagination(page, limit)

	query := tc.DB.Model(&models.Task{})

	if wsParam := c.Query("workspace_id"); wsParam != "" {
		ws, err := tc.loadWorkspace(utils.ParseUint(wsParam))
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return utils.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", nil)
			}
			return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspace", err)
		}
		if !authz.TaskList(user.ID, ws).Allowed() {
			return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
		}
		query = query.Where("workspace_id = ?", ws.ID)
	} else {
		query = query.Where("owner_id = ? AND workspace_id IS NULL", user.ID)
	}

	if category := c.Query("category"); category != "" {
		query = query.Where("category = ?", category)
	}
	if priority := c.Query("priority"); priority != "" {
		query = query.Where("priority = ?", priority)
	}
	if title := c.Query("title"); title != "" {
		query = query.Where("title ILIKE ?", "%"+title+"%")
	}
	if due := c.Query("due_date"); due != "" {
		dueDate, err := time.Parse("2006-01-02", due)
		if err != nil {
			return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid due_date, expected YYYY-MM-DD", err)
		}
		// Tasks due on or before the given day; the next midnight itself
		// falls outside the filter.
		query = query.Where("due_date < ?", dueDateUpperBound(dueDate))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to count tasks", err)
	}

	var tasks []models.Task
	if err := query.Preload("Subtasks").
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&tasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tasks", err)
	}

	return c.JSON(utils.TaskListResponse{
		TotalTasks:  total,
		TotalPages:  utils.TotalPages(total, limit),
		CurrentPage: page,
		Limit:       limit,
		Tasks:       tasks,
	})
}

// UpdateTask applies a field-level merge: only provided fields change.
func (tc *TaskController) UpdateTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Title       *string    `json:"title"`
		Description *string    `json:"description"`
		Status      *string    `json:"status" validate:"omitempty,oneof=pending in-progress completed"`
		DueDate     *time.Time `json:"due_date"`
		Priority    *string    `json:"priority" validate:"omitempty,oneof=Low Medium High"`
		Category    *string    `json:"category"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
	}
	if input.Title != nil && *input.Title == "" {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "title must not be empty", nil)
	}

	task, ws, err := tc.loadTaskAndWorkspace(c.Params("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Task not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task", err)
	}

	if !authz.TaskWrite(user.ID, task, ws).Allowed() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
	}

	if input.Title != nil {
		task.Title = *input.Title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil && *input.Status != task.Status {
		task.Status = *input.Status
		if task.Status == models.TaskStatusCompleted {
			now := time.Now()
			task.CompletedAt = &now
		} else {
			task.CompletedAt = nil
		}
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Priority != nil {
		task.Priority = *input.Priority
	}
	if input.Category != nil {
		task.Category = *input.Category
	}

	// Last write wins on concurrent updates; per-row atomicity is all the
	// store guarantees and all this endpoint promises. The per-task lock
	// keeps the published event order matching the commit order.
	unlock := tc.lockTask(task.ID)
	defer unlock()
	if err := tc.DB.Save(task).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update task", err)
	}

	tc.Hub.PublishTask(realtime.EventTaskUpdated, task, nil)
	tc.Effects.LogActivity(user.ID, task.WorkspaceID, utils.Pointer(task.ID), "task_updated", "updated task "+task.Title)
	if task.OwnerID != user.ID {
		tc.Effects.Notify(task.OwnerID,
			fmt.Sprintf("Your task %q was updated", task.Title),
			models.NotificationTaskUpdated,
			fmt.Sprintf("/tasks/%d", task.ID))
	}

	return c.JSON(utils.SuccessResponse(task))
}

func (tc *TaskController) DeleteTask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	task, ws, err := tc.loadTaskAndWorkspace(c.Params("id"))
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Task not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch task", err)
	}

	if !authz.TaskWrite(user.ID, task, ws).Allowed() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
	}

	unlock := tc.lockTask(task.ID)
	defer unlock()

	tx := tc.DB.Begin()
	if err := tx.Where("task_id = ?", task.ID).Delete(&models.Subtask{}).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete subtasks", err)
	}
	if err := tx.Delete(task).Error; err != nil {
		tx.Rollback()
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete task", err)
	}
	tx.Commit()

	tc.Hub.PublishTaskDeleted(task, nil)
	tc.Effects.LogActivity(user.ID, task.WorkspaceID, utils.Pointer(task.ID), "task_deleted", "deleted task "+task.Title)

	return c.JSON(utils.SuccessResponse(fiber.Map{
		"message": "Task deleted successfully",
	}))
}
