package controller

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasknest/authz"
	"tasknest/models"
	"tasknest/realtime"
	"tasknest/utils"
)

// Subtask mutations inherit the parent task's update permission: workspace
// admins for workspace tasks, the owner for personal tasks.

// AddSubtask appends a subtask and returns the full updated parent task.
func (tc *TaskController) AddSubtask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Title string `json:"title" validate:"required,max=200"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if err := utils.ValidateStruct(input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Validation failed", err)
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

	unlock := tc.lockTask(task.ID)
	defer unlock()

	subtask := models.Subtask{
		TaskID: task.ID,
		Title:  input.Title,
		Status: models.SubtaskStatusPending,
	}
	if err := tc.DB.Create(&subtask).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to create subtask", err)
	}

	return tc.respondWithParent(c, user.ID, task, fiber.StatusCreated)
}

// UpdateSubtask updates a subtask's title or status and returns the full
// updated parent task.
func (tc *TaskController) UpdateSubtask(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var input struct {
		Title  *string `json:"title"`
		Status *string `json:"status"`
	}

	if err := c.BodyParser(&input); err != nil {
		return utils.ErrorResponse(c, fiber.StatusBadRequest, "Invalid request body", err)
	}

	if input.Status != nil && !models.ValidSubtaskStatus(*input.Status) {
		return utils.ErrorResponse(c, fiber.StatusBadRequest,
			"status must be one of: Pending, In-Progress, Completed", nil)
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

	unlock := tc.lockTask(task.ID)
	defer unlock()

	var subtask models.Subtask
	if err := tc.DB.Where("id = ? AND task_id = ?", utils.ParseUint(c.Params("subtaskId")), task.ID).
		First(&subtask).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Subtask not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch subtask", err)
	}

	if input.Title != nil {
		subtask.Title = *input.Title
	}
	if input.Status != nil {
		subtask.Status = *input.Status
	}

	if err := tc.DB.Save(&subtask).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update subtask", err)
	}

	return tc.respondWithParent(c, user.ID, task, fiber.StatusOK)
}

func (tc *TaskController) DeleteSubtask(c *fiber.Ctx) error {
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

	result := tc.DB.Where("id = ? AND task_id = ?", utils.ParseUint(c.Params("subtaskId")), task.ID).
		Delete(&models.Subtask{})
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to delete subtask", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Subtask not found", nil)
	}

	return tc.respondWithParent(c, user.ID, task, fiber.StatusOK)
}

// respondWithParent reloads the parent with its subtasks, broadcasts the
// update, logs activity, and replies with the full task.
func (tc *TaskController) respondWithParent(c *fiber.Ctx, userID uint, task *models.Task, status int) error {
	var parent models.Task
	if err := tc.DB.Preload("Subtasks").First(&parent, task.ID).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to reload task", err)
	}

	tc.Hub.PublishTask(realtime.EventTaskUpdated, &parent, nil)
	tc.Effects.LogActivity(userID, parent.WorkspaceID, utils.Pointer(parent.ID), "subtask_changed", "changed subtasks of "+parent.Title)

	return c.Status(status).JSON(utils.SuccessResponse(parent))
}
