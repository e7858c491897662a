package controller

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasknest/authz"
	"tasknest/models"
	"tasknest/utils"
)

type ActivityController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewActivityController(db *gorm.DB, logger *log.Logger) *ActivityController {
	return &ActivityController{DB: db, Logger: logger}
}

// GetWorkspaceActivity returns the audit feed for a workspace. Any member
// may read it; the log itself is append-only and never served for mutation.
func (ac *ActivityController) GetWorkspaceActivity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	var ws models.Workspace
	if err := ac.DB.Preload("Members").First(&ws, utils.ParseUint(c.Params("workspaceId"))).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return utils.ErrorResponse(c, fiber.StatusNotFound, "Workspace not found", nil)
		}
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch workspace", err)
	}

	if !authz.WorkspaceRead(user.ID, &ws).Allowed() {
		return utils.ErrorResponse(c, fiber.StatusForbidden, "Insufficient permission", nil)
	}

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	var entries []models.ActivityLog
	if err := ac.DB.Where("workspace_id = ?", ws.ID).
		Order("created_at DESC").Limit(limit).
		Find(&entries).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activity", err)
	}

	return c.JSON(utils.SuccessResponse(entries))
}

// GetMyActivity returns the principal's own recent actions.
func (ac *ActivityController) GetMyActivity(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	var entries []models.ActivityLog
	if err := ac.DB.Where("user_id = ?", user.ID).
		Order("created_at DESC").Limit(limit).
		Find(&entries).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch activity", err)
	}

	return c.JSON(utils.SuccessResponse(entries))
}
