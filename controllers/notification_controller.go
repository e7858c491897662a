package controller

import (
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasknest/models"
	"tasknest/utils"
)

type NotificationController struct {
	DB     *gorm.DB
	Logger *log.Logger
}

func NewNotificationController(db *gorm.DB, logger *log.Logger) *NotificationController {
	return &NotificationController{DB: db, Logger: logger}
}

// GetNotifications lists the principal's notifications, newest first.
func (nc *NotificationController) GetNotifications(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	limit, _ := strconv.Atoi(c.Query("limit", "50"))
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}

	query := nc.DB.Where("user_id = ?", user.ID)
	if c.Query("unread") == "true" {
		query = query.Where("read = false")
	}

	var notifications []models.Notification
	if err := query.Order("created_at DESC").Limit(limit).Find(&notifications).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch notifications", err)
	}

	return c.JSON(utils.SuccessResponse(notifications))
}

func (nc *NotificationController) MarkRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	result := nc.DB.Model(&models.Notification{}).
		Where("id = ? AND user_id = ?", utils.ParseUint(c.Params("id")), user.ID).
		Update("read", true)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update notification", result.Error)
	}
	if result.RowsAffected == 0 {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Notification not found", nil)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"message": "Notification marked read"}))
}

func (nc *NotificationController) MarkAllRead(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	result := nc.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = false", user.ID).
		Update("read", true)
	if result.Error != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to update notifications", result.Error)
	}

	return c.JSON(utils.SuccessResponse(fiber.Map{"updated": result.RowsAffected}))
}
