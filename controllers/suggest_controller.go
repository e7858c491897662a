package controller

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"tasknest/models"
	"tasknest/utils"
)

type SuggestController struct {
	Suggester *utils.Suggester
	Logger    *log.Logger
}

func NewSuggestController(suggester *utils.Suggester, logger *log.Logger) *SuggestController {
	return &SuggestController{Suggester: suggester, Logger: logger}
}

// SuggestTaskMeta proposes a priority and due date for a task draft. The
// suggestion is advisory and cached per user and title; it cannot fail the
// request, the worst case is the default suggestion.
func (sc *SuggestController) SuggestTaskMeta(c *fiber.Ctx) error {
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

	suggestion := sc.Suggester.Suggest(c.Context(), user.ID, input.Title)

	return c.JSON(utils.SuccessResponse(suggestion))
}
