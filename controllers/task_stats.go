package controller

import (
	"fmt"
	"sort"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"tasknest/authz"
	"tasknest/models"
	"tasknest/utils"
)

type ContributorStat struct {
	UserID    uint `json:"user_id"`
	Completed int  `json:"completed"`
}

type TaskStats struct {
	Total                int               `json:"total"`
	Completed            int               `json:"completed"`
	Pending              int               `json:"pending"`
	PerDay               map[string]int    `json:"perDay"`
	PerWeek              map[string]int    `json:"perWeek"`
	TopContributors      []ContributorStat `json:"topContributors"`
	PriorityDistribution map[string]int    `json:"priorityDistribution"`
}

// computeTaskStats aggregates the visible task set. includeContributors is
// true for workspace queries only; personal stats have a single implicit
// contributor. Zero tasks produce zeroes and empty maps, never an error.
func computeTaskStats(tasks []models.Task, includeContributors bool) TaskStats {
	stats := TaskStats{
		PerDay:               map[string]int{},
		PerWeek:              map[string]int{},
		TopContributors:      []ContributorStat{},
		PriorityDistribution: map[string]int{},
	}

	counts := map[uint]int{}
	var order []uint

	for _, t := range tasks {
		stats.Total++
		switch t.Status {
		case models.TaskStatusCompleted:
			stats.Completed++
		case models.TaskStatusPending:
			stats.Pending++
		}

		priority := t.Priority
		if priority == "" {
			priority = "Unspecified"
		}
		stats.PriorityDistribution[priority]++

		if t.Status == models.TaskStatusCompleted && t.CompletedAt != nil {
			day := t.CompletedAt.Format("2006-01-02")
			stats.PerDay[day]++

			year, week := t.CompletedAt.ISOWeek()
			stats.PerWeek[fmt.Sprintf("%d-W%02d", year, week)]++

			if includeContributors {
				if _, seen := counts[t.OwnerID]; !seen {
					order = append(order, t.OwnerID)
				}
				counts[t.OwnerID]++
			}
		}
	}

	if includeContributors {
		for _, id := range order {
			stats.TopContributors = append(stats.TopContributors, ContributorStat{
				UserID:    id,
				Completed: counts[id],
			})
		}
		// Descending by count; ties keep insertion order.
		sort.SliceStable(stats.TopContributors, func(i, j int) bool {
			return stats.TopContributors[i].Completed > stats.TopContributors[j].Completed
		})
		if len(stats.TopContributors) > 5 {
			stats.TopContributors = stats.TopContributors[:5]
		}
	}

	return stats
}

// GetTaskStats aggregates stats over the workspace's tasks (membership
// required) or, without a workspace parameter, the principal's personal tasks.
func (tc *TaskController) GetTaskStats(c *fiber.Ctx) error {
	user := c.Locals("user").(*models.User)

	query := tc.DB.Model(&models.Task{})
	includeContributors := false

	if wsParam := c.Params("workspaceId"); wsParam != "" {
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
		includeContributors = true
	} else {
		query = query.Where("owner_id = ? AND workspace_id IS NULL", user.ID)
	}

	var tasks []models.Task
	if err := query.Order("created_at ASC").Find(&tasks).Error; err != nil {
		return utils.ErrorResponse(c, fiber.StatusInternalServerError, "Failed to fetch tasks", err)
	}

	return c.JSON(utils.SuccessResponse(computeTaskStats(tasks, includeContributors)))
}
