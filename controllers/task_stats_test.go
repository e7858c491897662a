package controller

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tasknest/models"
)

func completedTask(owner uint, completedAt time.Time) models.Task {
	return models.Task{
		OwnerID:     owner,
		Status:      models.TaskStatusCompleted,
		CompletedAt: &completedAt,
	}
}

func TestComputeTaskStatsEmpty(t *testing.T) {
	stats := computeTaskStats(nil, true)

	assert.Equal(t, 0, stats.Total)
	assert.Equal(t, 0, stats.Completed)
	assert.Equal(t, 0, stats.Pending)
	assert.Empty(t, stats.PerDay)
	assert.Empty(t, stats.PerWeek)
	assert.Empty(t, stats.TopContributors)
	assert.Empty(t, stats.PriorityDistribution)
	assert.NotNil(t, stats.PerDay, "maps must be empty, not null, on the wire")
	assert.NotNil(t, stats.TopContributors)
}

func TestComputeTaskStatsCounts(t *testing.T) {
	day := time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC) // ISO week 11
	tasks := []models.Task{
		completedTask(1, day),
		completedTask(1, day.Add(2*time.Hour)),
		completedTask(2, day.AddDate(0, 0, 1)),
		{OwnerID: 1, Status: models.TaskStatusPending, Priority: models.PriorityHigh},
		{OwnerID: 2, Status: models.TaskStatusInProgress},
	}

	stats := computeTaskStats(tasks, true)

	assert.Equal(t, 5, stats.Total)
	assert.Equal(t, 3, stats.Completed)
	assert.Equal(t, 1, stats.Pending)
	assert.Equal(t, 2, stats.PerDay["2025-03-10"])
	assert.Equal(t, 1, stats.PerDay["2025-03-11"])
	assert.Equal(t, 3, stats.PerWeek["2025-W11"])
	assert.Equal(t, 1, stats.PriorityDistribution[models.PriorityHigh])
	assert.Equal(t, 4, stats.PriorityDistribution["Unspecified"])
}

func TestTopContributorsOrderAndTruncation(t *testing.T) {
	day := time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)
	var tasks []models.Task
	// User 7: 3 completions; users 1..6: one each, in id order.
	for i := 0; i < 3; i++ {
		tasks = append(tasks, completedTask(7, day))
	}
	for id := uint(1); id <= 6; id++ {
		tasks = append(tasks, completedTask(id, day))
	}

	stats := computeTaskStats(tasks, true)

	require.Len(t, stats.TopContributors, 5)
	assert.Equal(t, uint(7), stats.TopContributors[0].UserID)
	assert.Equal(t, 3, stats.TopContributors[0].Completed)
	// Ties keep first-seen order.
	assert.Equal(t, uint(1), stats.TopContributors[1].UserID)
	assert.Equal(t, uint(2), stats.TopContributors[2].UserID)
}

func TestContributorsExcludedForPersonalScope(t *testing.T) {
	day := time.Now()
	stats := computeTaskStats([]models.Task{completedTask(1, day)}, false)

	assert.Empty(t, stats.TopContributors)
	assert.Equal(t, 1, stats.Completed)
}

func TestCompletedWithoutTimestampSkipsBuckets(t *testing.T) {
	stats := computeTaskStats([]models.Task{
		{OwnerID: 1, Status: models.TaskStatusCompleted},
	}, true)

	assert.Equal(t, 1, stats.Completed)
	assert.Empty(t, stats.PerDay)
	assert.Empty(t, stats.TopContributors)
}
