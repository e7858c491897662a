package worker

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"

	"tasknest/models"
	"tasknest/utils"
)

type ReminderWorker struct {
	DB       *gorm.DB
	Effects  *utils.Effects
	Logger   *log.Logger
	Interval time.Duration
}

func NewReminderWorker(db *gorm.DB, effects *utils.Effects, interval time.Duration, logger *log.Logger) *ReminderWorker {
	return &ReminderWorker{
		DB:       db,
		Effects:  effects,
		Logger:   logger,
		Interval: interval,
	}
}

func (rw *ReminderWorker) Start(ctx context.Context) {
	// Initial delay to let the server start up
	time.Sleep(10 * time.Second)

	rw.Logger.Println("Reminder worker started")

	ticker := time.NewTicker(rw.Interval)
	defer ticker.Stop()

	rw.processDueTasks()

	for {
		select {
		case <-ctx.Done():
			rw.Logger.Println("Reminder worker shutting down...")
			return
		case <-ticker.C:
			rw.processDueTasks()
		}
	}
}

// processDueTasks notifies owners of tasks due within the next 24 hours.
// A task reminds its owner at most once per calendar day.
func (rw *ReminderWorker) processDueTasks() {
	now := time.Now()
	horizon := now.Add(24 * time.Hour)

	var dueTasks []models.Task
	if err := rw.DB.
		Where("due_date IS NOT NULL AND due_date <= ? AND due_date >= ? AND status <> ?",
			horizon, now.Add(-24*time.Hour), models.TaskStatusCompleted).
		Find(&dueTasks).Error; err != nil {
		rw.Logger.Printf("Error fetching due tasks: %v", err)
		return
	}

	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())

	for _, task := range dueTasks {
		link := fmt.Sprintf("/tasks/%d", task.ID)

		var alreadySent int64
		if err := rw.DB.Model(&models.Notification{}).
			Where("user_id = ? AND type = ? AND link = ? AND created_at >= ?",
				task.OwnerID, models.NotificationTaskDue, link, startOfDay).
			Count(&alreadySent).Error; err != nil {
			rw.Logger.Printf("Error checking reminder state for task %d: %v", task.ID, err)
			continue
		}
		if alreadySent > 0 {
			continue
		}

		message := fmt.Sprintf("Task %q is due %s", task.Title, task.DueDate.Format("Jan 2, 15:04"))
		rw.Effects.Notify(task.OwnerID, message, models.NotificationTaskDue, link)
	}
}
