package routes

import (
	"log"
	"os"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"

	"tasknest/config"
	controller "tasknest/controllers"
	"tasknest/middleware"
	"tasknest/realtime"
	"tasknest/utils"
)

func SetupAuthRoutes(app *fiber.App, db *gorm.DB) {
	// Initialize logger
	authLogger := log.New(os.Stdout, "AUTH: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Auth routes group with logging middleware
	auth := app.Group("/auth", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Public auth endpoints (no authentication required)
	auth.Post("/register", controller.Register)
	auth.Post("/login", controller.Login)
	auth.Post("/refresh", controller.RefreshToken)

	// Google OAuth routes
	auth.Get("/google", controller.GoogleOAuth)
	auth.Get("/google/callback", controller.GoogleOAuthCallback)

	// Protected auth endpoints (require valid JWT)
	protectedAuth := auth.Group("", middleware.Protected())
	protectedAuth.Get("/me", controller.GetCurrentUser)
	protectedAuth.Put("/me", controller.UpdateProfile)
	protectedAuth.Post("/change-password", controller.ChangePassword)

	authLogger.Println("Authentication routes initialized successfully")
}

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, hub *realtime.Hub, effects *utils.Effects) {
	// Initialize controllers with their respective loggers
	taskController := controller.NewTaskController(db, hub, effects, log.New(os.Stdout, "TASK: ", log.LstdFlags))
	workspaceController := controller.NewWorkspaceController(db, hub, effects, log.New(os.Stdout, "WORKSPACE: ", log.LstdFlags))
	notificationController := controller.NewNotificationController(db, log.New(os.Stdout, "NOTIFY: ", log.LstdFlags))
	activityController := controller.NewActivityController(db, log.New(os.Stdout, "ACTIVITY: ", log.LstdFlags))

	suggester := utils.NewSuggester(utils.NewCache(config.AppConfig.Redis))
	suggestController := controller.NewSuggestController(suggester, log.New(os.Stdout, "SUGGEST: ", log.LstdFlags))

	// API group with versioning and protection
	api := app.Group("/api/v1", middleware.Protected(), logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Task routes. The stats routes are registered before /:id so the
	// literal segment wins.
	task := api.Group("/tasks")
	task.Get("/stats", taskController.GetTaskStats)
	task.Get("/stats/:workspaceId", taskController.GetTaskStats)
	task.Post("/", taskController.CreateTask)
	task.Get("/", taskController.GetTasks)
	task.Put("/:id", taskController.UpdateTask)
	task.Delete("/:id", taskController.DeleteTask)

	// Subtask routes
	task.Post("/:id/subtasks", taskController.AddSubtask)
	task.Put("/:id/subtasks/:subtaskId", taskController.UpdateSubtask)
	task.Delete("/:id/subtasks/:subtaskId", taskController.DeleteSubtask)

	// Suggestion route with per-user rate limiting
	task.Post("/suggest", middleware.SuggestRateLimiter(), suggestController.SuggestTaskMeta)

	// Workspace routes
	workspace := api.Group("/workspaces")
	workspace.Post("/", workspaceController.CreateWorkspace)
	workspace.Get("/", workspaceController.GetWorkspaces)
	workspace.Get("/:id", workspaceController.GetWorkspace)
	workspace.Put("/:id", workspaceController.UpdateWorkspace)
	workspace.Delete("/:id", workspaceController.DeleteWorkspace)
	workspace.Post("/:workspaceId/invite", workspaceController.InviteMember)
	workspace.Delete("/:workspaceId/members/:memberId", workspaceController.RemoveMember)
	workspace.Get("/:workspaceId/activity", activityController.GetWorkspaceActivity)

	// Notification routes
	notification := api.Group("/notifications")
	notification.Get("/", notificationController.GetNotifications)
	notification.Put("/:id/read", notificationController.MarkRead)
	notification.Put("/read-all", notificationController.MarkAllRead)

	// Activity feed for the current user
	api.Get("/activity", activityController.GetMyActivity)

	// WebSocket route for live task and workspace events. Registered outside
	// the /api/v1 prefix so the JWT middleware does not intercept the upgrade;
	// the handler authenticates from the token query parameter itself.
	app.Get("/ws", websocket.New(controller.HandleRealtimeWS(hub)))
}

func SetupRoutes(app *fiber.App, db *gorm.DB, hub *realtime.Hub, effects *utils.Effects) {
	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	SetupAuthRoutes(app, db)
	SetupAPIRoutes(app, db, hub, effects)

	// 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return utils.ErrorResponse(c, fiber.StatusNotFound, "Route not found", nil)
	})
}
