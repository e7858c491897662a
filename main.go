package main

import (
	"context"
	"log"
	"os"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"tasknest/config"
	controller "tasknest/controllers"
	"tasknest/middleware"
	"tasknest/realtime"
	"tasknest/routes"
	"tasknest/utils"
	"tasknest/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "TASKNEST: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Error reporting is optional; skipped entirely without a DSN
	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// OAuth endpoints read the provider config set up here
	controller.InitOAuth()

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Structured logger shared by the hub and side-effect pipeline
	appLogger := logrus.New()
	appLogger.SetFormatter(&logrus.JSONFormatter{})

	hub := realtime.NewHub(appLogger)
	mailer := utils.NewMailer(config.AppConfig.SMTP)
	effects := utils.NewEffects(config.DB, mailer, appLogger)

	// Initialize and start the due-task reminder worker
	reminderWorker := worker.NewReminderWorker(config.DB, effects,
		config.AppConfig.ReminderInterval, log.New(os.Stdout, "REMINDER: ", log.LstdFlags))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go reminderWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, hub, effects)

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
