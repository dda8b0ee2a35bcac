package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"shams/config"
	"shams/database"
	"shams/middleware"
	"shams/repository"
	"shams/routers"
	"shams/services/account"
	"shams/services/assessment"
	"shams/services/assistant"
	"shams/services/course"
	"shams/services/library"
	"shams/services/notification"
	"shams/services/payment"
	"shams/utils/cache"
	"shams/utils/logger"
	"shams/utils/mailer"
)

func main() {
	cfg := config.LoadConfig()

	appLog, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer appLog.Sync()

	db, err := database.Connect(cfg, appLog)
	if err != nil {
		appLog.Fatal("Database connection failed", "error", err)
	}

	startCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	store, err := cache.Connect(startCtx, cfg, appLog)
	cancel()
	if err != nil {
		appLog.Fatal("Redis connection failed", "error", err)
	}

	repos := repository.New(db, appLog)
	notify := notification.NewService(repos, appLog)
	courses := course.NewService(repos, notify, appLog)
	svc := routers.Services{
		Accounts:      account.NewService(repos, notify, store, cfg, appLog),
		Courses:       courses,
		Tests:         assessment.NewService(repos, notify, appLog),
		Books:         library.NewService(repos, appLog),
		Payments:      payment.NewService(repos, courses, notify, payment.NewGateway(cfg, appLog), appLog),
		Notifications: notify,
		Assistant:     assistant.NewService(repos, assistant.NewOpenAIClient(cfg, appLog), store, cfg.AIDailyLimit, appLog),
	}

	worker := notification.NewWorker(repos, mailer.New(cfg, appLog), cfg.OutboxBatchSize, appLog)
	if err := worker.Start(cfg.OutboxSchedule); err != nil {
		appLog.Fatal("Failed to start notification worker", "error", err)
	}

	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return middleware.ErrorResponse(c, appLog, err)
		},
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,PATCH,DELETE",
		AllowHeaders: "Content-Type,Authorization,X-Webhook-Secret",
	}))

	// Enable the built-in logger middleware to log all requests
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "[${time}] ${ip} ${method} ${path} ${status} ${latency}\n",
	}))

	routers.Setup(app, cfg, repos, svc, appLog)

	go func() {
		appLog.Info("Server is running", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			appLog.Error("Server stopped", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLog.Info("Shutting down")
	worker.Stop()
	if err := app.ShutdownWithTimeout(30 * time.Second); err != nil {
		appLog.Error("Server shutdown failed", "error", err)
	}
	if closer, ok := store.(interface{ Close() error }); ok {
		_ = closer.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
