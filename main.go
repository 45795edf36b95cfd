package main

import (
	"context"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofiber/fiber/v2"
	"github.com/google/logger"

	"sharebook_backend/internals/configs"
	database "sharebook_backend/internals/databases"
	"sharebook_backend/internals/features/donations/scheduler"
	"sharebook_backend/internals/features/notifications/dispatcher"
	"sharebook_backend/internals/features/notifications/mailer"
	"sharebook_backend/internals/features/notifications/repository"
	"sharebook_backend/internals/features/notifications/sender"
	authRoutes "sharebook_backend/internals/features/users/auth/route"
	helper "sharebook_backend/internals/helpers"
	"sharebook_backend/internals/helpers/dbtime"
	middlewares "sharebook_backend/internals/middlewares"
	routes "sharebook_backend/internals/route"
)

func main() {
	defer logger.Init("sharebook", true, false, io.Discard).Close()

	configs.LoadEnv()
	if err := dbtime.SetLocation(configs.AppTimezone); err != nil {
		log.Printf("⚠️ APP_TIMEZONE %q: %v, using UTC", configs.AppTimezone, err)
	}

	app := fiber.New(fiber.Config{
		JSONEncoder:             sonic.Marshal,
		JSONDecoder:             sonic.Unmarshal,
		DisableStartupMessage:   true,
		ProxyHeader:             fiber.HeaderXForwardedFor,
		EnableTrustedProxyCheck: true,
		TrustedProxies:          []string{"0.0.0.0/0"},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return helper.FromError(c, err)
		},
	})

	middlewares.SetupMiddlewares(app)

	// 🔌 DB connect + pool + schema
	database.ConnectDB()
	database.TunePool()
	if err := database.Migrate(database.DB); err != nil {
		log.Fatalf("❌ migrate: %v", err)
	}
	database.WarmUpQueries()

	seedCtx, cancelSeed := context.WithTimeout(context.Background(), 10*time.Second)
	if err := authRoutes.NewAuthService(database.DB).SeedAdmin(seedCtx, configs.AdminEmail, configs.AdminPassword); err != nil {
		log.Printf("⚠️ %v", err)
	}
	cancelSeed()

	// ✉️ mail queue
	emailLogs := repository.NewEmailLogRecorder(database.DB, configs.MailDryRun)
	mailQueue := dispatcher.New(sender.NewFromConfig(), emailLogs, dispatcher.Config{
		Workers:     configs.MailWorkers,
		QueueSize:   configs.MailQueueSize,
		MaxAttempts: configs.MailMaxAttempts,
		Backoff:     configs.MailRetryBackoff,
	})
	mailQueue.Start()

	mail, err := mailer.New(mailQueue, configs.AppBaseURL)
	if err != nil {
		log.Fatalf("❌ mail templates: %v", err)
	}

	// ⏱ scheduler after DB and mail are ready
	reminders, err := scheduler.Start(configs.ChooseDateReminderCron,
		scheduler.NewChooseDateJob(scheduler.NewGormFinder(database.DB), mail))
	if err != nil {
		log.Fatalf("❌ scheduler: %v", err)
	}

	routes.SetupRoutes(app, database.DB, routes.Deps{
		Notifier:  mail,
		EmailLogs: emailLogs,
		MailQueue: mailQueue,
	})

	app.Server().ReadTimeout = 15 * time.Second
	app.Server().WriteTimeout = 30 * time.Second
	app.Server().IdleTimeout = 90 * time.Second

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	go func() {
		log.Printf("✅ Listening on :%s", port)
		if err := app.Listen("0.0.0.0:" + port); err != nil {
			log.Fatalf("server error: %v", err)
		}
	}()

	// graceful shutdown: HTTP, then cron, then drain mail, then DB
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()
	_ = app.ShutdownWithContext(ctx)

	<-reminders.Stop().Done()

	if err := mailQueue.Shutdown(ctx); err != nil {
		log.Printf("⚠️ mail queue: %v", err)
	}

	if sqlDB, err := database.DB.DB(); err == nil {
		_ = sqlDB.Close()
	}
	log.Println("👋 bye")
}
