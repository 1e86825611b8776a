package app

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"taskhive/internal/config"
	"taskhive/internal/handlers"
	"taskhive/internal/logging"
	"taskhive/internal/middleware"
	"taskhive/internal/realtime"
	"taskhive/internal/repositories"
	"taskhive/internal/routes"
	"taskhive/internal/services"

	_ "taskhive/docs"
)

func Run() {
	cfg := config.LoadConfig()

	logging.InitLogger(cfg.Logs.Dir)
	middleware.SetJWTKey(cfg.Auth.JWTSecret)

	// === DB ===
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.Mongo.URI))
	if err != nil {
		logging.Logger.Fatalf("[app][mongo][err] connect: %v", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("[app][mongo][err] ping: %v", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logging.Logger.Errorf("[app][mongo][err] disconnect: %v", err)
		}
	}()
	db := client.Database(cfg.Mongo.Database)

	// === Repos ===
	userRepo := repositories.NewUserRepository(db)
	taskRepo := repositories.NewTaskRepository(db)
	bidRepo := repositories.NewBidRepository(db)
	reviewRepo := repositories.NewReviewRepository(db)
	notificationRepo := repositories.NewNotificationRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	feeRepo := repositories.NewFeeSettingsRepository(db)

	// === Services ===
	hub := realtime.NewHub()
	emailService := services.NewEmailService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FromEmail,
	)
	telegramService := services.NewTelegramService(cfg.Telegram.BotToken, cfg.Telegram.DryRun)

	notificationService := services.NewNotificationService(
		notificationRepo, userRepo, hub, emailService, telegramService)
	feeService := services.NewFeeService(feeRepo)
	categoryService := services.NewCategoryService(categoryRepo)
	userService := services.NewUserService(userRepo, emailService, cfg.Auth.JWTSecret)
	taskService := services.NewTaskService(
		taskRepo, bidRepo, categoryRepo, userRepo, feeService, notificationService)
	bidService := services.NewBidService(bidRepo, taskRepo, userRepo, notificationService)
	reviewService := services.NewReviewService(reviewRepo, taskRepo, userRepo, notificationService)
	reportService := services.NewReportService(taskRepo)

	// === Handlers ===
	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	bidHandler := handlers.NewBidHandler(bidService)
	reviewHandler := handlers.NewReviewHandler(reviewService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	categoryHandler := handlers.NewCategoryHandler(categoryService)
	feeHandler := handlers.NewFeeHandler(feeService)
	reportHandler := handlers.NewReportHandler(reportService, taskService, userService)
	wsHandler := handlers.NewWSHandler(hub)

	// === Gin ===
	router := gin.Default()
	router.Use(corsMiddleware())

	// Swagger
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	routes.SetupRoutes(
		router,
		authHandler,
		userHandler,
		taskHandler,
		bidHandler,
		reviewHandler,
		notificationHandler,
		categoryHandler,
		feeHandler,
		reportHandler,
		wsHandler,
	)

	// === Run ===
	listenAddr := fmt.Sprintf(":%d", cfg.Server.Port)
	logging.Logger.Infof("[app][start][ok] listening on %s", listenAddr)
	if err := router.Run(listenAddr); err != nil {
		logging.Logger.Fatalf("[app][start][err] %v", err)
	}
}

func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	}
}
