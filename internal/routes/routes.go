package routes

import (
	"github.com/gin-gonic/gin"

	"taskhive/internal/handlers"
	"taskhive/internal/middleware"
	"taskhive/internal/models"
)

func SetupRoutes(
	r *gin.Engine,
	authHandler *handlers.AuthHandler,
	userHandler *handlers.UserHandler,
	taskHandler *handlers.TaskHandler,
	bidHandler *handlers.BidHandler,
	reviewHandler *handlers.ReviewHandler,
	notificationHandler *handlers.NotificationHandler,
	categoryHandler *handlers.CategoryHandler,
	feeHandler *handlers.FeeHandler,
	reportHandler *handlers.ReportHandler,
	wsHandler *handlers.WSHandler,
) *gin.Engine {

	// ---- public
	r.POST("/register", authHandler.Register)
	r.POST("/login", authHandler.Login)
	r.POST("/refresh", authHandler.Refresh)
	r.GET("/categories", categoryHandler.List)
	r.GET("/fees/quote", feeHandler.Quote)
	r.GET("/taskers/:id/reviews", reviewHandler.ListForTasker)
	r.GET("/taskers/:id/rating", reviewHandler.Stats)
	r.GET("/profiles/:id", userHandler.Get)
	r.GET("/healthz", func(c *gin.Context) { c.JSON(200, gin.H{"status": "ok"}) })

	// ---- protected
	r.Use(middleware.AuthMiddleware())

	r.POST("/logout", authHandler.Logout)
	r.GET("/ws", wsHandler.Serve)

	me := r.Group("/users/me")
	{
		me.GET("", userHandler.Me)
		me.PUT("", userHandler.UpdateMe)
		me.POST("/telegram", userHandler.LinkTelegram)
		me.DELETE("/telegram", userHandler.UnlinkTelegram)
	}

	tasks := r.Group("/tasks")
	{
		tasks.GET("", taskHandler.List)
		tasks.GET("/:id", taskHandler.Get)
		tasks.GET("/:id/receipt", reportHandler.TaskReceipt)
		tasks.GET("/:id/bids", bidHandler.ListForTask)
		tasks.PUT("/:id/status", taskHandler.ChangeStatus)

		customers := tasks.Group("", middleware.RequireRoles(models.RoleCustomer, models.RoleAdmin))
		{
			customers.POST("", taskHandler.Create)
			customers.PUT("/:id", taskHandler.Update)
			customers.DELETE("/:id", taskHandler.Delete)
			customers.PUT("/:id/assign", taskHandler.Assign)
			customers.PUT("/:id/confirm-completion", taskHandler.ConfirmCompletion)
			customers.PUT("/:id/reject-completion", taskHandler.RejectCompletion)
			customers.PUT("/:id/cancel", taskHandler.Cancel)
		}

		taskers := tasks.Group("", middleware.RequireRoles(models.RoleTasker, models.RoleAdmin))
		{
			taskers.PUT("/:id/start", taskHandler.Start)
			taskers.PUT("/:id/request-completion", taskHandler.RequestCompletion)
			taskers.POST("/:id/bids", bidHandler.Place)
		}
	}

	bids := r.Group("/bids")
	{
		bids.GET("/my", middleware.RequireRoles(models.RoleTasker, models.RoleAdmin), bidHandler.MyBids)
		bids.PUT("/:id", bidHandler.Update)
		bids.DELETE("/:id", bidHandler.Delete)
		bids.PUT("/:id/cancel", bidHandler.Cancel)

		decide := bids.Group("", middleware.RequireRoles(models.RoleCustomer, models.RoleAdmin))
		{
			decide.PUT("/:id/accept", bidHandler.Accept)
			decide.PUT("/:id/reject", bidHandler.Reject)
		}
	}

	reviews := r.Group("/reviews", middleware.RequireRoles(models.RoleCustomer, models.RoleAdmin))
	{
		reviews.POST("", reviewHandler.Submit)
	}

	notifications := r.Group("/notifications")
	{
		notifications.GET("", notificationHandler.List)
		notifications.GET("/unread-count", notificationHandler.UnreadCount)
		notifications.POST("/:id/read", notificationHandler.MarkRead)
		notifications.POST("/read-all", notificationHandler.MarkAllRead)
	}

	admin := r.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/users", userHandler.List)
		admin.POST("/categories", categoryHandler.Create)
		admin.GET("/fees", feeHandler.Current)
		admin.PUT("/fees", feeHandler.Update)
		admin.GET("/fees/history", feeHandler.History)
		admin.GET("/reports/summary", reportHandler.Summary)
	}

	return r
}
