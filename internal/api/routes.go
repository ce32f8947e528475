package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"campusRecruit/internal/api/middleware"
	"campusRecruit/internal/auth"
	"campusRecruit/internal/config"
	"campusRecruit/internal/database"
	"campusRecruit/internal/recruit"
	"campusRecruit/internal/storage"
)

// RegisterRoutes 注册 API 路由，不包含 /api 前缀。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	db *gorm.DB,
	engine *recruit.Engine,
	asynqClient *asynq.Client,
	authService *auth.AuthService,
	redisClient *redis.Client,
	logger *slog.Logger,
	storageClient *storage.Client,
) {
	authHandler := NewAuthHandler(
		db, authService, redisClient, logger,
		cfg.Auth.LoginRateLimitPerHour,
		cfg.Auth.LoginLockThreshold,
		cfg.Auth.LoginLockTTL,
		cfg.API.CookieDomain,
	)
	adminHandler := NewAdminHandler(engine, logger)
	jobHandler := NewJobHandler(engine, asynqClient, logger)
	questionHandler := NewQuestionHandler(engine, logger)
	messageHandler := NewMessageHandler(engine, asynqClient, logger)
	cvHandler := NewCVHandler(db, storageClient, logger, cfg.Worker.ClamdAddr)
	wsHandler := NewWsHandler(redisClient, authService, logger, cfg.API.AllowedOrigins)

	authMiddleware := middleware.AuthMiddleware(authService)
	passwordGate := middleware.RequirePasswordChangeCompletedMiddleware()
	approvedGate := middleware.RequireApproved()
	adminOnly := middleware.RequireRole(database.RoleAdmin)
	officerOnly := middleware.RequireRole(database.RolePlacementOfficer, database.RoleAdmin)
	candidateOnly := middleware.RequireRole(database.RoleCandidate)

	v1 := router.Group("/v1")
	{
		v1.GET("/ws", wsHandler.HandleConnection)

		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register/candidate", authHandler.RegisterCandidate)
			authGroup.POST("/register/officer", authHandler.RegisterOfficer)
			authGroup.POST("/login", authHandler.Login)
			authGroup.POST("/refresh", authHandler.Refresh)
			authGroup.POST("/logout", authMiddleware, authHandler.Logout)
			// 改密不过 passwordGate，否则强制改密的账号会被锁死。
			authGroup.POST("/change-password", authMiddleware, authHandler.ChangePassword)
		}

		adminGroup := v1.Group("/admin")
		adminGroup.Use(authMiddleware, passwordGate, adminOnly)
		{
			adminGroup.GET("/pending-accounts", adminHandler.ListPendingAccounts)
			adminGroup.PATCH("/accounts/:id/approval", adminHandler.SetApprovalStatus)
		}

		jobGroup := v1.Group("/jobs")
		jobGroup.Use(authMiddleware, passwordGate, approvedGate)
		{
			jobGroup.POST("", officerOnly, jobHandler.CreateJob)
			jobGroup.GET("", candidateOnly, jobHandler.ListJobs)
			jobGroup.POST("/:id/apply", candidateOnly, jobHandler.Apply)
			jobGroup.GET("/:id/applicants", officerOnly, jobHandler.ListApplicants)
			jobGroup.POST("/:id/advance-round", officerOnly, jobHandler.AdvanceRound)
			jobGroup.POST("/:id/roster-export", officerOnly, jobHandler.ExportRoster)
		}

		questionGroup := v1.Group("/questions")
		questionGroup.Use(authMiddleware, passwordGate, approvedGate)
		{
			questionGroup.POST("", candidateOnly, questionHandler.PostQuestion)
			questionGroup.GET("", questionHandler.ListQuestions)
			questionGroup.PATCH("/:id/answer", officerOnly, questionHandler.AnswerQuestion)
		}

		messageGroup := v1.Group("/messages")
		messageGroup.Use(authMiddleware, passwordGate, approvedGate)
		{
			messageGroup.POST("", officerOnly, messageHandler.SendMessage)
			messageGroup.GET("", messageHandler.ListReceived)
		}

		cvGroup := v1.Group("/cv")
		cvGroup.Use(authMiddleware, passwordGate, approvedGate, candidateOnly)
		{
			cvGroup.POST("", cvHandler.Upload)
			cvGroup.GET("/link", cvHandler.GetLink)
		}
	}
}
