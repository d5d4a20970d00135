package api

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"shahiengineers/internal/api/middleware"
	"shahiengineers/internal/auth"
	"shahiengineers/internal/config"
	"shahiengineers/internal/storage"
	"shahiengineers/internal/store"
)

// RegisterRoutes 注册全部业务路由。
// 公共路径与旧版前端保持一致（/signup、/login、…），管理端统一挂在
// /api/admin 下并经过角色门。
func RegisterRoutes(
	router *gin.Engine,
	cfg *config.Config,
	users store.UserStore,
	submissions store.SubmissionStore,
	authService *auth.AuthService,
	redisClient redis.UniversalClient,
	objectStorage storage.ObjectStorage,
	logger *slog.Logger,
) {
	authHandler := NewAuthHandler(
		users,
		authService,
		redisClient,
		logger,
		cfg.Auth.LoginRateLimitPerHour,
		cfg.Auth.LoginLockThreshold,
		cfg.Auth.LoginLockTTL,
	)
	contactHandler := NewContactHandler(submissions, objectStorage, logger)
	resumeHandler := NewResumeHandler(
		submissions,
		objectStorage,
		logger,
		cfg.Upload.MaxBytes,
		cfg.Upload.AllowedExtensionList(),
		cfg.Upload.ClamdAddr,
	)
	adminHandler := NewAdminHandler(users, submissions, logger)

	authMiddleware := middleware.AuthMiddleware(authService)
	adminOnly := middleware.RequireRole(auth.RoleAdmin)

	router.POST("/signup", authHandler.Signup)
	router.POST("/login", authHandler.Login)

	router.POST("/contact", authMiddleware, contactHandler.SubmitContact)
	router.POST("/upload-resume", authMiddleware, resumeHandler.UploadResume)

	router.GET("/admin-dashboard", authMiddleware, adminOnly, adminHandler.Dashboard)
	router.GET("/download-resume/:ref", authMiddleware, adminOnly, resumeHandler.DownloadResume)

	admin := router.Group("/api/admin")
	admin.Use(authMiddleware, adminOnly)
	{
		admin.GET("/contacts", contactHandler.ListContacts)
		admin.DELETE("/contact/:id", contactHandler.DeleteContact)
		admin.GET("/resumes", resumeHandler.ListResumes)
		admin.GET("/resume/:ref", resumeHandler.DownloadResume)
		admin.DELETE("/resume/:id", resumeHandler.DeleteResume)
		admin.POST("/users/:email/promote", adminHandler.PromoteUser)
	}
}
