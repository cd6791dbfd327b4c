package router

import (
	"budget-web/internal/config"
	"budget-web/internal/handler"
	"budget-web/internal/middleware"
	"budget-web/internal/repository"
	"budget-web/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/hibiken/asynq"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func SetupAPIRoutes(
	router fiber.Router,
	db *sqlx.DB,
	redis *redis.Client,
	cfg *config.Config,
) {
	// Initialize repositories
	userRepo := repository.NewUserRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	importRepo := repository.NewImportRepository(db)

	// Initialize services
	authService := service.NewAuthService(userRepo, cfg)

	// Initialize Asynq client (optional - only if Redis is available)
	var asynqClient *asynq.Client
	if redis != nil {
		asynqClient = asynq.NewClient(asynq.RedisClientOpt{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
	}

	// Initialize handlers
	authHandler := handler.NewAuthHandler(authService)
	accountHandler := handler.NewAccountHandler(accountRepo, cfg)
	importHandler := handler.NewImportHandler(importRepo, accountRepo, redis, asynqClient, cfg)
	dashboardHandler := handler.NewDashboardHandler(accountRepo, importRepo)

	// Public routes
	auth := router.Group("/auth")
	auth.Post("/login", authHandler.Login)
	auth.Post("/register", authHandler.Register)
	auth.Post("/logout", authHandler.Logout)

	// Protected routes
	protected := router.Group("", middleware.AuthMiddleware(cfg))

	// Auth routes
	protected.Get("/auth/me", authHandler.Me)

	// Dashboard routes
	protected.Get("/dashboard/stats", dashboardHandler.GetStats)

	// Account routes
	accounts := protected.Group("/accounts")
	accounts.Get("/", accountHandler.GetAccounts)
	accounts.Get("/tree", accountHandler.GetAccountTree)
	accounts.Get("/export", accountHandler.ExportAccounts)
	accounts.Get("/template", accountHandler.DownloadTemplate)
	accounts.Get("/:id", accountHandler.GetAccount)
	accounts.Post("/", accountHandler.CreateAccount)
	accounts.Put("/:id", accountHandler.UpdateAccount)
	accounts.Delete("/:id", middleware.AdminOnly(), accountHandler.DeleteAccount)

	// Import routes
	imports := protected.Group("/imports")
	imports.Post("/", importHandler.UploadFile)
	imports.Get("/", importHandler.GetSessions)
	imports.Get("/export", importHandler.ExportSessions)
	imports.Get("/error-report/:filename", importHandler.DownloadErrorReport)
	imports.Get("/progress/:session_code", importHandler.GetSessionProgress)
	imports.Get("/:id", importHandler.GetSessionDetail)
	imports.Post("/:id/confirm", importHandler.ConfirmSession)
	imports.Post("/:id/cancel", importHandler.CancelSession)
	imports.Delete("/:id", middleware.AdminOnly(), importHandler.DeleteSession)
}
