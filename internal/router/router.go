package router

import (
	"budget-web/internal/config"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

func Setup(app *fiber.App, db *sqlx.DB, redis *redis.Client, cfg *config.Config) {
	// Health check with dependency pings
	app.Get("/health", func(c *fiber.Ctx) error {
		status := "ok"
		httpStatus := fiber.StatusOK

		dbStatus := "up"
		if err := db.Ping(); err != nil {
			dbStatus = "down"
			status = "degraded"
			httpStatus = fiber.StatusServiceUnavailable
		}

		redisStatus := "up"
		if redis == nil {
			redisStatus = "not configured"
		} else if err := redis.Ping(c.Context()).Err(); err != nil {
			redisStatus = "down"
			status = "degraded"
			httpStatus = fiber.StatusServiceUnavailable
		}

		return c.Status(httpStatus).JSON(fiber.Map{
			"status":   status,
			"app":      cfg.AppName,
			"database": dbStatus,
			"redis":    redisStatus,
		})
	})

	// API routes (JSON)
	api := app.Group("/api/v1")
	SetupAPIRoutes(api, db, redis, cfg)
}
