package handler

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/prepstack/prepstack-api/internal/config"
	"github.com/prepstack/prepstack-api/internal/utils"
)

// HealthResponse reports service identity and the reachability of the
// backing stores.
type HealthResponse struct {
	Status      string            `json:"status"`
	Timestamp   time.Time         `json:"timestamp"`
	Service     string            `json:"service"`
	Environment string            `json:"environment"`
	Checks      map[string]string `json:"checks"`
}

// HealthCheck probes the database and Redis. A failing dependency degrades
// the reported status but still returns 200 so load balancers keep the
// instance while it reconnects.
func HealthCheck(cfg config.Config, db *gorm.DB, redisClient *redis.Client) fiber.Handler {
	return func(c *fiber.Ctx) error {
		checks := map[string]string{
			"database": "ok",
			"redis":    "ok",
		}
		status := "ok"

		if db == nil {
			checks["database"] = "not configured"
			status = "degraded"
		} else if sqlDB, err := db.DB(); err != nil || sqlDB.PingContext(c.UserContext()) != nil {
			checks["database"] = "unreachable"
			status = "degraded"
		}

		if redisClient == nil {
			checks["redis"] = "not configured"
			status = "degraded"
		} else if err := redisClient.Ping(c.UserContext()).Err(); err != nil {
			checks["redis"] = "unreachable"
			status = "degraded"
		}

		payload := HealthResponse{
			Status:      status,
			Timestamp:   time.Now().UTC(),
			Service:     cfg.AppName,
			Environment: cfg.AppEnv,
			Checks:      checks,
		}

		return utils.SendSuccess(c, "service health", payload)
	}
}
