package handlers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/eduplatform-api/database"
)

// Pinger is satisfied by the redis cache
type Pinger interface {
	Ping(ctx context.Context) error
}

// HandleCheckHealth reports database and redis status. A nil redis is reported as disabled.
func HandleCheckHealth(redis Pinger) func(c *fiber.Ctx, store database.Storage) error {
	return func(c *fiber.Ctx, store database.Storage) error {
		status := fiber.Map{"status": "ok", "database": "ok", "redis": "disabled"}
		code := fiber.StatusOK

		if err := store.HealthCheck(); err != nil {
			status["status"] = "degraded"
			status["database"] = "unreachable"
			code = fiber.StatusServiceUnavailable
		}

		if redis != nil {
			if err := redis.Ping(c.Context()); err != nil {
				status["redis"] = "unreachable"
			} else {
				status["redis"] = "ok"
			}
		}

		return c.Status(code).JSON(status)
	}
}
