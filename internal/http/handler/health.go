package handler

import (
	"context"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"

	"qiblaapi/internal/http/middleware"
)

const healthMessage = "Qibla App Backend is running!"

// DependencyCheck is one probe run by HealthCheck, e.g. a database ping or a store directory stat.
type DependencyCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResponse struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
}

// HealthCheck reports OK when every dependency check passes within two seconds.
//
// @Summary Health check
// @Tags health
// @Produce json
// @Success 200 {object} healthResponse
// @Failure 503 {object} errorPayload
// @Router /health [get]
func HealthCheck(log *slog.Logger, checks ...DependencyCheck) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
		defer cancel()

		for _, dc := range checks {
			if err := dc.Check(ctx); err != nil {
				log.Warn("health_check_failed",
					"request_id", middleware.RequestIDFrom(c),
					"dependency", dc.Name,
					"error", err,
				)
				return writeError(c, fiber.StatusServiceUnavailable, "SERVICE_UNAVAILABLE", "dependency unavailable")
			}
		}

		return c.JSON(healthResponse{
			Status:    "OK",
			Message:   healthMessage,
			Timestamp: time.Now().UTC().Format("2006-01-02T15:04:05.000Z07:00"),
		})
	}
}

// LivenessProbe answers 200 without touching dependencies.
//
// @Summary Liveness probe
// @Tags health
// @Success 200
// @Router /healthz [get]
func LivenessProbe() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	}
}
