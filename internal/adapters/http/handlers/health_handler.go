package handlers

import (
	"context"
	"time"

	"libraryhub/internal/config"

	"github.com/gofiber/fiber/v2"
)

// Checker reports whether a dependency is reachable
type Checker func(ctx context.Context) error

// HealthHandler handles health check endpoints
type HealthHandler struct {
	checks map[string]Checker
}

// NewHealthHandler creates a new health handler. The database is always checked.
func NewHealthHandler(extra map[string]Checker) *HealthHandler {
	checks := map[string]Checker{
		"database": func(context.Context) error { return config.HealthCheck() },
	}
	for name, check := range extra {
		checks[name] = check
	}
	return &HealthHandler{checks: checks}
}

// Root handles root endpoint
// @Summary Root endpoint
// @Description Returns API status
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router / [get]
func (h *HealthHandler) Root(c *fiber.Ctx) error {
	mode := ""
	if config.AppConfig != nil {
		mode = config.AppConfig.AppMode
	}
	return c.JSON(fiber.Map{
		"status":  "running",
		"message": "libraryhub API v1 is running",
		"mode":    mode,
		"docs":    "/swagger/index.html",
	})
}

// HealthCheck handles health check
// @Summary Health check
// @Description Check API and dependency health
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Failure 503 {object} map[string]interface{}
// @Router /health [get]
func (h *HealthHandler) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 2*time.Second)
	defer cancel()

	status := fiber.StatusOK
	checks := fiber.Map{"api": "healthy"}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			checks[name] = "unhealthy"
			status = fiber.StatusServiceUnavailable
			continue
		}
		checks[name] = "healthy"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status": overall,
		"checks": checks,
	})
}

// APIInfo handles API v1 info
// @Summary API v1 Info
// @Tags Health
// @Produce json
// @Success 200 {object} map[string]interface{}
// @Router /api/v1 [get]
func (h *HealthHandler) APIInfo(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"message": "libraryhub API v1",
		"version": "1.0.0",
	})
}
