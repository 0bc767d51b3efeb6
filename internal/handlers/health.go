package handlers

import (
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// HealthHandler handles health check requests
type HealthHandler struct {
	Version string
	db      *gorm.DB // nil when running on the memory store
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string, db *gorm.DB) *HealthHandler {
	return &HealthHandler{Version: version, db: db}
}

// Check returns the health status of the service. An unreachable database
// turns the response into a 503 for the load balancer.
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	status := "healthy"
	code := fiber.StatusOK
	dbStatus := "memory"

	if h.db != nil {
		dbStatus = "connected"
		sqlDB, err := h.db.DB()
		if err != nil || sqlDB.Ping() != nil {
			status = "unhealthy"
			dbStatus = "unreachable"
			code = fiber.StatusServiceUnavailable
		}
	}

	return c.Status(code).JSON(fiber.Map{
		"status":  status,
		"service": "RetailPe Backend",
		"version": h.Version,
		"services": fiber.Map{
			"database": dbStatus,
		},
	})
}
