package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

const healthProbeTimeout = 3 * time.Second

func (h *Handler) Health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), healthProbeTimeout)
	defer cancel()

	if err := h.health.Probe(ctx); err != nil {
		h.log.Warn("health probe failed", "error", err)
		return c.JSON(http.StatusServiceUnavailable, echo.Map{
			"status":  "unhealthy",
			"error":   "Database connection failed",
			"details": err.Error(),
		})
	}

	return c.JSON(http.StatusOK, echo.Map{
		"status":      "healthy",
		"timestamp":   time.Now().UTC().Format(time.RFC3339Nano),
		"database":    "connected",
		"cache":       h.health.CacheStatus(ctx),
		"environment": h.env,
		"uptime":      time.Since(h.started).Seconds(),
	})
}
