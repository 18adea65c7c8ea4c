package api

import (
	"github.com/labstack/echo/v4"
)

// HealthHandler reports liveness.
type HealthHandler struct {
	version string
}

// HandleHealth returns server health status.
func (h *HealthHandler) HandleHealth(c echo.Context) error {
	return ok(c, map[string]string{
		"status":  "ok",
		"version": h.version,
	})
}
