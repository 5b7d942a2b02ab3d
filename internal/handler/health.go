package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Health answers liveness probes. It deliberately touches neither
// the database nor Redis: the process serving requests is the only
// thing a load balancer needs to know about, and degraded caching
// must not take the service out of rotation.
func Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{"status": "ok"})
}
