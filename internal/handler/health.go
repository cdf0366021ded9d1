package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// Version is reported by the root endpoint.
const Version = "1.0.0"

// Pinger reports whether a backing store is reachable.  *sql.DB implements
// it.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// HealthHandler serves the info and health endpoints.
type HealthHandler struct {
	db  Pinger
	now func() time.Time
}

// NewHealthHandler builds a HealthHandler.  A nil db makes Healthz a pure
// liveness check.
func NewHealthHandler(db Pinger) *HealthHandler {
	return &HealthHandler{db: db, now: time.Now}
}

// Root describes the API.
func (h *HealthHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Customer Directory API is running",
		"version": Version,
	})
}

// Health reports that the server is up, with the current time.
func (h *HealthHandler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, echo.Map{
		"success":   true,
		"message":   "Server is healthy",
		"timestamp": h.now().UTC().Format(time.RFC3339Nano),
	})
}

// Healthz is the probe for load balancers.  It answers plain "ok" while the
// database answers a ping and 503 otherwise.
func (h *HealthHandler) Healthz(c echo.Context) error {
	if h.db != nil {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
		defer cancel()
		if err := h.db.PingContext(ctx); err != nil {
			return c.String(http.StatusServiceUnavailable, "database unavailable")
		}
	}
	return c.String(http.StatusOK, "ok")
}
