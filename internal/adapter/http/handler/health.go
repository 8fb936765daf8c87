package handler

import (
	"net/http"

	"merchant-settlement-service/internal/core/ports"

	"github.com/gin-gonic/gin"
)

// HealthHandler reports liveness of the service and its dependencies.
type HealthHandler struct {
	checkers []ports.HealthChecker
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(checkers ...ports.HealthChecker) *HealthHandler {
	return &HealthHandler{checkers: checkers}
}

// Check handles GET /health. Returns 503 when any dependency is down.
func (h *HealthHandler) Check(c *gin.Context) {
	status := http.StatusOK
	deps := make(map[string]string, len(h.checkers))

	for _, checker := range h.checkers {
		if err := checker.Ping(c.Request.Context()); err != nil {
			deps[checker.Name()] = "down"
			status = http.StatusServiceUnavailable
			continue
		}
		deps[checker.Name()] = "up"
	}

	c.JSON(status, gin.H{
		"status":       httpStatusWord(status),
		"dependencies": deps,
	})
}

func httpStatusWord(status int) string {
	if status == http.StatusOK {
		return "ok"
	}
	return "degraded"
}
