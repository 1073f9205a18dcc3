package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/surfer/browser"
	"github.com/use-agent/surfer/models"
)

// Version is reported by the health endpoint.
var Version = "0.1.0"

// Health returns a handler for GET /api/v1/health.
//
// Degrades when no browser can be located or every run slot is taken.
func Health(loc *browser.Locator, gate *RunGate, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := "healthy"
		var binPath string
		if bin, err := loc.Locate(); err != nil {
			status = "degraded"
		} else {
			binPath = bin.Path
		}
		if gate.Active() >= gate.Max() {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:     status,
			Uptime:     time.Since(startTime).Round(time.Second).String(),
			Version:    Version,
			BrowserBin: binPath,
			ActiveRuns: gate.Active(),
			MaxRuns:    gate.Max(),
		})
	}
}
