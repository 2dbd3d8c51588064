package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/PratikDhanave/bm-echo-agent/internal/agent"
)

// RegisterStatsRoutes registers the operational counters endpoint.
//
// GET /stats
// - Mount behind auth.APIKeyMiddleware
// - Returns delivery counters since process start
func RegisterStatsRoutes(r gin.IRoutes, a *agent.Agent) {
	r.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, a.Stats().Snapshot())
	})
}
