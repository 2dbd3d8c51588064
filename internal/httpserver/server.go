package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/PratikDhanave/bm-echo-agent/internal/agent"
	"github.com/PratikDhanave/bm-echo-agent/internal/auth"
	"github.com/PratikDhanave/bm-echo-agent/internal/config"
	"github.com/PratikDhanave/bm-echo-agent/internal/dedup"
	"github.com/PratikDhanave/bm-echo-agent/internal/handlers"
)

// ClientStatus reports whether the outbound API client is usable.
type ClientStatus interface {
	Ready() bool
}

// Deps are the components the router exposes.
type Deps struct {
	Agent  *agent.Agent
	Cache  dedup.Cache
	Client ClientStatus
	Logger glog.Logger
}

// NewRouter wires public endpoints and authenticated APIs.
// Public: /health, /ready, /callback (signed by the platform)
// Authenticated: /stats
func NewRouter(cfg config.Config, deps Deps) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	logger := glog.Ensure(deps.Logger)

	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(logger))

	// Liveness: confirms the process is running.
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Readiness: the dedup store must be reachable. A missing API client is
	// reported but does not fail readiness; callbacks are still acknowledged.
	r.GET("/ready", func(c *gin.Context) {
		body := gin.H{"status": "ready"}
		if deps.Client != nil {
			body["client_ready"] = deps.Client.Ready()
		}

		if pinger, ok := deps.Cache.(dedup.Pinger); ok {
			ctx, cancel := context.WithTimeout(c.Request.Context(), time.Second)
			defer cancel()

			if err := pinger.Ping(ctx); err != nil {
				body["status"] = "not_ready"
				body["error"] = err.Error()
				c.JSON(http.StatusServiceUnavailable, body)
				return
			}
		}
		c.JSON(http.StatusOK, body)
	})

	callback := r.Group("/")
	callback.Use(auth.SignatureMiddleware(cfg.ClientToken))
	handlers.RegisterCallbackRoutes(callback, deps.Agent, logger)

	// Admin group enforces operator context via X-API-Key.
	admin := r.Group("/")
	admin.Use(auth.APIKeyMiddleware(cfg.AdminKeys, logger))
	handlers.RegisterStatsRoutes(admin, deps.Agent)

	return r
}

func requestLogger(logger glog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("http request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start).String(),
		)
	}
}
