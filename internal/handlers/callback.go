package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	glog "github.com/goliatone/go-logger/glog"

	"github.com/PratikDhanave/bm-echo-agent/internal/agent"
	"github.com/PratikDhanave/bm-echo-agent/internal/classify"
	"github.com/PratikDhanave/bm-echo-agent/internal/models"
)

const maxCallbackBody = 1 << 20

// RegisterCallbackRoutes registers the platform webhook.
//
// POST /callback
// - Always acknowledges with 200 once the body is read, whatever happens
//   downstream: malformed payloads, duplicates and failed sends are
//   logged, never surfaced, so the platform does not redeliver.
// - The reply is sent inline before the response is written.
func RegisterCallbackRoutes(r gin.IRoutes, a *agent.Agent, logger glog.Logger) {
	logger = glog.Ensure(logger)

	r.POST("/callback", func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxCallbackBody)
		body, err := c.GetRawData()
		if err != nil {
			logger.Warn("callback body unreadable", "error", err)
			a.Ignore()
			c.JSON(http.StatusOK, models.CallbackResponse{Status: "received", Outcome: string(agent.OutcomeIgnored)})
			return
		}

		logger.Debug("callback received", "body", string(body))

		event, err := classify.Classify(body)
		if err != nil {
			logger.Info("callback ignored", "error", err)
			a.Ignore()
			c.JSON(http.StatusOK, models.CallbackResponse{Status: "received", Outcome: string(agent.OutcomeIgnored)})
			return
		}

		// A platform hang-up must not cut the send short once dedup is recorded.
		ctx := context.WithoutCancel(c.Request.Context())
		outcome := a.Handle(ctx, event)

		c.JSON(http.StatusOK, models.CallbackResponse{Status: "received", Outcome: string(outcome)})
	})
}
