package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	glog "github.com/goliatone/go-logger/glog"
)

// operatorCtxKey holds the operator name resolved from X-API-Key.
const operatorCtxKey = "operator"

// APIKeyMiddleware guards the admin endpoints. ADMIN_KEYS never yields an
// empty key, so a missing header can never match; with no keys configured
// every request is rejected. Rejections are logged without the key itself.
func APIKeyMiddleware(keys map[string]string, logger glog.Logger) gin.HandlerFunc {
	logger = glog.Ensure(logger)
	return func(c *gin.Context) {
		operator, ok := keys[strings.TrimSpace(c.GetHeader("X-API-Key"))]
		if !ok {
			logger.Warn("admin request rejected",
				"path", c.FullPath(),
				"client_ip", c.ClientIP(),
				"keys_configured", len(keys),
			)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(operatorCtxKey, operator)
		logger.Debug("admin request", "path", c.FullPath(), "operator", operator)
		c.Next()
	}
}

// Operator returns the operator name set by APIKeyMiddleware.
func Operator(c *gin.Context) string {
	v, _ := c.Get(operatorCtxKey)
	s, _ := v.(string)
	return s
}
