package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// operatorCtxKey holds the authenticated operator id in the gin context.
const operatorCtxKey = "operatorId"

// userIdMiddleware admits bearer tokens issued for this bin only.
func (h *Handler) userIdMiddleware(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing Authorization header",
		})
		return
	}

	scheme, token, ok := strings.Cut(header, " ")
	if !ok || scheme != "Bearer" || token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid Authorization header format",
		})
		return
	}

	id, err := h.services.ParseToken(token)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid or expired token",
		})
		return
	}
	if id.DeviceID != h.deviceID {
		if h.log != nil {
			h.log.Warnw("auth_foreign_device_token", "operator_id", id.OperatorID, "token_device", id.DeviceID, "device_id", h.deviceID)
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "token issued for another device",
		})
		return
	}

	c.Set(operatorCtxKey, id.OperatorID)
	c.Next()
}
