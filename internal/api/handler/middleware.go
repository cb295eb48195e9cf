package handler

import (
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"complaintdesk/backend/internal/auth"
	"complaintdesk/backend/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// bearerToken extracts the token from the Authorization header, or from the
// token query parameter on WebSocket upgrades where browsers cannot set headers.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		return strings.TrimSpace(header[7:])
	}
	if c.IsWebsocket() {
		return c.Query("token")
	}
	return ""
}

// Sessions attaches an auth.Session to every request. Requests without a
// token are anonymous; a bad token is refused outright.
func (h *Handler) Sessions() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess := auth.Anonymous()
		if token := bearerToken(c); token != "" {
			verified, err := h.Auth.Verify(c.Request.Context(), token)
			if err != nil {
				h.fail(c, err)
				return
			}
			sess = verified
		}
		c.Request = c.Request.WithContext(auth.WithSession(c.Request.Context(), sess))
		c.Next()
	}
}

// RequireAdmin stops requests that do not carry an administrator session.
func (h *Handler) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !session(c).Privileged() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "administrator session required"})
			return
		}
		c.Next()
	}
}

// AccessLog records latency per route and writes one log line per request.
func (h *Handler) AccessLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		status := c.Writer.Status()
		elapsed := time.Since(start)
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("route", route),
			zap.Int("status", status),
			zap.Duration("elapsed", elapsed),
			zap.String("actor", session(c).ActorID),
		}
		if status >= http.StatusInternalServerError {
			h.log.Warn("request", fields...)
			return
		}
		h.log.Debug("request", fields...)
	}
}

// CORS allows the configured dashboard origins. "*" allows any origin.
func (h *Handler) CORS() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin != "" && h.originAllowed(origin) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, Idempotency-Key, If-Match")
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		}
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func (h *Handler) originAllowed(origin string) bool {
	return slices.Contains(h.AllowedOrigins, "*") || slices.Contains(h.AllowedOrigins, origin)
}
