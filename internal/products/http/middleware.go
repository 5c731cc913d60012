package http

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader = "X-Request-ID"
	bearerPrefix    = "bearer "
	msgUnauthorized = "Unauthorized"
)

func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Header(requestIDHeader, requestID)
		c.Set(requestIDHeader, requestID)
		c.Next()
	}
}

func AccessLogMiddleware(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		requestID, _ := c.Get(requestIDHeader)
		logger.Info("http request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency_ms", time.Since(start).Milliseconds(),
			"request_id", requestID,
			"client_ip", c.ClientIP(),
		)
	}
}

type TokenChecker interface {
	ValidToken(token string) bool
}

// RequireToken rejects requests whose Authorization header does not carry
// the token issued by login.
func RequireToken(checker TokenChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if len(header) <= len(bearerPrefix) || !strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, statusResponse{Message: msgUnauthorized})
			return
		}
		if !checker.ValidToken(header[len(bearerPrefix):]) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, statusResponse{Message: msgUnauthorized})
			return
		}
		c.Next()
	}
}

// CORSMiddleware allows every origin when origins is exactly ["*"].
func CORSMiddleware(origins []string) (gin.HandlerFunc, error) {
	cc := cors.DefaultConfig()
	if len(origins) == 1 && origins[0] == "*" {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = origins
	}
	cc.AddAllowHeaders("Authorization", requestIDHeader)
	cc.AddExposeHeaders(requestIDHeader)

	if err := cc.Validate(); err != nil {
		return nil, fmt.Errorf("cors: %w", err)
	}
	return cors.New(cc), nil
}
