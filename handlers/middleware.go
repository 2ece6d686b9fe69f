package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"gradestats-server-go/logging"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// RequestID stamps every request with an id, reusing the caller's if sent.
// It must run before RequestLogger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Request = c.Request.WithContext(logging.WithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

// RequestLogger writes one structured line per request
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}
		logger.Log(c.Request.Context(), level, "request completed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Int("bytes", c.Writer.Size()),
			slog.String("remote_addr", c.ClientIP()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// RateLimiter limits how often uploads are analyzed
type RateLimiter struct {
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewRateLimiter creates a rate limiter shared by all clients
func NewRateLimiter(rps float64, burst int, logger *slog.Logger) *RateLimiter {
	return &RateLimiter{
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		logger:  logger,
	}
}

// Handler rejects requests over the limit with 429
func (rl *RateLimiter) Handler(c *gin.Context) {
	if !rl.limiter.Allow() {
		rl.logger.WarnContext(c.Request.Context(), "rate limit exceeded",
			slog.String("path", c.Request.URL.Path),
			slog.String("remote_addr", c.ClientIP()))
		c.Header("Retry-After", "60")
		c.AbortWithStatusJSON(errRateLimited.StatusCode, errRateLimited)
		return
	}
	c.Next()
}
