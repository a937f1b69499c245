package router

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/mark3labs/openapiroute/internal/logctx"
)

// RequestIDHeader carries the request id in and out.
const RequestIDHeader = "X-Request-Id"

// requestLogger opens a request: it assigns a request id, resets the state
// machine and logs the outcome once the chain has finished.
func requestLogger(log *slog.Logger, route string) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		id := strings.TrimSpace(c.GetHeader(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(RequestIDHeader, id)
		c.Set(requestKey, &logctx.RequestData{
			RequestID:  id,
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			Route:      route,
			RemoteAddr: c.Request.RemoteAddr,
		})
		setState(c, Start)

		c.Next()

		log.InfoContext(logContext(c), "http.request",
			slog.Int("status", c.Writer.Status()),
			slog.String("state", StateOf(c).String()),
			slog.Duration("duration", time.Since(start)),
		)
	}
}

// LogContext returns the request context enriched with request data for
// logging through a logctx handler.
func LogContext(c *gin.Context) context.Context { return logContext(c) }

func logContext(c *gin.Context) context.Context {
	ctx := c.Request.Context()
	if v, ok := c.Get(requestKey); ok {
		if rd, ok := v.(*logctx.RequestData); ok {
			return logctx.WithRequestData(ctx, rd)
		}
	}
	return ctx
}
