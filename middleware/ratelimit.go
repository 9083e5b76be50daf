package middleware

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// RateLimit limits requests per client IP under the given scope. A nil
// limiter disables the check; limiter errors let the request through.
func RateLimit(l Limiter, scope string, log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if l == nil {
			c.Next()
			return
		}
		ok, err := l.Allow(c.Request.Context(), scope+":"+c.ClientIP())
		if err != nil {
			log.Warn("rate limiter unavailable", slog.String("scope", scope), slog.Any("err", err))
			c.Next()
			return
		}
		if !ok {
			deny(c, http.StatusTooManyRequests, "Too many requests")
			return
		}
		c.Next()
	}
}
