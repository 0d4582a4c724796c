package middleware

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinic/clinic/internal/platform/auth"
)

// RateLimit enforces a fixed-window per-caller request budget using Redis
// counters, so the limit holds across replicas. Authenticated callers are
// keyed by user id, anonymous callers by remote IP. A nil client disables
// limiting; Redis outages fail open with a log line rather than rejecting
// traffic.
func RateLimit(client *redis.Client, perMinute int, logger zerolog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if client == nil || perMinute <= 0 {
				return next(c)
			}

			ctx := c.Request().Context()
			caller := c.RealIP()
			if p := auth.PrincipalFromContext(ctx); p != nil {
				caller = p.UserID.String()
			}
			window := time.Now().Unix() / 60
			key := fmt.Sprintf("ratelimit:%s:%d", caller, window)

			pipe := client.TxPipeline()
			count := pipe.Incr(ctx, key)
			pipe.Expire(ctx, key, 2*time.Minute)
			if _, err := pipe.Exec(ctx); err != nil {
				logger.Warn().Err(err).Msg("rate limiter unavailable, failing open")
				return next(c)
			}

			if count.Val() > int64(perMinute) {
				c.Response().Header().Set("Retry-After", "60")
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
