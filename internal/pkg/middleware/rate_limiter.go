package middleware

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/pkg/ratelimit"
)

// RateLimit applies a named token-bucket policy to every request through
// this middleware, keyed by the authenticated caller id when present and
// the client IP otherwise. This generalizes the teacher's
// RateLimiterMiddleware (a plain Redis counter) into the shared token
// bucket used throughout the core (spec §4.9).
func RateLimit(limiter *ratelimit.Limiter, policy string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			identifier := CallerID(c)
			if identifier == "" {
				identifier = "ip:" + c.RealIP()
			}

			result, err := limiter.Consume(c.Request().Context(), policy, identifier, 1)
			if err != nil {
				// Fails open: limiter already logged the cache outage.
				return next(c)
			}

			c.Response().Header().Set("X-RateLimit-Remaining", strconv.FormatFloat(result.TokensRemaining, 'f', 0, 64))

			if !result.Allowed {
				c.Response().Header().Set("Retry-After", strconv.FormatFloat(result.RetryAfterSeconds, 'f', 1, 64))
				return echo.NewHTTPError(http.StatusTooManyRequests, "rate limit exceeded")
			}

			return next(c)
		}
	}
}
