package middleware

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/pkg/logger"
)

const requestIDHeader = "X-Request-ID"

// RequestID attaches a request id to every request, reusing an inbound
// header value if present.
func RequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			requestID := c.Request().Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			c.Response().Header().Set(requestIDHeader, requestID)
			c.Set("request_id", requestID)
			return next(c)
		}
	}
}

// RequestLogger logs every completed request through the AppLogger,
// generalizing the teacher's gin-based LoggerMiddleware to echo.
func RequestLogger(appLogger *logger.AppLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			latency := time.Since(start)

			requestID, _ := c.Get("request_id").(string)
			userID := CallerID(c)
			if userID == "" {
				userID = "anonymous"
			}

			appLogger.LogHTTPRequest(
				c.Request().Method,
				c.Request().URL.Path,
				c.RealIP(),
				userID,
				requestID,
				c.Response().Status,
				latency,
				err,
			)

			return err
		}
	}
}
