package middleware

import (
	"fmt"
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/pkg/logger"
)

// PanicRecovery recovers from panics in downstream handlers, logs them with
// a stack trace, and responds with a generic internal error rather than
// crashing the process (spec §7: unhandled exceptions become `internal`).
func PanicRecovery(appLogger *logger.AppLogger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			defer func() {
				if r := recover(); r != nil {
					handlePanic(c, r, appLogger)
				}
			}()
			return next(c)
		}
	}
}

func handlePanic(c echo.Context, r interface{}, appLogger *logger.AppLogger) {
	stack := string(debug.Stack())

	requestID, _ := c.Get("request_id").(string)
	userID := CallerID(c)
	if userID == "" {
		userID = "anonymous"
	}

	var caller string
	if pc, file, line, ok := runtime.Caller(3); ok {
		fn := runtime.FuncForPC(pc)
		if fn != nil {
			caller = fmt.Sprintf("%s:%d %s", file, line, fn.Name())
		} else {
			caller = fmt.Sprintf("%s:%d", file, line)
		}
	}

	appLogger.WithFields(map[string]interface{}{
		"component":  "panic_recovery",
		"panic":      fmt.Sprintf("%v", r),
		"panic_type": fmt.Sprintf("%T", r),
		"caller":     caller,
		"stack":      stack,
		"method":     c.Request().Method,
		"path":       c.Request().URL.Path,
		"client_ip":  c.RealIP(),
		"user_id":    userID,
		"request_id": requestID,
	}).Error("panic recovered during request processing")

	if !c.Response().Committed {
		resp := map[string]interface{}{
			"error":   "internal",
			"message": "an unexpected error occurred while processing your request",
		}
		if requestID != "" {
			resp["request_id"] = requestID
		}
		if err := c.JSON(http.StatusInternalServerError, resp); err != nil {
			c.String(http.StatusInternalServerError, "internal server error")
		}
	}
}
