// Package api is the HTTP boundary: echo handlers that validate input,
// extract the caller id set by internal/pkg/middleware.Auth, dispatch to a
// core component, and map its typed apperr.Error back to the wire shapes of
// spec §6/§7. Structured the way the teacher's services/*/handler/http
// packages are structured — a thin handler struct per resource wrapping the
// component it calls, registered onto an echo.Group — generalized from one
// usecase per handler to one core service per handler.
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
)

// errorBody is the JSON shape returned for every non-2xx response, tagging
// the stable error kind alongside a human message (spec §7).
type errorBody struct {
	Error             string  `json:"error"`
	Message           string  `json:"message"`
	RetryAfterSeconds float64 `json:"retry_after_seconds,omitempty"`
}

// respondError maps err to an HTTP status and body via its apperr.Kind,
// the single switch internal/pkg/apperr.Error promises every caller.
func respondError(c echo.Context, err error) error {
	ae := apperr.Wrap(err)
	status := statusForKind(ae.Kind)
	return c.JSON(status, errorBody{
		Error:             string(ae.Kind),
		Message:           ae.Message,
		RetryAfterSeconds: ae.RetryAfterSeconds,
	})
}

func statusForKind(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthenticated:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindRateLimited:
		return http.StatusTooManyRequests
	case apperr.KindTooEarly:
		return http.StatusUnprocessableEntity
	case apperr.KindDependencyUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// bindJSON binds and reports a validation apperr on failure, so the handler
// body never needs its own bind-error branch.
func bindJSON(c echo.Context, v interface{}) error {
	if err := c.Bind(v); err != nil {
		return apperr.Validation("invalid request body: " + err.Error())
	}
	return nil
}
