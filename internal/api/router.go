package api

import (
	"github.com/labstack/echo/v4"
	"github.com/wingmanmatch/wingman/internal/pkg/middleware"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/pkg/ratelimit"
)

// routeRegistrar is implemented by every resource handler in this package.
type routeRegistrar interface {
	Register(g *echo.Group)
}

// RegisterRoutes mounts every resource handler onto e under /api, behind
// bearer auth and the public_api rate-limit policy (spec §4.9, §4.10),
// generalizing the teacher's Handler.RegisterRoutes (routes.go) from one
// internal API-key group to one authenticated caller-scoped group.
func RegisterRoutes(e *echo.Echo, jwtCfg models.JWTConfig, testAuth models.TestAuthConfig, limiter *ratelimit.Limiter, handlers ...routeRegistrar) {
	api := e.Group("/api",
		middleware.Auth(jwtCfg, testAuth),
		middleware.RateLimit(limiter, "public_api"),
	)

	for _, h := range handlers {
		h.Register(api)
	}
}
