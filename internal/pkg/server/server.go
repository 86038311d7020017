package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
)

// GracefulServer wraps an Echo server with graceful shutdown handling.
type GracefulServer struct {
	echo   *echo.Echo
	logger *logrus.Entry
	port   int
}

// NewGracefulServer creates a new server with graceful shutdown.
func NewGracefulServer(e *echo.Echo, logger *logrus.Entry, port int) *GracefulServer {
	return &GracefulServer{echo: e, logger: logger, port: port}
}

// Start starts the server in a goroutine and blocks until an interrupt or
// termination signal is received, then shuts the server down gracefully.
func (s *GracefulServer) Start() error {
	go func() {
		addr := fmt.Sprintf(":%d", s.port)
		s.logger.WithField("address", addr).Info("starting HTTP server")

		if err := s.echo.Start(addr); err != nil && err != http.ErrServerClosed {
			s.logger.WithError(err).Error("failed to start server")
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	sig := <-quit
	s.logger.WithField("signal", sig.String()).Info("received shutdown signal")

	return s.Shutdown()
}

// Shutdown gracefully shuts down the server with a bounded timeout.
func (s *GracefulServer) Shutdown() error {
	s.logger.Info("shutting down server gracefully")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.echo.Shutdown(ctx); err != nil {
		s.logger.WithError(err).Error("server forced to shutdown")
		return err
	}

	s.logger.Info("server shutdown completed")
	return nil
}

// ShutdownManager runs a series of registered cleanup functions on shutdown,
// continuing past individual failures so one broken dependency never blocks
// the others from releasing their resources.
type ShutdownManager struct {
	mu        sync.RWMutex
	logger    *logrus.Entry
	functions []func(context.Context) error
}

// NewShutdownManager creates a shutdown manager.
func NewShutdownManager(logger *logrus.Entry) *ShutdownManager {
	return &ShutdownManager{logger: logger, functions: make([]func(context.Context) error, 0)}
}

// Register adds a cleanup function to be invoked during shutdown.
func (sm *ShutdownManager) Register(fn func(context.Context) error) {
	if fn != nil {
		sm.mu.Lock()
		sm.functions = append(sm.functions, fn)
		sm.mu.Unlock()
	}
}

// Shutdown executes all registered cleanup functions.
func (sm *ShutdownManager) Shutdown(ctx context.Context) error {
	sm.mu.RLock()
	fns := make([]func(context.Context) error, len(sm.functions))
	copy(fns, sm.functions)
	sm.mu.RUnlock()

	sm.logger.WithField("components", len(fns)).Info("starting graceful shutdown of components")

	for i, fn := range fns {
		if fn == nil {
			continue
		}
		if err := fn(ctx); err != nil {
			sm.logger.WithField("component", i).WithError(err).Error("error during component shutdown")
		}
	}

	sm.logger.Info("all components shutdown completed")
	return nil
}
