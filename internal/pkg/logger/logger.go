// Package logger wraps logrus with the JSON structured-logging conventions
// used across the service: a service-name field on every entry, optional
// dual stdout+file output, and request/error helpers for the HTTP boundary.
package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
)

// AppLogger is the application's structured logger.
type AppLogger struct {
	*logrus.Logger
	service  string
	filePath string
	file     *os.File
}

// Config holds logger configuration.
type Config struct {
	Level    string
	FilePath string
	Service  string
}

// New creates a new application logger.
func New(config Config) (*AppLogger, error) {
	l := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	service := config.Service
	if service == "" {
		service = "wingmand"
	}

	appLogger := &AppLogger{Logger: l, service: service}

	if config.FilePath != "" {
		if err := appLogger.setupFileOutput(config.FilePath); err != nil {
			return nil, fmt.Errorf("failed to setup file output: %w", err)
		}
	}

	return appLogger, nil
}

func (al *AppLogger) setupFileOutput(filePath string) error {
	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}

	file, err := os.OpenFile(filePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}

	al.filePath = filePath
	al.file = file
	al.Logger.SetOutput(io.MultiWriter(os.Stdout, file))

	return nil
}

// Close closes the log file, if one is open.
func (al *AppLogger) Close() error {
	if al.file != nil {
		return al.file.Close()
	}
	return nil
}

// WithFields adds custom fields to a log entry, always including the
// service name.
func (al *AppLogger) WithFields(fields logrus.Fields) *logrus.Entry {
	if fields == nil {
		fields = logrus.Fields{}
	}
	fields["service"] = al.service
	return al.Logger.WithFields(fields)
}

// WithError adds an error field to a log entry.
func (al *AppLogger) WithError(err error) *logrus.Entry {
	return al.WithFields(logrus.Fields{}).WithError(err)
}

// WithRequestContext adds request correlation fields to a log entry.
func (al *AppLogger) WithRequestContext(requestID, userID, method, path string) *logrus.Entry {
	return al.WithFields(logrus.Fields{
		"request_id": requestID,
		"user_id":    userID,
		"method":     method,
		"path":       path,
	})
}

// LogHTTPRequest logs a completed HTTP request with its outcome.
func (al *AppLogger) LogHTTPRequest(method, path, clientIP, userID, requestID string, statusCode int, latency time.Duration, err error) {
	entry := al.WithFields(logrus.Fields{
		"status":     statusCode,
		"latency_ms": latency.Milliseconds(),
		"client_ip":  clientIP,
		"method":     method,
		"path":       path,
		"user_id":    userID,
		"request_id": requestID,
	})

	switch {
	case statusCode >= 500:
		if err != nil {
			entry.WithError(err).Error("server error")
		} else {
			entry.Error("server error")
		}
	case statusCode >= 400:
		if err != nil {
			entry.WithError(err).Warn("client error")
		} else {
			entry.Warn("client error")
		}
	default:
		entry.Info("request processed")
	}
}
