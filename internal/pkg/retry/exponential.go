// Package retry implements exponential backoff for the best-effort
// collaborator calls (email send) that must never block the HTTP response
// beyond a short deadline.
package retry

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryableFunc represents a function that can be retried.
type RetryableFunc func(ctx context.Context) error

// Config holds retry configuration.
type Config struct {
	MaxRetries    int
	BaseDelay     time.Duration
	MaxDelay      time.Duration
	Multiplier    float64
	Jitter        bool
	RetryableFunc func(error) bool
}

// DefaultConfig returns a default retry configuration: 3 retries after the
// first attempt (4 attempts in all), 100ms base delay doubling up to 30s,
// with jitter.
func DefaultConfig() Config {
	return Config{
		MaxRetries: 3,
		BaseDelay:  100 * time.Millisecond,
		MaxDelay:   30 * time.Second,
		Multiplier: 2.0,
		Jitter:     true,
		RetryableFunc: func(err error) bool {
			return true
		},
	}
}

// Retrier handles retry logic with exponential backoff.
type Retrier struct {
	config Config
	logger *logrus.Entry
}

// New creates a new retrier with the given configuration.
func New(config Config, l *logrus.Entry) *Retrier {
	return &Retrier{config: config, logger: l}
}

// NewWithDefaults creates a new retrier with default configuration.
func NewWithDefaults(l *logrus.Entry) *Retrier {
	return New(DefaultConfig(), l)
}

// Execute runs fn, retrying with exponential backoff until it succeeds, a
// non-retryable error is returned, the retry budget is exhausted, or ctx is
// cancelled.
func (r *Retrier) Execute(ctx context.Context, fn RetryableFunc) error {
	var lastErr error

	for attempt := 0; attempt <= r.config.MaxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.WithField("attempt", attempt+1).Info("function succeeded after retries")
			}
			return nil
		}

		lastErr = err

		if !r.config.RetryableFunc(err) {
			r.logger.WithError(err).WithField("attempt", attempt+1).Debug("error is not retryable, stopping")
			return err
		}

		if attempt == r.config.MaxRetries {
			break
		}

		delay := r.calculateDelay(attempt)
		r.logger.WithError(err).WithFields(logrus.Fields{
			"attempt":     attempt + 1,
			"delay":       delay.String(),
			"max_retries": r.config.MaxRetries,
		}).Debug("function failed, retrying")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
	}

	r.logger.WithError(lastErr).WithField("total_attempts", r.config.MaxRetries+1).Error("function failed after all retries")
	return fmt.Errorf("retry limit exceeded after %d attempts: %w", r.config.MaxRetries+1, lastErr)
}

func (r *Retrier) calculateDelay(attempt int) time.Duration {
	delay := float64(r.config.BaseDelay) * math.Pow(r.config.Multiplier, float64(attempt))
	if delay > float64(r.config.MaxDelay) {
		delay = float64(r.config.MaxDelay)
	}
	if r.config.Jitter {
		delay += delay * 0.1 * rand.Float64()
	}
	return time.Duration(delay)
}
