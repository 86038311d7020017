// Package collab defines the narrow interfaces through which the core
// consumes the collaborators declared out of scope by spec §1: the AI
// coaching dialog, transactional email delivery, and profile photo storage.
// Auth tokens have no interface here; bearer tokens are decoded by
// internal/pkg/middleware.Auth. The core depends only on these interfaces so it
// never branches on "is this feature built yet" — each has a best-effort
// default implementation that logs and, where useful, publishes to NSQ for
// an external worker to eventually pick up.
package collab

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/pkg/nsq"
	"github.com/wingmanmatch/wingman/internal/pkg/retry"
)

// CoachDialog produces the AI coach's next turn of dialog. The real
// model-router/memory-compressor stack is external; the default
// implementation here returns a canned prompt.
type CoachDialog interface {
	NextTurn(ctx context.Context, userID string, sessionState string) (string, error)
}

// PhotoStore issues signed upload URLs for profile photos. Object storage
// itself is external; the default implementation returns a deterministic
// placeholder.
type PhotoStore interface {
	SignUploadURL(ctx context.Context, userID string) (string, error)
}

// EmailSender delivers transactional email, best-effort and async: a
// failure here never rolls back or blocks the authoritative DB write that
// preceded it (spec §5).
type EmailSender interface {
	Send(ctx context.Context, to, template string, data map[string]interface{}) error
}

// DefaultCoachDialog returns a fixed prompt per session state, standing in
// for the external model-router.
type DefaultCoachDialog struct{}

func (DefaultCoachDialog) NextTurn(ctx context.Context, userID string, sessionState string) (string, error) {
	return fmt.Sprintf("Let's talk about your next step, %s. What felt hardest about %s?", userID, sessionState), nil
}

// DefaultPhotoStore returns a deterministic placeholder URL instead of
// signing a real object-storage upload URL.
type DefaultPhotoStore struct {
	BaseURL string
}

func (p DefaultPhotoStore) SignUploadURL(ctx context.Context, userID string) (string, error) {
	base := p.BaseURL
	if base == "" {
		base = "https://storage.wingmanmatch.local/uploads"
	}
	return fmt.Sprintf("%s/%s/photo", base, userID), nil
}

// NSQEmailSender logs the notification and publishes it to NSQ for an
// external worker, matching spec §4.5/§4.6's "best-effort, async" wording
// and the teacher's services/match/usecase.sendMatchNotification pattern.
type NSQEmailSender struct {
	producer *nsq.Producer
	topic    string
	logger   *logrus.Entry
	retrier  *retry.Retrier
}

// NewNSQEmailSender creates an EmailSender that publishes to topic via
// producer. producer may be nil (e.g. NSQ unavailable at startup), in which
// case Send only logs. Publish attempts are retried with backoff since a
// momentarily unreachable nsqd should not drop a notification outright.
func NewNSQEmailSender(producer *nsq.Producer, topic string, logger *logrus.Entry) *NSQEmailSender {
	return &NSQEmailSender{producer: producer, topic: topic, logger: logger, retrier: retry.NewWithDefaults(logger)}
}

type emailNotification struct {
	To       string                 `json:"to"`
	Template string                 `json:"template"`
	Data     map[string]interface{} `json:"data"`
}

func (s *NSQEmailSender) Send(ctx context.Context, to, template string, data map[string]interface{}) error {
	s.logger.WithFields(logrus.Fields{
		"to":       to,
		"template": template,
	}).Info("enqueueing email notification")

	if s.producer == nil {
		s.logger.Warn("NSQ producer unavailable, email notification logged only")
		return nil
	}

	msg := emailNotification{To: to, Template: template, Data: data}
	if err := s.retrier.Execute(ctx, func(ctx context.Context) error {
		return s.producer.Publish(s.topic, msg)
	}); err != nil {
		s.logger.WithError(err).Warn("failed to publish email notification after retries, continuing best-effort")
		return err
	}
	return nil
}
