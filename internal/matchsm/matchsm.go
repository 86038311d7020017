// Package matchsm runs the wingman match accept/decline state machine,
// generalizing the teacher's MatchUC.AcceptMatch/RejectMatch
// (services/match/usecase/match.go) from a single driver confirming a ride
// to either participant accepting or declining a pending pairing (spec
// §4.4). A decline re-enters the matcher rather than just notifying, since
// spec §4.4 treats a declined match as "try again automatically."
package matchsm

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/matcher"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/collab"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/store"
)

// Service transitions pending matches to accepted or declined.
type Service struct {
	matches *store.MatchStore
	matcher *matcher.Service
	mailer  collab.EmailSender
	logger  *logrus.Entry
}

func NewService(matches *store.MatchStore, m *matcher.Service, mailer collab.EmailSender, logger *logrus.Entry) *Service {
	return &Service{matches: matches, matcher: m, mailer: mailer, logger: logger}
}

// Accept transitions a pending match to accepted. Either participant may
// accept; spec §4.4 does not require mutual accept — one accept commits
// the pairing. The read-check-write sequence runs against a row locked
// FOR UPDATE and the write itself is guarded by `status = pending`, so of
// two concurrent accept/decline calls on the same match only the first to
// commit wins; the second gets a conflict (spec §4.4 tie-break invariant).
func (s *Service) Accept(ctx context.Context, matchID, userID string) (*models.WingmanMatch, error) {
	return s.transition(ctx, matchID, userID, models.MatchStatusAccepted, "wingman_match_accepted")
}

// Decline transitions a pending match to declined and, best-effort, tries to
// find the declining user a new match immediately rather than leaving them
// stranded (mirroring RejectMatch's background re-match attempt). The
// rematch attempt's outcome is returned alongside the declined match so the
// HTTP boundary can surface it as the `next_match` response field (spec §6)
// without re-deriving it from a separate call.
func (s *Service) Decline(ctx context.Context, matchID, userID string, radiusMiles float64) (*models.WingmanMatch, *matcher.Result, error) {
	m, err := s.transition(ctx, matchID, userID, models.MatchStatusDeclined, "wingman_match_declined")
	if err != nil {
		return nil, nil, err
	}

	result, err := s.matcher.CreateAutomaticMatch(ctx, userID, radiusMiles)
	if err != nil {
		s.logger.WithError(err).WithField("user_id", userID).Warn("rematch attempt after decline failed")
		return m, nil, nil
	}
	if !result.Success {
		s.logger.WithFields(logrus.Fields{"user_id": userID, "reason": result.Reason}).
			Info("no immediate rematch found after decline")
		return m, nil, nil
	}

	return m, result, nil
}

// transition locks the match row, validates the caller and current status,
// and writes the new status guarded by `status = pending` within the same
// transaction, so a concurrent accept/decline on the same match can never
// both succeed (spec §4.4).
func (s *Service) transition(ctx context.Context, matchID, userID, newStatus, notifyTemplate string) (*models.WingmanMatch, error) {
	tx, err := s.matches.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	m, err := s.matches.GetForUpdate(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(userID) {
		return nil, apperr.Forbidden("user is not a participant in this match")
	}
	if m.Status != models.MatchStatusPending {
		return nil, apperr.Conflict("match is not pending")
	}

	won, err := s.matches.UpdateStatusIfPending(ctx, tx, matchID, newStatus, m.User1Reputation, m.User2Reputation)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, apperr.Conflict("match is not pending")
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("failed to commit match transition", err)
	}
	m.Status = newStatus

	s.notify(ctx, m, notifyTemplate)
	return m, nil
}

func (s *Service) notify(ctx context.Context, m *models.WingmanMatch, template string) {
	data := map[string]interface{}{"match_id": m.ID, "status": m.Status}
	for _, uid := range []string{m.User1ID, m.User2ID} {
		if err := s.mailer.Send(ctx, uid, template, data); err != nil {
			s.logger.WithError(err).WithField("user_id", uid).Warn("failed to send match status notification")
		}
	}
}
