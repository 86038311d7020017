// Package session implements scheduling and confirmation of wingman
// sessions, grounded on
// original_source/tests/backend/test_session_creation.py (the precondition
// order enforced by POST /api/session/create: match must exist and be
// accepted, both challenges must exist, only one active session per match,
// scheduled time must be in the future) and
// original_source/src/services/reputation_service.py's confirmation-flag
// reads for the completion transition. Structured the way the teacher
// structures a usecase: a thin struct over the stores it needs plus a
// collaborator for notifications.
package session

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/wingmanmatch/wingman/internal/pkg/apperr"
	"github.com/wingmanmatch/wingman/internal/pkg/collab"
	"github.com/wingmanmatch/wingman/internal/pkg/converter"
	"github.com/wingmanmatch/wingman/internal/pkg/models"
	"github.com/wingmanmatch/wingman/internal/store"
)

// ReputationInvalidator is the narrow slice of internal/reputation.Service
// the session lifecycle needs: clearing both participants' cached
// reputation entries from within the same call that commits a completion
// transition (spec §4.7, §5).
type ReputationInvalidator interface {
	Invalidate(ctx context.Context, userIDs ...string)
}

// Service schedules and manages wingman sessions.
type Service struct {
	sessions   *store.SessionStore
	matches    *store.MatchStore
	challenges *store.ChallengeStore
	profiles   *store.ProfileStore
	chat       *store.ChatStore
	mailer     collab.EmailSender
	reputation ReputationInvalidator
	logger     *logrus.Entry
}

func NewService(sessions *store.SessionStore, matches *store.MatchStore, challenges *store.ChallengeStore, profiles *store.ProfileStore, chat *store.ChatStore, mailer collab.EmailSender, reputation ReputationInvalidator, logger *logrus.Entry) *Service {
	return &Service{sessions: sessions, matches: matches, challenges: challenges, profiles: profiles, chat: chat, mailer: mailer, reputation: reputation, logger: logger}
}

// ReputationPreview mirrors get_session's `{user1_delta, user2_delta}` shape:
// the points each participant's assigned challenge is worth if the session
// completes (spec §4.6).
type ReputationPreview struct {
	User1Delta int
	User2Delta int
}

// Detail is get_session's full response shape: the session itself, its
// match, the two participants' display names, their assigned challenges,
// and the reputation_preview derived from those challenges' points (spec
// §4.6).
type Detail struct {
	Session           *models.WingmanSession
	Match             *models.WingmanMatch
	User1Name         string
	User2Name         string
	User1Challenge    *models.ApproachChallenge
	User2Challenge    *models.ApproachChallenge
	ReputationPreview ReputationPreview
}

// CreateInput mirrors the POST /api/session/create request body.
type CreateInput struct {
	MatchID           string
	VenueName         string
	ScheduledTime     time.Time
	User1ChallengeID  string
	User2ChallengeID  string
	RequestingUserID  string
}

// Create schedules a new session for an accepted match, enforcing the
// preconditions in the same order the original endpoint does: match
// exists and is accepted, both challenges exist, no other active session
// already exists for the match, and the scheduled time is in the future.
func (s *Service) Create(ctx context.Context, in CreateInput) (*models.WingmanSession, error) {
	m, err := s.matches.GetByID(ctx, in.MatchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(in.RequestingUserID) {
		return nil, apperr.Forbidden("user is not a participant in this match")
	}
	if m.Status != models.MatchStatusAccepted {
		return nil, apperr.Validation("match status must be 'accepted', current: " + m.Status)
	}

	if _, err := s.challenges.GetByID(ctx, in.User1ChallengeID); err != nil {
		return nil, apperr.Validation("one or both challenge IDs are invalid")
	}
	if _, err := s.challenges.GetByID(ctx, in.User2ChallengeID); err != nil {
		return nil, apperr.Validation("one or both challenge IDs are invalid")
	}

	existing, err := s.sessions.ListForMatch(ctx, in.MatchID)
	if err != nil {
		return nil, err
	}
	for _, sess := range existing {
		if sess.Status == models.SessionStatusScheduled || sess.Status == models.SessionStatusInProgress {
			return nil, apperr.Conflict("match already has an active session")
		}
	}

	if !in.ScheduledTime.After(time.Now()) {
		return nil, apperr.Validation("scheduled time must be in the future")
	}

	sess := &models.WingmanSession{
		ID:               uuid.New().String(),
		MatchID:          in.MatchID,
		User1ChallengeID: in.User1ChallengeID,
		User2ChallengeID: in.User2ChallengeID,
		VenueName:        in.VenueName,
		ScheduledTime:    in.ScheduledTime,
		Status:           models.SessionStatusScheduled,
	}

	if err := s.sessions.Create(ctx, sess); err != nil {
		return nil, err
	}

	s.postSystemMessage(ctx, m.ID, "A wingman session has been scheduled at "+in.VenueName+".")
	s.notifyScheduled(ctx, m, sess)

	return sess, nil
}

// Get returns get_session's full joined response: the session, its match,
// both participants' display names, their assigned challenges, and the
// reputation_preview those challenges imply (spec §4.6). The caller must be
// a participant of the session's match.
func (s *Service) Get(ctx context.Context, sessionID, callerID string) (*Detail, error) {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	m, err := s.matches.GetByID(ctx, sess.MatchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(callerID) {
		return nil, apperr.Forbidden("user is not a participant in this session's match")
	}

	user1, err := s.profiles.GetByID(ctx, m.User1ID)
	if err != nil {
		return nil, err
	}
	user2, err := s.profiles.GetByID(ctx, m.User2ID)
	if err != nil {
		return nil, err
	}
	challenge1, err := s.challenges.GetByID(ctx, sess.User1ChallengeID)
	if err != nil {
		return nil, err
	}
	challenge2, err := s.challenges.GetByID(ctx, sess.User2ChallengeID)
	if err != nil {
		return nil, err
	}

	return &Detail{
		Session:        sess,
		Match:          m,
		User1Name:      user1.DisplayName,
		User2Name:      user2.DisplayName,
		User1Challenge: challenge1,
		User2Challenge: challenge2,
		ReputationPreview: ReputationPreview{
			User1Delta: challenge1.Points,
			User2Delta: challenge2.Points,
		},
	}, nil
}

// ConfirmBuddyCompletion and ConfirmSessionCompletion are separate spec
// endpoints that write the same underlying flag pair (resolved open
// question, see DESIGN.md): whichever user calls either endpoint is
// confirming that their *counterpart* attended. Both funnel into confirm.
//
// ConfirmBuddyCompletion additionally validates that buddyID names the
// caller's actual counterpart in the match, per the endpoint's explicit
// {buddy_user_id} request field (spec §4.6: "caller and buddy must both be
// participants ... buddy != caller").
func (s *Service) ConfirmBuddyCompletion(ctx context.Context, sessionID, callerID, buddyID string) (*models.WingmanSession, error) {
	if buddyID == callerID {
		return nil, apperr.Validation("buddy_user_id must not equal the caller")
	}
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	m, err := s.matches.GetByID(ctx, sess.MatchID)
	if err != nil {
		return nil, err
	}
	if m.OtherParticipant(callerID) != buddyID {
		return nil, apperr.Forbidden("buddy_user_id is not the caller's counterpart in this session's match")
	}
	return s.confirm(ctx, sessionID, callerID)
}

// ConfirmSessionCompletion is the self-service shorthand: the caller
// confirms their own counterpart's attendance without naming them
// explicitly (spec §4.6).
func (s *Service) ConfirmSessionCompletion(ctx context.Context, sessionID, callerID string) (*models.WingmanSession, error) {
	return s.confirm(ctx, sessionID, callerID)
}

// confirm records that callerID is vouching for their counterpart's
// attendance, and atomically transitions the session to completed once
// both confirmation flags are set (spec §4.6). Confirmations may only be
// recorded at or after scheduled_time; an already-completed session is an
// idempotent no-op that returns the current state (spec §7).
func (s *Service) confirm(ctx context.Context, sessionID, callerID string) (*models.WingmanSession, error) {
	tx, err := s.sessions.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	sess, err := s.sessions.GetForUpdate(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}

	m, err := s.matches.GetByID(ctx, sess.MatchID)
	if err != nil {
		return nil, err
	}
	if !m.IsParticipant(callerID) {
		return nil, apperr.Forbidden("user is not a participant in this session's match")
	}
	if sess.Status == models.SessionStatusCompleted {
		return sess, nil
	}
	if time.Now().Before(sess.ScheduledTime) {
		return nil, apperr.TooEarly("completion cannot be confirmed before the scheduled time")
	}

	// callerID confirms the *other* participant's attendance: if the caller
	// is user1, they set user2's confirmation flag, and vice versa.
	confirmingUser1Flag := callerID == m.User2ID
	if err := s.sessions.SetConfirmationFlag(ctx, tx, sessionID, confirmingUser1Flag, true); err != nil {
		return nil, err
	}
	if confirmingUser1Flag {
		sess.User1CompletedConfirmedByUser2 = true
	} else {
		sess.User2CompletedConfirmedByUser1 = true
	}

	completed, err := s.sessions.CompleteIfBothConfirmed(ctx, tx, sessionID)
	if err != nil {
		return nil, err
	}
	if completed {
		sess.Status = models.SessionStatusCompleted
		now := time.Now()
		sess.CompletedAt = &now

		// Mirror the transition into the match row's diagnostic reputation
		// counters, atomically with the flag write and status flip (spec
		// §5, §9 open question b).
		if err := s.matches.IncrementReputation(ctx, tx, m.ID, 1, 1); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, apperr.Internal("failed to commit confirmation", err)
	}

	if completed {
		s.postSystemMessage(ctx, m.ID, "Both wingmen confirmed the session is complete.")
		s.reputation.Invalidate(ctx, m.User1ID, m.User2ID)
	}

	return sess, nil
}

// UpdateNotes overwrites a session's freeform notes, restricted to participants.
func (s *Service) UpdateNotes(ctx context.Context, sessionID, callerID, notes string) error {
	sess, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		return err
	}
	if err := s.requireParticipant(ctx, sess.MatchID, callerID); err != nil {
		return err
	}
	return s.sessions.UpdateNotes(ctx, sessionID, converter.SanitizeText(notes))
}

func (s *Service) requireParticipant(ctx context.Context, matchID, userID string) error {
	m, err := s.matches.GetByID(ctx, matchID)
	if err != nil {
		return err
	}
	if !m.IsParticipant(userID) {
		return apperr.Forbidden("user is not a participant in this match")
	}
	return nil
}

func (s *Service) postSystemMessage(ctx context.Context, matchID, body string) {
	msg := &models.ChatMessage{ID: uuid.New().String(), MatchID: matchID, SenderID: models.SystemSenderID, Message: body}
	if err := s.chat.Insert(ctx, msg); err != nil {
		s.logger.WithError(err).Warn("failed to post system chat message")
	}
}

func (s *Service) notifyScheduled(ctx context.Context, m *models.WingmanMatch, sess *models.WingmanSession) {
	data := map[string]interface{}{"venue_name": sess.VenueName, "scheduled_time": sess.ScheduledTime}
	for _, uid := range []string{m.User1ID, m.User2ID} {
		if err := s.mailer.Send(ctx, uid, "wingman_session_scheduled", data); err != nil {
			s.logger.WithError(err).WithField("user_id", uid).Warn("failed to send session scheduled notification")
		}
	}
}
