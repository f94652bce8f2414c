package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yamenzk/ptrainer/internal/models"
	"github.com/yamenzk/ptrainer/internal/wizard"
	"go.uber.org/zap"
)

type clientSource interface {
	Client(clientID string) (*models.ClientProfile, bool)
	Refresh(ctx context.Context, clientID string) (*models.MembershipSnapshot, error)
}

type submissionRecorder interface {
	Create(ctx context.Context, submission *models.WizardSubmission) error
	ListByClient(ctx context.Context, clientID string, limit int) ([]models.WizardSubmission, error)
}

const (
	defaultSubmissionLimit = 20
	maxSubmissionLimit     = 100
)

// WizardService keeps at most one active wizard session per client and routes
// the final submission of each session to the trainer backend.
type WizardService struct {
	profiles    clientSource
	backend     TrainerBackend
	submissions submissionRecorder
	notifier    Notifier
	settleDelay time.Duration
	logger      *zap.Logger

	// openMu serializes the replace-or-reject decision of Open with the
	// insert, so a client never ends up with two live sessions.
	openMu   sync.Mutex
	mu       sync.RWMutex
	sessions map[string]*wizard.Session
	active   map[string]string
}

func NewWizardService(
	profiles clientSource,
	backend TrainerBackend,
	submissions submissionRecorder,
	notifier Notifier,
	settleDelay time.Duration,
	logger *zap.Logger,
) *WizardService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WizardService{
		profiles:    profiles,
		backend:     backend,
		submissions: submissions,
		notifier:    notifier,
		settleDelay: settleDelay,
		logger:      logger,
		sessions:    make(map[string]*wizard.Session),
		active:      make(map[string]string),
	}
}

// Open starts a wizard for the client. An open onboarding wizard is returned
// as-is when onboarding is requested again and blocks every other mode; any
// other open wizard is dismissed and replaced.
func (s *WizardService) Open(ctx context.Context, clientID string, mode wizard.Mode, exercise *wizard.ExerciseContext) (wizard.SessionView, error) {
	view, _, err := s.open(ctx, clientID, mode, exercise, false)
	return view, err
}

// EnsureOpen opens mode unless the client already has a wizard in front of
// them. Onboarding still takes over a dismissible wizard.
func (s *WizardService) EnsureOpen(ctx context.Context, clientID string, mode wizard.Mode) (wizard.SessionView, bool, error) {
	return s.open(ctx, clientID, mode, nil, true)
}

func (s *WizardService) open(ctx context.Context, clientID string, mode wizard.Mode, exercise *wizard.ExerciseContext, keepExisting bool) (wizard.SessionView, bool, error) {
	parsed, err := wizard.ParseMode(string(mode))
	if err != nil {
		return wizard.SessionView{}, false, err
	}
	client, err := s.clientFor(ctx, clientID)
	if err != nil {
		return wizard.SessionView{}, false, err
	}
	if parsed == wizard.ModePreferences && !client.PreferencesUnlocked() {
		return wizard.SessionView{}, false, ErrPreferencesLocked
	}

	s.openMu.Lock()
	defer s.openMu.Unlock()

	if existing := s.activeSession(clientID); existing != nil {
		view := existing.Snapshot()
		if keepExisting && (parsed != wizard.ModeOnboarding || view.Mode == wizard.ModeOnboarding) {
			return view, false, nil
		}
		switch {
		case view.Submitting:
			return wizard.SessionView{}, false, wizard.ErrSubmissionInFlight
		case view.Mode == wizard.ModeOnboarding && parsed == wizard.ModeOnboarding:
			return view, false, nil
		case view.Mode == wizard.ModeOnboarding:
			return wizard.SessionView{}, false, ErrOnboardingPending
		}
		if view.Status == wizard.StatusActive {
			if err := existing.Close(); err != nil && !errors.Is(err, wizard.ErrSessionClosed) {
				return wizard.SessionView{}, false, err
			}
		}
	}

	session, err := wizard.Open(wizard.OpenParams{
		Mode:        parsed,
		Exercise:    exercise,
		Client:      client,
		Submitter:   wizard.SubmitterFunc(s.submit),
		SettleDelay: s.settleDelay,
		OnClosed:    s.release,
	})
	if err != nil {
		return wizard.SessionView{}, false, err
	}

	s.mu.Lock()
	s.sessions[session.ID()] = session
	s.active[clientID] = session.ID()
	s.mu.Unlock()

	s.logger.Info("wizard opened",
		zap.String("client_id", clientID),
		zap.String("session_id", session.ID()),
		zap.String("mode", string(parsed)),
	)
	return session.Snapshot(), true, nil
}

func (s *WizardService) Get(clientID, sessionID string) (wizard.SessionView, error) {
	session, err := s.sessionFor(clientID, sessionID)
	if err != nil {
		return wizard.SessionView{}, err
	}
	return session.Snapshot(), nil
}

func (s *WizardService) Active(clientID string) (wizard.SessionView, bool) {
	session := s.activeSession(clientID)
	if session == nil {
		return wizard.SessionView{}, false
	}
	return session.Snapshot(), true
}

// Answer stores a raw widget value. Invalid answers are reported both as the
// returned error and in the view's errors map.
func (s *WizardService) Answer(clientID, sessionID string, field wizard.Field, raw json.RawMessage) (wizard.SessionView, error) {
	session, err := s.sessionFor(clientID, sessionID)
	if err != nil {
		return wizard.SessionView{}, err
	}
	err = session.SetRawAnswer(field, raw)
	return session.Snapshot(), err
}

func (s *WizardService) Advance(ctx context.Context, clientID, sessionID string) (wizard.SessionView, wizard.Outcome, error) {
	session, err := s.sessionFor(clientID, sessionID)
	if err != nil {
		return wizard.SessionView{}, wizard.OutcomeNone, err
	}

	outcome, err := session.Advance(ctx)
	view := session.Snapshot()
	if err != nil {
		var submitErr *wizard.SubmissionError
		switch {
		case errors.Is(err, wizard.ErrStepIncomplete):
			s.notifier.Publish(clientID, noticeEvent(LevelWarning, wizard.NoticeStepIncomplete))
		case errors.As(err, &submitErr):
			s.notifier.Publish(clientID, noticeEvent(LevelError, wizard.NoticeSubmitFailed))
		}
		return view, outcome, err
	}
	if outcome == wizard.OutcomeSubmitted {
		s.notifier.Publish(clientID, noticeEvent(LevelSuccess, wizard.NoticeSubmitted))
	}
	return view, outcome, nil
}

func (s *WizardService) Retreat(clientID, sessionID string) (wizard.SessionView, error) {
	session, err := s.sessionFor(clientID, sessionID)
	if err != nil {
		return wizard.SessionView{}, err
	}
	if err := session.Retreat(); err != nil {
		return session.Snapshot(), err
	}
	return session.Snapshot(), nil
}

func (s *WizardService) Close(clientID, sessionID string) error {
	session, err := s.sessionFor(clientID, sessionID)
	if err != nil {
		return err
	}
	return session.Close()
}

// Submissions lists the client's audit trail, newest first.
func (s *WizardService) Submissions(ctx context.Context, clientID string, limit int) ([]models.WizardSubmission, error) {
	if s.submissions == nil {
		return []models.WizardSubmission{}, nil
	}
	if limit <= 0 {
		limit = defaultSubmissionLimit
	}
	if limit > maxSubmissionLimit {
		limit = maxSubmissionLimit
	}
	return s.submissions.ListByClient(ctx, clientID, limit)
}

// submit sends the encoded update, records it and refreshes the client's
// snapshot so the dashboard reflects the change.
func (s *WizardService) submit(ctx context.Context, submission wizard.Submission) error {
	err := s.backend.UpdateClient(ctx, submission.Params)
	s.record(ctx, submission, err)
	if err != nil {
		s.logger.Warn("wizard submission failed",
			zap.String("client_id", submission.ClientID),
			zap.String("session_id", submission.SessionID),
			zap.Error(err),
		)
		return fmt.Errorf("update client %s: %w", submission.ClientID, err)
	}

	s.logger.Info("wizard submitted",
		zap.String("client_id", submission.ClientID),
		zap.String("session_id", submission.SessionID),
		zap.String("mode", string(submission.Mode)),
	)
	if _, err := s.profiles.Refresh(ctx, submission.ClientID); err != nil {
		s.logger.Warn("refresh after submission", zap.String("client_id", submission.ClientID), zap.Error(err))
	}
	return nil
}

func (s *WizardService) record(ctx context.Context, submission wizard.Submission, submitErr error) {
	if s.submissions == nil {
		return
	}
	entry := &models.WizardSubmission{
		ID:        uuid.NewString(),
		ClientID:  submission.ClientID,
		SessionID: submission.SessionID,
		Mode:      string(submission.Mode),
		Params:    map[string][]string(submission.Params),
		Status:    models.SubmissionSucceeded,
		CreatedAt: time.Now().UTC(),
	}
	if submitErr != nil {
		message := submitErr.Error()
		entry.Status = models.SubmissionFailed
		entry.Error = &message
	}
	if err := s.submissions.Create(ctx, entry); err != nil {
		s.logger.Warn("record wizard submission", zap.String("session_id", submission.SessionID), zap.Error(err))
	}
}

func (s *WizardService) release(session *wizard.Session) {
	clientID := session.ClientID()

	s.mu.Lock()
	delete(s.sessions, session.ID())
	if s.active[clientID] == session.ID() {
		delete(s.active, clientID)
	}
	s.mu.Unlock()

	s.notifier.Publish(clientID, sessionEvent(EventWizardClosed, session.Snapshot()))
}

func (s *WizardService) clientFor(ctx context.Context, clientID string) (*models.ClientProfile, error) {
	if client, ok := s.profiles.Client(clientID); ok {
		return client, nil
	}
	snapshot, err := s.profiles.Refresh(ctx, clientID)
	if err != nil {
		return nil, err
	}
	client := snapshot.Client
	return &client, nil
}

func (s *WizardService) activeSession(clientID string) *wizard.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.active[clientID]
	if !ok {
		return nil
	}
	return s.sessions[id]
}

func (s *WizardService) sessionFor(clientID, sessionID string) (*wizard.Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[sessionID]
	s.mu.RUnlock()
	if !ok || session.ClientID() != clientID {
		return nil, ErrSessionNotFound
	}
	return session, nil
}
