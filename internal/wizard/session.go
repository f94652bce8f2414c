package wizard

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yamenzk/ptrainer/internal/models"
)

// DefaultSettleDelay is the grace period between a successful submission and
// the session reporting itself closed.
const DefaultSettleDelay = 800 * time.Millisecond

type Status string

const (
	StatusActive  Status = "active"
	StatusClosing Status = "closing"
	StatusClosed  Status = "closed"
)

type Outcome int

const (
	OutcomeNone Outcome = iota
	OutcomeMoved
	OutcomeSubmitted
)

// Submission is the single update request a session emits.
type Submission struct {
	SessionID string
	ClientID  string
	Mode      Mode
	Params    url.Values
}

type Submitter interface {
	Submit(ctx context.Context, submission Submission) error
}

type SubmitterFunc func(ctx context.Context, submission Submission) error

func (f SubmitterFunc) Submit(ctx context.Context, submission Submission) error {
	return f(ctx, submission)
}

type OpenParams struct {
	ID          string
	Mode        Mode
	Exercise    *ExerciseContext
	Client      *models.ClientProfile
	Submitter   Submitter
	SettleDelay time.Duration
	// OnClosed runs once the session reaches StatusClosed, either after a
	// successful submission has settled or after Close.
	OnClosed func(*Session)
	Now      func() time.Time
}

// Session is one run of the wizard. Its methods are safe for concurrent use;
// the lock is released while the final submission is in flight and the
// submitting flag keeps other transitions out meanwhile.
type Session struct {
	mu sync.Mutex

	id        string
	mode      Mode
	exercise  *ExerciseContext
	client    *models.ClientProfile
	steps     []Step
	index     int
	direction int
	form      FormState
	errors    map[Field]string

	submitting bool
	status     Status

	submitter   Submitter
	settleDelay time.Duration
	onClosed    func(*Session)
	now         func() time.Time
}

// Open resolves the steps for the requested mode and starts a session on the
// first one. An empty resolution yields ErrNoSteps and no session.
func Open(p OpenParams) (*Session, error) {
	mode, err := ParseMode(string(p.Mode))
	if err != nil {
		return nil, err
	}
	if p.Submitter == nil {
		return nil, fmt.Errorf("open %s wizard: submitter is required", mode)
	}

	steps := Resolve(mode, p.Exercise, p.Client)
	if len(steps) == 0 {
		return nil, fmt.Errorf("open %s wizard: %w", mode, ErrNoSteps)
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	now := p.Now
	if now == nil {
		now = time.Now
	}
	var exercise *ExerciseContext
	if p.Exercise != nil {
		copied := *p.Exercise
		exercise = &copied
	}

	return &Session{
		id:          id,
		mode:        mode,
		exercise:    exercise,
		client:      p.Client,
		steps:       steps,
		form:        FormState{},
		errors:      map[Field]string{},
		status:      StatusActive,
		submitter:   p.Submitter,
		settleDelay: p.SettleDelay,
		onClosed:    p.OnClosed,
		now:         now,
	}, nil
}

func (s *Session) ID() string {
	return s.id
}

func (s *Session) Mode() Mode {
	return s.mode
}

func (s *Session) ClientID() string {
	if s.client == nil {
		return ""
	}
	return s.client.Name
}

// SetAnswer stores value for field and re-validates the current step.
func (s *Session) SetAnswer(field Field, value Value) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMutableLocked(); err != nil {
		return err
	}
	if _, ok := s.stepLocked(field); !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}
	s.storeLocked(field, value)
	return nil
}

// SetRawAnswer decodes raw through the field's widget before storing it. A
// JSON null clears the answer.
func (s *Session) SetRawAnswer(field Field, raw json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMutableLocked(); err != nil {
		return err
	}
	step, ok := s.stepLocked(field)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownField, field)
	}

	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		s.storeLocked(field, nil)
		return nil
	}

	value, err := step.Decode(trimmed, s.now())
	if err != nil {
		var answerErr *AnswerError
		if errors.As(err, &answerErr) {
			s.errors[field] = answerErr.Message
		}
		return err
	}
	s.storeLocked(field, value)
	return nil
}

// Advance moves to the next step once the current one validates. On the last
// step it submits instead; a failed submission leaves the session where it
// was.
func (s *Session) Advance(ctx context.Context) (Outcome, error) {
	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return OutcomeNone, err
	}

	step := s.steps[s.index]
	if !s.validateLocked(step) {
		s.mu.Unlock()
		return OutcomeNone, fmt.Errorf("%w: %s", ErrStepIncomplete, step.Field)
	}
	if s.index < len(s.steps)-1 {
		s.direction = 1
		s.index++
		s.mu.Unlock()
		return OutcomeMoved, nil
	}

	params, err := Encode(s.client, s.mode, s.exercise, s.form)
	if err != nil {
		s.mu.Unlock()
		return OutcomeNone, &SubmissionError{SessionID: s.id, Err: err}
	}
	submission := Submission{
		SessionID: s.id,
		ClientID:  s.client.Name,
		Mode:      s.mode,
		Params:    params,
	}
	s.submitting = true
	s.mu.Unlock()

	err = s.submitter.Submit(ctx, submission)

	s.mu.Lock()
	s.submitting = false
	if err != nil {
		s.mu.Unlock()
		return OutcomeNone, &SubmissionError{SessionID: s.id, Err: err}
	}
	s.status = StatusClosing
	s.mu.Unlock()

	s.settle()
	return OutcomeSubmitted, nil
}

// Retreat steps back one screen. It never validates or submits and does
// nothing on the first step.
func (s *Session) Retreat() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkMutableLocked(); err != nil {
		return err
	}
	if s.index == 0 {
		return nil
	}
	s.direction = -1
	s.index--
	return nil
}

// Close dismisses the wizard without submitting.
func (s *Session) Close() error {
	s.mu.Lock()
	if err := s.checkMutableLocked(); err != nil {
		s.mu.Unlock()
		return err
	}
	if !IsDismissible(s.mode) {
		s.mu.Unlock()
		return ErrNotDismissible
	}
	s.status = StatusClosed
	onClosed := s.onClosed
	s.mu.Unlock()

	if onClosed != nil {
		onClosed(s)
	}
	return nil
}

func (s *Session) settle() {
	if s.settleDelay <= 0 {
		s.finish()
		return
	}
	time.AfterFunc(s.settleDelay, s.finish)
}

func (s *Session) finish() {
	s.mu.Lock()
	if s.status == StatusClosed {
		s.mu.Unlock()
		return
	}
	s.status = StatusClosed
	onClosed := s.onClosed
	s.mu.Unlock()

	if onClosed != nil {
		onClosed(s)
	}
}

func (s *Session) checkMutableLocked() error {
	if s.status != StatusActive {
		return ErrSessionClosed
	}
	if s.submitting {
		return ErrSubmissionInFlight
	}
	return nil
}

func (s *Session) stepLocked(field Field) (Step, bool) {
	for _, step := range s.steps {
		if step.Field == field {
			return step, true
		}
	}
	return Step{}, false
}

func (s *Session) storeLocked(field Field, value Value) {
	if value == nil {
		delete(s.form, field)
	} else {
		s.form[field] = value
	}
	if current := s.steps[s.index]; current.Field == field {
		s.validateLocked(current)
	}
}

func (s *Session) validateLocked(step Step) bool {
	result := Validate(step, s.form)
	if result.Valid {
		delete(s.errors, step.Field)
		return true
	}
	s.errors[step.Field] = result.Message
	return false
}

// SessionView is a point-in-time copy of a session for transport.
type SessionView struct {
	ID                     string           `json:"id"`
	ClientID               string           `json:"client_id"`
	Mode                   Mode             `json:"mode"`
	Exercise               *ExerciseContext `json:"exercise,omitempty"`
	Steps                  []Step           `json:"steps"`
	CurrentIndex           int              `json:"current_index"`
	CurrentStep            Step             `json:"current_step"`
	IsLastStep             bool             `json:"is_last_step"`
	Direction              int              `json:"direction"`
	Form                   FormState        `json:"form"`
	Errors                 map[Field]string `json:"errors"`
	Submitting             bool             `json:"submitting"`
	Status                 Status           `json:"status"`
	Dismissible            bool             `json:"dismissible"`
	BlocksBackgroundScroll bool             `json:"blocks_background_scroll"`
}

func (s *Session) Snapshot() SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()

	steps := make([]Step, len(s.steps))
	for i, step := range s.steps {
		steps[i] = step.clone()
	}
	errs := make(map[Field]string, len(s.errors))
	for field, message := range s.errors {
		errs[field] = message
	}
	var exercise *ExerciseContext
	if s.exercise != nil {
		copied := *s.exercise
		exercise = &copied
	}

	return SessionView{
		ID:                     s.id,
		ClientID:               s.ClientID(),
		Mode:                   s.mode,
		Exercise:               exercise,
		Steps:                  steps,
		CurrentIndex:           s.index,
		CurrentStep:            steps[s.index],
		IsLastStep:             s.index == len(steps)-1,
		Direction:              s.direction,
		Form:                   s.form.Clone(),
		Errors:                 errs,
		Submitting:             s.submitting,
		Status:                 s.status,
		Dismissible:            IsDismissible(s.mode),
		BlocksBackgroundScroll: s.mode == ModeOnboarding,
	}
}
