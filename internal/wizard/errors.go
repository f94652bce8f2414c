package wizard

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownMode        = errors.New("unknown wizard mode")
	ErrNoSteps            = errors.New("no steps to collect")
	ErrUnknownField       = errors.New("field is not part of this wizard")
	ErrInvalidAnswer      = errors.New("invalid answer")
	ErrStepIncomplete     = errors.New("step incomplete")
	ErrNotDismissible     = errors.New("wizard cannot be dismissed")
	ErrSubmissionInFlight = errors.New("submission in flight")
	ErrSessionClosed      = errors.New("wizard session closed")
	ErrMissingClientID    = errors.New("client id is required")
	ErrMissingExercise    = errors.New("exercise context is required")
)

// Notices shown to the member as short-lived toasts.
const (
	NoticeStepIncomplete = "Please complete this step before continuing"
	NoticeSubmitted      = "Profile updated successfully!"
	NoticeSubmitFailed   = "Failed to update profile"
)

// SubmissionError wraps a failed final submission. The session stays on its
// last step with every answer intact so the member can retry.
type SubmissionError struct {
	SessionID string
	Err       error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submit wizard %s: %v", e.SessionID, e.Err)
}

func (e *SubmissionError) Unwrap() error {
	return e.Err
}
