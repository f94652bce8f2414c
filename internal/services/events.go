package services

import (
	"time"

	"github.com/yamenzk/ptrainer/internal/wizard"
)

const (
	EventNotice       = "notice"
	EventWizardOpened = "wizard_opened"
	EventWizardClosed = "wizard_closed"
)

const (
	LevelSuccess = "success"
	LevelWarning = "warning"
	LevelError   = "error"
)

// Event is pushed to a client's dashboard connections.
type Event struct {
	Type      string              `json:"type"`
	Level     string              `json:"level,omitempty"`
	Message   string              `json:"message,omitempty"`
	Session   *wizard.SessionView `json:"session,omitempty"`
	Timestamp string              `json:"timestamp"`
}

type Notifier interface {
	Publish(clientID string, event Event)
}

type nopNotifier struct{}

func (nopNotifier) Publish(string, Event) {}

func noticeEvent(level, message string) Event {
	return Event{
		Type:      EventNotice,
		Level:     level,
		Message:   message,
		Timestamp: FormatEventTimestamp(time.Now().UTC()),
	}
}

func sessionEvent(eventType string, view wizard.SessionView) Event {
	return Event{
		Type:      eventType,
		Session:   &view,
		Timestamp: FormatEventTimestamp(time.Now().UTC()),
	}
}

func FormatEventTimestamp(ts time.Time) string {
	return ts.UTC().Format(time.RFC3339)
}
