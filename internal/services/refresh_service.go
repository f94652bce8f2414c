package services

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/yamenzk/ptrainer/internal/models"
	"github.com/yamenzk/ptrainer/internal/wizard"
	"go.uber.org/zap"
)

const DefaultRefreshInterval = 60 * time.Second

type trackedProfiles interface {
	Tracked() []string
	Refresh(ctx context.Context, clientID string) (*models.MembershipSnapshot, error)
}

type wizardOpener interface {
	EnsureOpen(ctx context.Context, clientID string, mode wizard.Mode) (wizard.SessionView, bool, error)
}

// RefreshService re-fetches tracked clients on a fixed interval and opens the
// wizard a fresh snapshot calls for.
type RefreshService struct {
	profiles trackedProfiles
	wizards  wizardOpener
	notifier Notifier
	interval time.Duration
	logger   *zap.Logger

	mu           sync.RWMutex
	requirements map[string]wizard.Requirements
}

func NewRefreshService(profiles trackedProfiles, wizards wizardOpener, notifier Notifier, interval time.Duration, logger *zap.Logger) *RefreshService {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if notifier == nil {
		notifier = nopNotifier{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RefreshService{
		profiles:     profiles,
		wizards:      wizards,
		notifier:     notifier,
		interval:     interval,
		logger:       logger,
		requirements: make(map[string]wizard.Requirements),
	}
}

// Run refreshes every tracked client once per interval until ctx is done.
func (s *RefreshService) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("refresh loop started", zap.Duration("interval", s.interval))
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("refresh loop stopped")
			return nil
		case <-ticker.C:
			s.RefreshAll(ctx)
		}
	}
}

func (s *RefreshService) RefreshAll(ctx context.Context) {
	for _, clientID := range s.profiles.Tracked() {
		if ctx.Err() != nil {
			return
		}
		if _, err := s.CheckNow(ctx, clientID); err != nil {
			s.logger.Warn("periodic refresh failed", zap.String("client_id", clientID), zap.Error(err))
		}
	}
}

// CheckNow refreshes one client and evaluates its requirements. When the
// refresh fails the last known requirements are returned unchanged along
// with the error.
func (s *RefreshService) CheckNow(ctx context.Context, clientID string) (wizard.Requirements, error) {
	snapshot, err := s.profiles.Refresh(ctx, clientID)
	if err != nil {
		last, _ := s.Requirements(clientID)
		return last, err
	}

	requirements := wizard.CheckRequirements(&snapshot.Client)
	s.mu.Lock()
	s.requirements[clientID] = requirements
	s.mu.Unlock()

	mode, ok := requirements.Mode()
	if !ok {
		return requirements, nil
	}
	view, opened, err := s.wizards.EnsureOpen(ctx, clientID, mode)
	switch {
	case errors.Is(err, wizard.ErrNoSteps), errors.Is(err, wizard.ErrSubmissionInFlight):
		return requirements, nil
	case err != nil:
		s.logger.Warn("open required wizard",
			zap.String("client_id", clientID),
			zap.String("mode", string(mode)),
			zap.Error(err),
		)
		return requirements, nil
	}
	if opened {
		s.notifier.Publish(clientID, sessionEvent(EventWizardOpened, view))
	}
	return requirements, nil
}

func (s *RefreshService) Requirements(clientID string) (wizard.Requirements, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	requirements, ok := s.requirements[clientID]
	return requirements, ok
}
