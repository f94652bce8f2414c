package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/yamenzk/ptrainer/internal/models"
	"go.uber.org/zap"
)

type snapshotRepository interface {
	Upsert(ctx context.Context, record models.ClientSnapshotRecord) error
	List(ctx context.Context) ([]models.ClientSnapshotRecord, error)
}

type profileEntry struct {
	membership  string
	snapshot    *models.MembershipSnapshot
	refreshedAt time.Time
}

// ProfileStore caches each client's latest membership snapshot. The backend
// owns the record; the store only ever replaces a snapshot wholesale, last
// writer wins.
type ProfileStore struct {
	backend TrainerBackend
	repo    snapshotRepository
	logger  *zap.Logger

	mu      sync.RWMutex
	entries map[string]*profileEntry
}

func NewProfileStore(backend TrainerBackend, repo snapshotRepository, logger *zap.Logger) *ProfileStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ProfileStore{
		backend: backend,
		repo:    repo,
		logger:  logger,
		entries: make(map[string]*profileEntry),
	}
}

// Track registers the membership used to refresh a client. Calling it again
// with a different membership replaces the old one.
func (s *ProfileStore) Track(clientID, membership string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[clientID]
	if !ok {
		s.entries[clientID] = &profileEntry{membership: membership}
		return
	}
	entry.membership = membership
}

func (s *ProfileStore) Tracked() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (s *ProfileStore) Snapshot(clientID string) (*models.MembershipSnapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entry, ok := s.entries[clientID]
	if !ok || entry.snapshot == nil {
		return nil, false
	}
	copied := *entry.snapshot
	return &copied, true
}

func (s *ProfileStore) Client(clientID string) (*models.ClientProfile, bool) {
	snapshot, ok := s.Snapshot(clientID)
	if !ok {
		return nil, false
	}
	return &snapshot.Client, true
}

// Refresh pulls a fresh snapshot from the backend. On failure the previous
// snapshot stays in place.
func (s *ProfileStore) Refresh(ctx context.Context, clientID string) (*models.MembershipSnapshot, error) {
	s.mu.RLock()
	entry, ok := s.entries[clientID]
	var membership string
	if ok {
		membership = entry.membership
	}
	s.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("refresh %s: %w", clientID, ErrClientNotTracked)
	}

	snapshot, err := s.backend.GetMembership(ctx, membership)
	if err != nil {
		return nil, fmt.Errorf("refresh %s: %w", clientID, err)
	}
	if snapshot.Client.Name != "" && snapshot.Client.Name != clientID {
		s.logger.Warn("membership belongs to another client",
			zap.String("client_id", clientID),
			zap.String("membership", membership),
			zap.String("membership_client", snapshot.Client.Name),
		)
		return nil, fmt.Errorf("refresh %s: %w", clientID, ErrForbidden)
	}
	if snapshot.Client.Name == "" {
		snapshot.Client.Name = clientID
	}

	refreshedAt := time.Now().UTC()
	s.mu.Lock()
	s.entries[clientID] = &profileEntry{membership: membership, snapshot: snapshot, refreshedAt: refreshedAt}
	s.mu.Unlock()

	if s.repo != nil {
		record := models.ClientSnapshotRecord{
			ClientID:    clientID,
			Membership:  membership,
			Snapshot:    *snapshot,
			RefreshedAt: refreshedAt,
		}
		if err := s.repo.Upsert(ctx, record); err != nil {
			s.logger.Warn("persist client snapshot", zap.String("client_id", clientID), zap.Error(err))
		}
	}

	copied := *snapshot
	return &copied, nil
}

// Warm loads persisted snapshots so tracked clients survive a restart.
func (s *ProfileStore) Warm(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	records, err := s.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("load client snapshots: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range records {
		if _, exists := s.entries[record.ClientID]; exists {
			continue
		}
		snapshot := record.Snapshot
		s.entries[record.ClientID] = &profileEntry{
			membership:  record.Membership,
			snapshot:    &snapshot,
			refreshedAt: record.RefreshedAt,
		}
	}
	s.logger.Info("client snapshots loaded", zap.Int("count", len(records)))
	return nil
}
