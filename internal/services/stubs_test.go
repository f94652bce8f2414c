package services

import (
	"context"
	"net/url"
	"sync"

	"github.com/yamenzk/ptrainer/internal/models"
)

type stubBackend struct {
	mu          sync.Mutex
	snapshots   map[string]*models.MembershipSnapshot
	getErr      error
	updateErr   error
	updates     []url.Values
	getCalls    int
	updateGate  chan struct{}
	updateEnter chan struct{}
}

func newStubBackend() *stubBackend {
	return &stubBackend{snapshots: map[string]*models.MembershipSnapshot{}}
}

func (b *stubBackend) UpdateClient(_ context.Context, params url.Values) error {
	if b.updateEnter != nil {
		b.updateEnter <- struct{}{}
	}
	if b.updateGate != nil {
		<-b.updateGate
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, params)
	return b.updateErr
}

func (b *stubBackend) GetMembership(_ context.Context, membership string) (*models.MembershipSnapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getCalls++
	if b.getErr != nil {
		return nil, b.getErr
	}
	snapshot, ok := b.snapshots[membership]
	if !ok {
		return nil, &BackendError{Method: getMembershipMethod, Status: 404, Message: "not found"}
	}
	copied := *snapshot
	return &copied, nil
}

func (b *stubBackend) setClient(membership string, client models.ClientProfile) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.snapshots[membership] = &models.MembershipSnapshot{
		Membership: models.Membership{Name: membership, Client: client.Name, Active: 1},
		Client:     client,
	}
}

func (b *stubBackend) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getErr = err
}

func (b *stubBackend) updateCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.updates)
}

type stubSnapshotRepo struct {
	mu        sync.Mutex
	records   map[string]models.ClientSnapshotRecord
	upsertErr error
	listErr   error
}

func (r *stubSnapshotRepo) Upsert(_ context.Context, record models.ClientSnapshotRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.upsertErr != nil {
		return r.upsertErr
	}
	if r.records == nil {
		r.records = map[string]models.ClientSnapshotRecord{}
	}
	r.records[record.ClientID] = record
	return nil
}

func (r *stubSnapshotRepo) List(_ context.Context) ([]models.ClientSnapshotRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.listErr != nil {
		return nil, r.listErr
	}
	out := make([]models.ClientSnapshotRecord, 0, len(r.records))
	for _, record := range r.records {
		out = append(out, record)
	}
	return out, nil
}

type stubSubmissionRepo struct {
	mu      sync.Mutex
	created []models.WizardSubmission
}

func (r *stubSubmissionRepo) Create(_ context.Context, submission *models.WizardSubmission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.created = append(r.created, *submission)
	return nil
}

func (r *stubSubmissionRepo) ListByClient(_ context.Context, clientID string, limit int) ([]models.WizardSubmission, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := []models.WizardSubmission{}
	for i := len(r.created) - 1; i >= 0 && len(out) < limit; i-- {
		if r.created[i].ClientID == clientID {
			out = append(out, r.created[i])
		}
	}
	return out, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events map[string][]Event
}

func (n *recordingNotifier) Publish(clientID string, event Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.events == nil {
		n.events = map[string][]Event{}
	}
	n.events[clientID] = append(n.events[clientID], event)
}

func (n *recordingNotifier) of(clientID, eventType string) []Event {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []Event
	for _, event := range n.events[clientID] {
		if event.Type == eventType {
			out = append(out, event)
		}
	}
	return out
}

func completeClient(name string) models.ClientProfile {
	return models.ClientProfile{
		Name:          name,
		ClientName:    "Sam Member",
		DateOfBirth:   "1990-04-12",
		Gender:        "Male",
		Mobile:        "+971500000000",
		Nationality:   "Jordan",
		Goal:          "Weight Loss",
		TargetWeight:  75,
		Meals:         4,
		Workouts:      3,
		Equipment:     "Gym",
		ActivityLevel: "Moderate",
		Height:        180,
		CurrentWeight: 84,
	}
}
