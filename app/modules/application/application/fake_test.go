package applicationservice

import (
	"context"
	"fmt"
	"sync"
	"time"

	applicationdomain "github.com/Black-And-White-Club/hunting-party/app/modules/application/domain"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// memoryRepository is an in-memory applicationdb.Repository.
type memoryRepository struct {
	mu     sync.Mutex
	apps   map[uuid.UUID]*applicationdb.Application
	events map[uuid.UUID][]applicationdb.TimelineEvent
	trace  []string
}

func newMemoryRepository() *memoryRepository {
	return &memoryRepository{
		apps:   map[uuid.UUID]*applicationdb.Application{},
		events: map[uuid.UUID][]applicationdb.TimelineEvent{},
	}
}

func (m *memoryRepository) record(step string) { m.trace = append(m.trace, step) }

func (m *memoryRepository) Trace() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.trace))
	copy(out, m.trace)
	return out
}

func (m *memoryRepository) ResetTrace() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trace = nil
}

func (m *memoryRepository) CreateApplication(_ context.Context, _ bun.IDB, app *applicationdb.Application) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CreateApplication")
	cp := *app
	m.apps[app.ID] = &cp
	return nil
}

func (m *memoryRepository) owned(userID string, id uuid.UUID) (*applicationdb.Application, error) {
	app, ok := m.apps[id]
	if !ok || app.UserID != userID {
		return nil, applicationdb.ErrNotFound
	}
	cp := *app
	return &cp, nil
}

func (m *memoryRepository) GetApplication(_ context.Context, _ bun.IDB, userID string, id uuid.UUID) (*applicationdb.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetApplication")
	return m.owned(userID, id)
}

func (m *memoryRepository) LockApplication(_ context.Context, _ bun.IDB, userID string, id uuid.UUID) (*applicationdb.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("LockApplication")
	return m.owned(userID, id)
}

func (m *memoryRepository) ListApplications(_ context.Context, _ bun.IDB, userID string) ([]applicationdb.Application, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListApplications")
	var out []applicationdb.Application
	for _, app := range m.apps {
		if app.UserID == userID {
			out = append(out, *app)
		}
	}
	return out, nil
}

func (m *memoryRepository) CountApplications(_ context.Context, _ bun.IDB, userID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("CountApplications")
	n := 0
	for _, app := range m.apps {
		if app.UserID == userID {
			n++
		}
	}
	return n, nil
}

func (m *memoryRepository) UpdateDerived(_ context.Context, _ bun.IDB, id uuid.UUID, status scoringdomain.Stage, points int, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UpdateDerived")
	app, ok := m.apps[id]
	if !ok {
		return applicationdb.ErrNoRowsAffected
	}
	app.Status, app.Points, app.UpdatedAt = status, points, at
	return nil
}

func (m *memoryRepository) DeleteApplication(_ context.Context, _ bun.IDB, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteApplication")
	if _, ok := m.apps[id]; !ok {
		return applicationdb.ErrNoRowsAffected
	}
	delete(m.apps, id)
	delete(m.events, id)
	return nil
}

func (m *memoryRepository) InsertEvent(_ context.Context, _ bun.IDB, event *applicationdb.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("InsertEvent")
	m.events[event.ApplicationID] = append(m.events[event.ApplicationID], *event)
	return nil
}

func (m *memoryRepository) GetEvent(_ context.Context, _ bun.IDB, applicationID, eventID uuid.UUID) (*applicationdb.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("GetEvent")
	for _, e := range m.events[applicationID] {
		if e.ID == eventID {
			cp := e
			return &cp, nil
		}
	}
	return nil, applicationdb.ErrNotFound
}

func (m *memoryRepository) UpdateEvent(_ context.Context, _ bun.IDB, event *applicationdb.TimelineEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("UpdateEvent")
	events := m.events[event.ApplicationID]
	for i := range events {
		if events[i].ID == event.ID {
			events[i] = *event
			return nil
		}
	}
	return applicationdb.ErrNoRowsAffected
}

func (m *memoryRepository) DeleteEvent(_ context.Context, _ bun.IDB, applicationID, eventID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("DeleteEvent")
	events := m.events[applicationID]
	for i := range events {
		if events[i].ID == eventID {
			m.events[applicationID] = append(events[:i:i], events[i+1:]...)
			return nil
		}
	}
	return applicationdb.ErrNotFound
}

func (m *memoryRepository) ListEvents(_ context.Context, _ bun.IDB, applicationID uuid.UUID) ([]applicationdb.TimelineEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.record("ListEvents")
	out := make([]applicationdb.TimelineEvent, len(m.events[applicationID]))
	copy(out, m.events[applicationID])
	applicationdomain.SortForDisplay(out)
	return out, nil
}

func (m *memoryRepository) ClaimForEnrichment(context.Context, bun.IDB, int, time.Duration) ([]applicationdb.Application, error) {
	return nil, nil
}

func (m *memoryRepository) SaveEnrichment(context.Context, bun.IDB, uuid.UUID, applicationdb.EnrichmentResult) error {
	return nil
}

func (m *memoryRepository) appsOf(userID string) []applicationdb.Application {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []applicationdb.Application
	for _, app := range m.apps {
		if app.UserID == userID {
			out = append(out, *app)
		}
	}
	return out
}

var _ applicationdb.Repository = (*memoryRepository)(nil)

// memoryUsers is an in-memory ledger and streak store.
type memoryUsers struct {
	mu      sync.Mutex
	totals  map[string]int64
	streaks map[string]int
	trace   []string
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{totals: map[string]int64{}, streaks: map[string]int{}}
}

func (u *memoryUsers) Trace() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make([]string, len(u.trace))
	copy(out, u.trace)
	return out
}

func (u *memoryUsers) Total(userID string) int64 {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.totals[userID]
}

func (u *memoryUsers) ApplyDelta(_ context.Context, _ bun.IDB, change userservice.PointChange) (*userservice.LedgerResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	if change.Delta == 0 {
		return &userservice.LedgerResult{}, nil
	}
	u.trace = append(u.trace, fmt.Sprintf("ApplyDelta:%+d", change.Delta))
	total, ok := u.totals[change.UserID]
	if !ok {
		return nil, apperrors.Fault("PointsLedger.ApplyDelta", fmt.Errorf("user %s vanished", change.UserID))
	}
	total += int64(change.Delta)
	u.totals[change.UserID] = total
	return &userservice.LedgerResult{Delta: change.Delta, TotalPoints: total, Applied: true}, nil
}

func (u *memoryUsers) UpdateStreak(_ context.Context, _ bun.IDB, userID string, _ time.Time) (*userservice.StreakResult, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.trace = append(u.trace, "UpdateStreak")
	if _, ok := u.totals[userID]; !ok {
		return nil, apperrors.Fault("StreakTracker.UpdateStreak", fmt.Errorf("user %s vanished", userID))
	}
	if u.streaks[userID] == 0 {
		u.streaks[userID] = 1
	}
	return &userservice.StreakResult{CurrentStreak: u.streaks[userID], LongestStreak: u.streaks[userID]}, nil
}

func (u *memoryUsers) EnsureUser(_ context.Context, _ bun.IDB, userID, _ string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.trace = append(u.trace, "EnsureUser")
	if _, ok := u.totals[userID]; !ok {
		u.totals[userID] = 0
	}
	return nil
}

func (u *memoryUsers) UpsertProfile(context.Context, string, string) (*userservice.Profile, error) {
	return nil, nil
}

func (u *memoryUsers) GetProfile(context.Context, string) (*userservice.Profile, error) {
	return nil, nil
}

func (u *memoryUsers) PointsChart(context.Context, string) ([]byte, error) {
	return nil, nil
}

var _ userservice.Service = (*memoryUsers)(nil)

// FakePartyHooks records calls from the cascade.
type FakePartyHooks struct {
	mu    sync.Mutex
	trace []string

	RecordActivityFunc  func(ctx context.Context, db bun.IDB, input partydomain.ActivityInput) (*partydomain.ActivityEvent, error)
	DetectMilestoneFunc func(ctx context.Context, userID string, applicationCount int) (*partydomain.ActivityEvent, error)

	Notified []Notification
}

// Notification is one captured Notify call.
type Notification struct {
	UserID        string
	Activities    []*partydomain.ActivityEvent
	PointsChanged bool
}

func (f *FakePartyHooks) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakePartyHooks) RecordActivity(ctx context.Context, db bun.IDB, input partydomain.ActivityInput) (*partydomain.ActivityEvent, error) {
	f.mu.Lock()
	f.trace = append(f.trace, "RecordActivity:"+string(input.Kind))
	f.mu.Unlock()
	if f.RecordActivityFunc != nil {
		return f.RecordActivityFunc(ctx, db, input)
	}
	return nil, nil
}

func (f *FakePartyHooks) DetectMilestone(ctx context.Context, userID string, applicationCount int) (*partydomain.ActivityEvent, error) {
	f.mu.Lock()
	f.trace = append(f.trace, fmt.Sprintf("DetectMilestone:%d", applicationCount))
	f.mu.Unlock()
	if f.DetectMilestoneFunc != nil {
		return f.DetectMilestoneFunc(ctx, userID, applicationCount)
	}
	return nil, nil
}

func (f *FakePartyHooks) Notify(userID string, activities []*partydomain.ActivityEvent, pointsChanged bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, "Notify")
	f.Notified = append(f.Notified, Notification{UserID: userID, Activities: activities, PointsChanged: pointsChanged})
}

var _ PartyHooks = (*FakePartyHooks)(nil)
