package partyservice

import (
	"cmp"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	partydb "github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/repositories"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// memoryRepo is an in-memory partydb.Repository backed by a memoryUsers
// directory for standings.
type memoryRepo struct {
	mu          sync.Mutex
	users       *memoryUsers
	parties     map[uuid.UUID]*partydb.HuntingParty
	memberships []*partydb.Membership
	activity    []*partydb.Activity
	nextID      int64

	ListStandingsFunc func(ctx context.Context, partyID uuid.UUID) ([]partydomain.Standing, error)
	standingLoads     int
}

func newMemoryRepo(users *memoryUsers) *memoryRepo {
	return &memoryRepo{users: users, parties: map[uuid.UUID]*partydb.HuntingParty{}}
}

func (r *memoryRepo) CreateParty(_ context.Context, _ bun.IDB, party *partydb.HuntingParty) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.parties {
		if p.InviteCode == party.InviteCode {
			return partydb.ErrInviteCodeTaken
		}
	}
	cp := *party
	r.parties[party.ID] = &cp
	return nil
}

func (r *memoryRepo) GetParty(_ context.Context, _ bun.IDB, id uuid.UUID) (*partydb.HuntingParty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.parties[id]
	if !ok {
		return nil, partydb.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *memoryRepo) GetPartyByInviteCode(_ context.Context, _ bun.IDB, code string) (*partydb.HuntingParty, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.parties {
		if p.InviteCode == code {
			cp := *p
			return &cp, nil
		}
	}
	return nil, partydb.ErrNotFound
}

func (r *memoryRepo) activeLocked(userID string) *partydb.Membership {
	for _, m := range r.memberships {
		if m.UserID == userID && m.IsActive {
			return m
		}
	}
	return nil
}

func (r *memoryRepo) GetActiveMembership(_ context.Context, _ bun.IDB, userID string) (*partydb.Membership, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m := r.activeLocked(userID)
	if m == nil {
		return nil, partydb.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *memoryRepo) InsertMembership(_ context.Context, _ bun.IDB, membership *partydb.Membership) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.activeLocked(membership.UserID) != nil {
		return partydb.ErrAlreadyMember
	}
	r.nextID++
	membership.ID = r.nextID
	cp := *membership
	r.memberships = append(r.memberships, &cp)
	return nil
}

func (r *memoryRepo) DeactivateMembership(_ context.Context, _ bun.IDB, id int64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range r.memberships {
		if m.ID == id && m.IsActive {
			m.IsActive = false
			m.LeftAt = &at
			return nil
		}
	}
	return partydb.ErrNotFound
}

func (r *memoryRepo) CountActiveMembers(_ context.Context, _ bun.IDB, partyID uuid.UUID) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, m := range r.memberships {
		if m.PartyID == partyID && m.IsActive {
			n++
		}
	}
	return n, nil
}

func (r *memoryRepo) ListStandings(ctx context.Context, _ bun.IDB, partyID uuid.UUID) ([]partydomain.Standing, error) {
	r.mu.Lock()
	r.standingLoads++
	fn := r.ListStandingsFunc
	var members []partydb.Membership
	for _, m := range r.memberships {
		if m.PartyID == partyID && m.IsActive {
			members = append(members, *m)
		}
	}
	r.mu.Unlock()

	if fn != nil {
		return fn(ctx, partyID)
	}
	standings := make([]partydomain.Standing, 0, len(members))
	for _, m := range members {
		name, total, streak := r.users.Lookup(m.UserID)
		standings = append(standings, partydomain.Standing{
			UserID:        m.UserID,
			DisplayName:   name,
			TotalPoints:   total,
			CurrentStreak: streak,
			JoinedAt:      m.JoinedAt,
		})
	}
	return standings, nil
}

func (r *memoryRepo) StandingLoads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.standingLoads
}

func (r *memoryRepo) InsertActivity(_ context.Context, _ bun.IDB, activity *partydb.Activity) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if activity.Kind == partydomain.ActivityMilestone {
		for _, a := range r.activity {
			if a.PartyID == activity.PartyID && a.UserID == activity.UserID && a.Kind == activity.Kind && a.Label == activity.Label {
				return false, nil
			}
		}
	}
	r.nextID++
	activity.ID = r.nextID
	cp := *activity
	r.activity = append(r.activity, &cp)
	return true, nil
}

func (r *memoryRepo) MilestoneExists(_ context.Context, _ bun.IDB, partyID uuid.UUID, userID, label string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, a := range r.activity {
		if a.PartyID == partyID && a.UserID == userID && a.Kind == partydomain.ActivityMilestone && a.Label == label {
			return true, nil
		}
	}
	return false, nil
}

func (r *memoryRepo) ListActivity(_ context.Context, _ bun.IDB, partyID uuid.UUID, limit int, beforeID *int64) ([]partydb.Activity, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var rows []partydb.Activity
	for _, a := range r.activity {
		if a.PartyID == partyID {
			rows = append(rows, *a)
		}
	}
	newestFirst := func(a, b partydb.Activity) int {
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(b.ID, a.ID)
	}
	slices.SortFunc(rows, newestFirst)

	if beforeID != nil {
		idx := slices.IndexFunc(rows, func(a partydb.Activity) bool { return a.ID == *beforeID })
		if idx < 0 {
			rows = nil
		} else {
			rows = rows[idx+1:]
		}
	}
	if len(rows) > limit {
		rows = rows[:limit]
	}
	for i := range rows {
		rows[i].DisplayName, _, _ = r.users.Lookup(rows[i].UserID)
	}
	return rows, nil
}

var _ partydb.Repository = (*memoryRepo)(nil)

// memoryUsers stands in for the user module: names, totals and streaks.
type memoryUsers struct {
	mu      sync.Mutex
	names   map[string]string
	totals  map[string]int64
	streaks map[string]int
}

func newMemoryUsers() *memoryUsers {
	return &memoryUsers{names: map[string]string{}, totals: map[string]int64{}, streaks: map[string]int{}}
}

func (u *memoryUsers) Set(userID, name string, total int64) {
	u.mu.Lock()
	defer u.mu.Unlock()
	u.names[userID] = name
	u.totals[userID] = total
}

func (u *memoryUsers) Lookup(userID string) (string, int64, int) {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.names[userID], u.totals[userID], u.streaks[userID]
}

func (u *memoryUsers) EnsureUser(_ context.Context, _ bun.IDB, userID, displayName string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	if _, ok := u.names[userID]; !ok {
		u.names[userID] = displayName
	}
	return nil
}

func (u *memoryUsers) ApplyDelta(context.Context, bun.IDB, userservice.PointChange) (*userservice.LedgerResult, error) {
	return nil, errors.New("not used by the party module")
}

func (u *memoryUsers) UpdateStreak(context.Context, bun.IDB, string, time.Time) (*userservice.StreakResult, error) {
	return nil, errors.New("not used by the party module")
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

// published is one decoded envelope seen by recordingPublisher.
type published struct {
	Topic    string
	Envelope partydomain.Envelope
}

// recordingPublisher captures envelopes in publish order.
type recordingPublisher struct {
	mu       sync.Mutex
	messages []published
	// FailEvent makes every publish of that event name fail.
	FailEvent string
}

func (p *recordingPublisher) Publish(topic string, msgs ...*message.Message) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, msg := range msgs {
		if p.FailEvent != "" && msg.Metadata.Get(EventNameMetadataKey) == p.FailEvent {
			return fmt.Errorf("broker rejected %s", p.FailEvent)
		}
		var env partydomain.Envelope
		if err := json.Unmarshal(msg.Payload, &env); err != nil {
			return err
		}
		p.messages = append(p.messages, published{Topic: topic, Envelope: env})
	}
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) Events() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.messages))
	for _, m := range p.messages {
		out = append(out, m.Envelope.Event)
	}
	return out
}

func (p *recordingPublisher) Messages() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.messages)
}

// recordingMetrics counts realtime failures.
type recordingMetrics struct {
	mu       sync.Mutex
	failures map[string]int
	dropped  int
}

func (m *recordingMetrics) RecordBroadcastFailure(_ context.Context, event string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failures == nil {
		m.failures = map[string]int{}
	}
	m.failures[event]++
}

func (m *recordingMetrics) RecordDroppedMessage(context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dropped++
}

func (m *recordingMetrics) SetRealtimeSubscribers(int) {}

func (m *recordingMetrics) Failures(event string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.failures[event]
}
