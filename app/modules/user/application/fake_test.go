package userservice

import (
	"context"
	"time"

	userdb "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/repositories"
	"github.com/uptrace/bun"
)

// FakeRepository is a programmable fake for userdb.Repository.
type FakeRepository struct {
	trace []string

	GetUserFunc            func(ctx context.Context, db bun.IDB, userID string) (*userdb.User, error)
	GetUserForUpdateFunc   func(ctx context.Context, db bun.IDB, userID string) (*userdb.User, error)
	EnsureUserFunc         func(ctx context.Context, db bun.IDB, userID, displayName string) error
	UpsertProfileFunc      func(ctx context.Context, db bun.IDB, userID, displayName string) (*userdb.User, error)
	AddPointsFunc          func(ctx context.Context, db bun.IDB, userID string, delta int) (int64, error)
	UpdateStreakFunc       func(ctx context.Context, db bun.IDB, userID string, current, longest int, lastActivityAt time.Time) error
	InsertPointHistoryFunc func(ctx context.Context, db bun.IDB, entry *userdb.PointHistory) error
	ListPointHistoryFunc   func(ctx context.Context, db bun.IDB, userID string, limit int) ([]userdb.PointHistory, error)
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{trace: []string{}}
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRepository) GetUser(ctx context.Context, db bun.IDB, userID string) (*userdb.User, error) {
	f.record("GetUser")
	if f.GetUserFunc != nil {
		return f.GetUserFunc(ctx, db, userID)
	}
	return nil, userdb.ErrNotFound
}

func (f *FakeRepository) GetUserForUpdate(ctx context.Context, db bun.IDB, userID string) (*userdb.User, error) {
	f.record("GetUserForUpdate")
	if f.GetUserForUpdateFunc != nil {
		return f.GetUserForUpdateFunc(ctx, db, userID)
	}
	return nil, userdb.ErrNotFound
}

func (f *FakeRepository) EnsureUser(ctx context.Context, db bun.IDB, userID, displayName string) error {
	f.record("EnsureUser")
	if f.EnsureUserFunc != nil {
		return f.EnsureUserFunc(ctx, db, userID, displayName)
	}
	return nil
}

func (f *FakeRepository) UpsertProfile(ctx context.Context, db bun.IDB, userID, displayName string) (*userdb.User, error) {
	f.record("UpsertProfile")
	if f.UpsertProfileFunc != nil {
		return f.UpsertProfileFunc(ctx, db, userID, displayName)
	}
	return &userdb.User{UserID: userID, DisplayName: displayName}, nil
}

func (f *FakeRepository) AddPoints(ctx context.Context, db bun.IDB, userID string, delta int) (int64, error) {
	f.record("AddPoints")
	if f.AddPointsFunc != nil {
		return f.AddPointsFunc(ctx, db, userID, delta)
	}
	return 0, userdb.ErrNotFound
}

func (f *FakeRepository) UpdateStreak(ctx context.Context, db bun.IDB, userID string, current, longest int, lastActivityAt time.Time) error {
	f.record("UpdateStreak")
	if f.UpdateStreakFunc != nil {
		return f.UpdateStreakFunc(ctx, db, userID, current, longest, lastActivityAt)
	}
	return nil
}

func (f *FakeRepository) InsertPointHistory(ctx context.Context, db bun.IDB, entry *userdb.PointHistory) error {
	f.record("InsertPointHistory")
	if f.InsertPointHistoryFunc != nil {
		return f.InsertPointHistoryFunc(ctx, db, entry)
	}
	return nil
}

func (f *FakeRepository) ListPointHistory(ctx context.Context, db bun.IDB, userID string, limit int) ([]userdb.PointHistory, error) {
	f.record("ListPointHistory")
	if f.ListPointHistoryFunc != nil {
		return f.ListPointHistoryFunc(ctx, db, userID, limit)
	}
	return nil, nil
}

var _ userdb.Repository = (*FakeRepository)(nil)
