package userservice

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Service is the user module contract used by handlers and other modules.
type Service interface {
	// ApplyDelta is the points ledger. db must be the caller's transaction.
	ApplyDelta(ctx context.Context, db bun.IDB, change PointChange) (*LedgerResult, error)
	// UpdateStreak is the streak tracker. db must be the caller's transaction.
	UpdateStreak(ctx context.Context, db bun.IDB, userID string, at time.Time) (*StreakResult, error)
	// EnsureUser registers userID on first use. db may be the caller's transaction.
	EnsureUser(ctx context.Context, db bun.IDB, userID, displayName string) error

	UpsertProfile(ctx context.Context, userID, displayName string) (*Profile, error)
	GetProfile(ctx context.Context, userID string) (*Profile, error)
	PointsChart(ctx context.Context, userID string) ([]byte, error)
}

var _ Service = (*UserService)(nil)
