package userdb

import (
	"context"
	"time"

	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for user data.
//
// Error semantics:
//   - ErrNotFound: requested record does not exist
//   - ErrNoRowsAffected: UPDATE matched no rows
//   - other errors: infrastructure failures
type Repository interface {
	// GetUser returns the user row.
	GetUser(ctx context.Context, db bun.IDB, userID string) (*User, error)
	// GetUserForUpdate returns the user row locked until the transaction ends.
	GetUserForUpdate(ctx context.Context, db bun.IDB, userID string) (*User, error)
	// EnsureUser inserts a bare user row if none exists. Existing rows are untouched.
	EnsureUser(ctx context.Context, db bun.IDB, userID, displayName string) error
	// UpsertProfile creates the user on first sight and updates the display name afterwards.
	UpsertProfile(ctx context.Context, db bun.IDB, userID, displayName string) (*User, error)
	// AddPoints atomically adds delta to total_points and returns the new total.
	AddPoints(ctx context.Context, db bun.IDB, userID string, delta int) (int64, error)
	// UpdateStreak persists the streak fields.
	UpdateStreak(ctx context.Context, db bun.IDB, userID string, current, longest int, lastActivityAt time.Time) error
	// InsertPointHistory appends a ledger movement.
	InsertPointHistory(ctx context.Context, db bun.IDB, entry *PointHistory) error
	// ListPointHistory returns the newest `limit` movements in chronological order.
	ListPointHistory(ctx context.Context, db bun.IDB, userID string, limit int) ([]PointHistory, error)
}
