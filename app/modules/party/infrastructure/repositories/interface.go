package partydb

import (
	"context"
	"time"

	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for party persistence. Every method takes
// an optional db; nil uses the repository's own handle.
type Repository interface {
	// CreateParty returns ErrInviteCodeTaken on an invite code collision.
	CreateParty(ctx context.Context, db bun.IDB, party *HuntingParty) error
	GetParty(ctx context.Context, db bun.IDB, id uuid.UUID) (*HuntingParty, error)
	GetPartyByInviteCode(ctx context.Context, db bun.IDB, code string) (*HuntingParty, error)

	// GetActiveMembership returns ErrNotFound when the user is in no party.
	GetActiveMembership(ctx context.Context, db bun.IDB, userID string) (*Membership, error)
	// InsertMembership returns ErrAlreadyMember when the user is active elsewhere.
	InsertMembership(ctx context.Context, db bun.IDB, membership *Membership) error
	DeactivateMembership(ctx context.Context, db bun.IDB, id int64, at time.Time) error
	CountActiveMembers(ctx context.Context, db bun.IDB, partyID uuid.UUID) (int, error)
	// ListStandings returns every active member with their user totals.
	ListStandings(ctx context.Context, db bun.IDB, partyID uuid.UUID) ([]partydomain.Standing, error)

	// InsertActivity appends a feed row. For milestones it returns false when
	// the row already existed.
	InsertActivity(ctx context.Context, db bun.IDB, activity *Activity) (bool, error)
	MilestoneExists(ctx context.Context, db bun.IDB, partyID uuid.UUID, userID, label string) (bool, error)
	// ListActivity returns up to limit rows ordered (created_at, id) descending,
	// strictly after the beforeID row in that order when set.
	ListActivity(ctx context.Context, db bun.IDB, partyID uuid.UUID, limit int, beforeID *int64) ([]Activity, error)
}
