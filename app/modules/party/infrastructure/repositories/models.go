package partydb

import (
	"time"

	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// HuntingParty is a group of users competing on one leaderboard.
type HuntingParty struct {
	bun.BaseModel `bun:"table:hunting_parties,alias:hp"`

	ID         uuid.UUID `bun:"id,pk,type:uuid" json:"id"`
	Name       string    `bun:"name,notnull" json:"name"`
	InviteCode string    `bun:"invite_code,notnull,unique" json:"invite_code"`
	CreatorID  string    `bun:"creator_id,notnull" json:"creator_id"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// Membership links a user to a party. A user has at most one active row.
type Membership struct {
	bun.BaseModel `bun:"table:party_memberships,alias:pm"`

	ID       int64      `bun:"id,pk,autoincrement" json:"id"`
	PartyID  uuid.UUID  `bun:"party_id,type:uuid,notnull" json:"party_id"`
	UserID   string     `bun:"user_id,notnull" json:"user_id"`
	IsActive bool       `bun:"is_active,notnull,default:true" json:"is_active"`
	JoinedAt time.Time  `bun:"joined_at,nullzero,notnull,default:current_timestamp" json:"joined_at"`
	LeftAt   *time.Time `bun:"left_at,nullzero" json:"left_at,omitempty"`
}

// Activity is an immutable party feed row.
type Activity struct {
	bun.BaseModel `bun:"table:activity_events,alias:ae"`

	ID          int64                    `bun:"id,pk,autoincrement" json:"id"`
	PartyID     uuid.UUID                `bun:"party_id,type:uuid,notnull" json:"party_id"`
	UserID      string                   `bun:"user_id,notnull" json:"user_id"`
	Kind        partydomain.ActivityKind `bun:"kind,notnull" json:"kind"`
	PointsDelta int                      `bun:"points_delta,notnull,default:0" json:"points_delta"`
	Company     string                   `bun:"company,notnull,default:''" json:"company"`
	Role        string                   `bun:"role,notnull,default:''" json:"role"`
	Label       string                   `bun:"label,notnull,default:''" json:"label"`
	CreatedAt   time.Time                `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`

	DisplayName string `bun:"display_name,scanonly" json:"display_name"`
}

// ToDomain converts the row into a feed entry.
func (a *Activity) ToDomain() partydomain.ActivityEvent {
	return partydomain.ActivityEvent{
		ID:          a.ID,
		PartyID:     a.PartyID,
		UserID:      a.UserID,
		DisplayName: a.DisplayName,
		Kind:        a.Kind,
		PointsDelta: a.PointsDelta,
		Company:     a.Company,
		Role:        a.Role,
		Label:       a.Label,
		CreatedAt:   a.CreatedAt,
	}
}
