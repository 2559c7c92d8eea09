package userdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// User is the scoring identity of a caller. The id is the identity provider's subject.
type User struct {
	bun.BaseModel  `bun:"table:users,alias:u"`
	UserID         string     `bun:"user_id,pk" json:"user_id"`
	DisplayName    string     `bun:"display_name,notnull,default:''" json:"display_name"`
	TotalPoints    int64      `bun:"total_points,notnull,default:0" json:"total_points"`
	CurrentStreak  int        `bun:"current_streak,notnull,default:0" json:"current_streak"`
	LongestStreak  int        `bun:"longest_streak,notnull,default:0" json:"longest_streak"`
	LastActivityAt *time.Time `bun:"last_activity_at,nullzero" json:"last_activity_at,omitempty"`
	CreatedAt      time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt      time.Time  `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// PointHistory is one ledger movement. Append-only.
type PointHistory struct {
	bun.BaseModel `bun:"table:user_point_history,alias:uph"`
	ID            int64      `bun:"id,pk,autoincrement" json:"id"`
	UserID        string     `bun:"user_id,notnull" json:"user_id"`
	ApplicationID *uuid.UUID `bun:"application_id,type:uuid,nullzero" json:"application_id,omitempty"`
	Delta         int        `bun:"delta,notnull" json:"delta"`
	TotalAfter    int64      `bun:"total_after,notnull" json:"total_after"`
	Reason        string     `bun:"reason,notnull" json:"reason"`
	CreatedAt     time.Time  `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}
