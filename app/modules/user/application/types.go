package userservice

import (
	"time"

	userdb "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/repositories"
	"github.com/google/uuid"
)

// PointChange is one ledger movement requested by a mutation.
type PointChange struct {
	UserID        string
	ApplicationID *uuid.UUID
	Delta         int
	Reason        string
}

// LedgerResult reports what the ledger did.
type LedgerResult struct {
	Delta       int
	TotalPoints int64
	// Applied is false when the delta was zero and the user row was not touched.
	Applied bool
}

// StreakResult is returned by UpdateStreak.
type StreakResult struct {
	CurrentStreak  int  `json:"current_streak"`
	LongestStreak  int  `json:"longest_streak"`
	PreviousStreak int  `json:"previous_streak"`
	Incremented    bool `json:"incremented"`
	Broken         bool `json:"broken"`
}

// Profile is the caller-facing view of a user.
type Profile struct {
	UserID         string     `json:"user_id"`
	DisplayName    string     `json:"display_name"`
	TotalPoints    int64      `json:"total_points"`
	CurrentStreak  int        `json:"current_streak"`
	LongestStreak  int        `json:"longest_streak"`
	LastActivityAt *time.Time `json:"last_activity_at,omitempty"`
}

func toProfile(u *userdb.User) *Profile {
	return &Profile{
		UserID:         u.UserID,
		DisplayName:    u.DisplayName,
		TotalPoints:    u.TotalPoints,
		CurrentStreak:  u.CurrentStreak,
		LongestStreak:  u.LongestStreak,
		LastActivityAt: u.LastActivityAt,
	}
}
