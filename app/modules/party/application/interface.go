package partyservice

import (
	"context"

	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service is the party module contract used by handlers.
type Service interface {
	CreateParty(ctx context.Context, userID, name string) (*partydomain.Party, error)
	JoinParty(ctx context.Context, userID, inviteCode string) (*partydomain.Party, error)
	LeaveParty(ctx context.Context, userID string) error
	GetMyParty(ctx context.Context, userID string) (*partydomain.Party, error)

	GetLeaderboard(ctx context.Context, userID string, partyID uuid.UUID) ([]partydomain.LeaderboardEntry, error)
	// GetRivalry returns nil when the caller is not ranked on the leaderboard.
	GetRivalry(ctx context.Context, userID string, partyID uuid.UUID) (*partydomain.RivalryView, error)
	GetActivityFeed(ctx context.Context, userID string, partyID uuid.UUID, limit int, beforeID *int64) (*partydomain.FeedPage, error)
	ExportLeaderboard(ctx context.Context, userID string, partyID uuid.UUID) (*Export, error)
}

// Hooks is what the application cascade calls. PartyService satisfies the
// application module's PartyHooks with it.
type Hooks interface {
	RecordActivity(ctx context.Context, db bun.IDB, input partydomain.ActivityInput) (*partydomain.ActivityEvent, error)
	DetectMilestone(ctx context.Context, userID string, applicationCount int) (*partydomain.ActivityEvent, error)
	Notify(userID string, activities []*partydomain.ActivityEvent, pointsChanged bool)
}

var (
	_ Service = (*PartyService)(nil)
	_ Hooks   = (*PartyService)(nil)
)

// Export is a rendered leaderboard workbook.
type Export struct {
	Filename string
	Content  []byte
}
