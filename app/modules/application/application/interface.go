package applicationservice

import (
	"context"

	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Service is the application module contract used by handlers.
type Service interface {
	LogApplication(ctx context.Context, userID string, input LogApplicationInput) (*ApplicationView, error)
	GetApplication(ctx context.Context, userID string, applicationID uuid.UUID) (*ApplicationView, error)
	ListApplications(ctx context.Context, userID string) ([]ApplicationView, error)
	DeleteApplication(ctx context.Context, userID string, applicationID uuid.UUID) error

	RecordTimelineEvent(ctx context.Context, userID string, applicationID uuid.UUID, input TimelineEventInput) (*TimelineEventView, error)
	EditTimelineEvent(ctx context.Context, userID string, applicationID, eventID uuid.UUID, patch TimelineEventPatch) (*TimelineEventView, error)
	DeleteTimelineEvent(ctx context.Context, userID string, applicationID, eventID uuid.UUID) (bool, error)
}

var _ Service = (*ApplicationService)(nil)

// PartyHooks is what the cascade needs from the party module.
type PartyHooks interface {
	// RecordActivity appends to the user's active party feed inside db.
	// Returns nil when the user is not in a party.
	RecordActivity(ctx context.Context, db bun.IDB, input partydomain.ActivityInput) (*partydomain.ActivityEvent, error)
	// DetectMilestone runs after commit in its own transaction.
	DetectMilestone(ctx context.Context, userID string, applicationCount int) (*partydomain.ActivityEvent, error)
	// Notify schedules realtime pushes for a committed mutation. Never blocks.
	Notify(userID string, activities []*partydomain.ActivityEvent, pointsChanged bool)
}

// EnrichmentQueue wakes the posting enrichment worker.
type EnrichmentQueue interface {
	Kick(ctx context.Context) error
}

// NoopPartyHooks is used when the party module is not wired.
type NoopPartyHooks struct{}

func (NoopPartyHooks) RecordActivity(context.Context, bun.IDB, partydomain.ActivityInput) (*partydomain.ActivityEvent, error) {
	return nil, nil
}

func (NoopPartyHooks) DetectMilestone(context.Context, string, int) (*partydomain.ActivityEvent, error) {
	return nil, nil
}

func (NoopPartyHooks) Notify(string, []*partydomain.ActivityEvent, bool) {}
