package partydomain

import (
	"time"

	"github.com/google/uuid"
)

// ActivityKind names what a party member did.
type ActivityKind string

const (
	ActivityApplicationLogged ActivityKind = "application_logged"
	ActivityEventRecorded     ActivityKind = "timeline_event_recorded"
	ActivityMilestone         ActivityKind = "milestone"
	ActivityMemberJoined      ActivityKind = "member_joined"
	ActivityMemberLeft        ActivityKind = "member_left"
)

// ActivityInput is a request to append to the acting user's party feed.
type ActivityInput struct {
	UserID      string
	Kind        ActivityKind
	PointsDelta int
	Company     string
	Role        string
	Label       string
}

// ActivityEvent is an immutable feed entry.
type ActivityEvent struct {
	ID          int64        `json:"id"`
	PartyID     uuid.UUID    `json:"party_id"`
	UserID      string       `json:"user_id"`
	DisplayName string       `json:"display_name,omitempty"`
	Kind        ActivityKind `json:"kind"`
	PointsDelta int          `json:"points_delta"`
	Company     string       `json:"company,omitempty"`
	Role        string       `json:"role,omitempty"`
	Label       string       `json:"label,omitempty"`
	CreatedAt   time.Time    `json:"created_at"`
}

const (
	DefaultFeedLimit = 20
	MaxFeedLimit     = 100
)

// ClampFeedLimit applies the default and bounds to a requested page size.
func ClampFeedLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultFeedLimit
	case limit > MaxFeedLimit:
		return MaxFeedLimit
	default:
		return limit
	}
}

// FeedPage is one page of a party feed, newest first.
type FeedPage struct {
	Events  []ActivityEvent `json:"events"`
	HasMore bool            `json:"has_more"`
	// NextBeforeID is the cursor for the following page.
	NextBeforeID *int64 `json:"next_before_id,omitempty"`
}

// NewFeedPage trims an over-fetched slice (limit+1 rows) into a page.
func NewFeedPage(rows []ActivityEvent, limit int) FeedPage {
	page := FeedPage{Events: rows}
	if len(rows) > limit {
		page.Events = rows[:limit]
		page.HasMore = true
	}
	if page.Events == nil {
		page.Events = []ActivityEvent{}
	}
	if page.HasMore {
		last := page.Events[len(page.Events)-1].ID
		page.NextBeforeID = &last
	}
	return page
}
