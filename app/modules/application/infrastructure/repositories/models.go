package applicationdb

import (
	"time"

	applicationdomain "github.com/Black-And-White-Club/hunting-party/app/modules/application/domain"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Application is one tracked job application. Status and Points are
// materialized from its timeline events and never edited directly.
type Application struct {
	bun.BaseModel `bun:"table:applications,alias:a"`

	ID         uuid.UUID           `bun:"id,pk,type:uuid" json:"id"`
	UserID     string              `bun:"user_id,notnull" json:"user_id"`
	Company    string              `bun:"company,notnull" json:"company"`
	Role       string              `bun:"role,notnull" json:"role"`
	PostingURL string              `bun:"posting_url,notnull,default:''" json:"posting_url"`
	Status     scoringdomain.Stage `bun:"status,notnull" json:"status"`
	Points     int                 `bun:"points,notnull,default:0" json:"points"`

	EnrichmentStatus   applicationdomain.EnrichmentStatus `bun:"enrichment_status,notnull,default:'pending'" json:"enrichment_status"`
	EnrichedCompany    *string                            `bun:"enriched_company" json:"enriched_company,omitempty"`
	EnrichedRole       *string                            `bun:"enriched_role" json:"enriched_role,omitempty"`
	EnrichedLocation   *string                            `bun:"enriched_location" json:"enriched_location,omitempty"`
	EnrichmentError    *string                            `bun:"enrichment_error" json:"enrichment_error,omitempty"`
	EnrichmentAttempts int                                `bun:"enrichment_attempts,notnull,default:0" json:"enrichment_attempts"`
	EnrichmentClaimed  *time.Time                         `bun:"enrichment_claimed_at,nullzero" json:"-"`
	EnrichedAt         *time.Time                         `bun:"enriched_at,nullzero" json:"enriched_at,omitempty"`

	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updated_at"`
}

// TimelineEvent is one recorded stage for an application. OccurredAt is UTC.
type TimelineEvent struct {
	bun.BaseModel `bun:"table:timeline_events,alias:te"`

	ID             uuid.UUID           `bun:"id,pk,type:uuid" json:"id"`
	ApplicationID  uuid.UUID           `bun:"application_id,type:uuid,notnull" json:"application_id"`
	Kind           scoringdomain.Stage `bun:"kind,notnull" json:"kind"`
	InterviewRound *int                `bun:"interview_round" json:"interview_round,omitempty"`
	OccurredAt     time.Time           `bun:"occurred_at,notnull" json:"occurred_at"`
	Notes          string              `bun:"notes,notnull,default:''" json:"notes"`
	Points         int                 `bun:"points,notnull,default:0" json:"points"`
	CreatedAt      time.Time           `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"created_at"`
}

// EventStage lets the status resolver read events directly.
func (e TimelineEvent) EventStage() scoringdomain.Stage { return e.Kind }

// SortKey orders events for display.
func (e TimelineEvent) SortKey() (time.Time, time.Time, uuid.UUID) {
	return e.OccurredAt, e.CreatedAt, e.ID
}

// EnrichmentResult is what the enrichment worker writes back.
type EnrichmentResult struct {
	Status   applicationdomain.EnrichmentStatus
	Company  *string
	Role     *string
	Location *string
	Error    *string
	Attempts int
	At       time.Time
}
