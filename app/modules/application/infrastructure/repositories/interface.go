package applicationdb

import (
	"context"
	"time"

	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the persistence contract for applications and their timeline.
//
// Every lookup is scoped by owner, so another user's application reads as ErrNotFound.
type Repository interface {
	CreateApplication(ctx context.Context, db bun.IDB, app *Application) error
	GetApplication(ctx context.Context, db bun.IDB, userID string, id uuid.UUID) (*Application, error)
	// LockApplication selects the application FOR UPDATE, serializing mutations of its event set.
	LockApplication(ctx context.Context, db bun.IDB, userID string, id uuid.UUID) (*Application, error)
	ListApplications(ctx context.Context, db bun.IDB, userID string) ([]Application, error)
	CountApplications(ctx context.Context, db bun.IDB, userID string) (int, error)
	// UpdateDerived writes the materialized status and points.
	UpdateDerived(ctx context.Context, db bun.IDB, id uuid.UUID, status scoringdomain.Stage, points int, at time.Time) error
	DeleteApplication(ctx context.Context, db bun.IDB, id uuid.UUID) error

	InsertEvent(ctx context.Context, db bun.IDB, event *TimelineEvent) error
	GetEvent(ctx context.Context, db bun.IDB, applicationID, eventID uuid.UUID) (*TimelineEvent, error)
	UpdateEvent(ctx context.Context, db bun.IDB, event *TimelineEvent) error
	DeleteEvent(ctx context.Context, db bun.IDB, applicationID, eventID uuid.UUID) error
	// ListEvents returns an application's events in display order.
	ListEvents(ctx context.Context, db bun.IDB, applicationID uuid.UUID) ([]TimelineEvent, error)

	// ClaimForEnrichment leases up to limit pending applications using SKIP LOCKED.
	// Leases older than staleAfter are reclaimed.
	ClaimForEnrichment(ctx context.Context, db bun.IDB, limit int, staleAfter time.Duration) ([]Application, error)
	// SaveEnrichment writes only the enrichment columns.
	SaveEnrichment(ctx context.Context, db bun.IDB, id uuid.UUID, result EnrichmentResult) error
}
