package applicationservice

import (
	"time"

	applicationdomain "github.com/Black-And-White-Club/hunting-party/app/modules/application/domain"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	"github.com/google/uuid"
)

// LogApplicationInput creates an application with its initial applied event.
type LogApplicationInput struct {
	Company    string
	Role       string
	PostingURL string
	// Occurred is free text ("yesterday", RFC 3339); empty means now.
	Occurred string
	Notes    string
}

// TimelineEventInput records one stage against an application.
type TimelineEventInput struct {
	Kind           string
	InterviewRound *int
	Occurred       string
	Notes          string
}

// TimelineEventPatch edits an event. Nil fields are left unchanged.
type TimelineEventPatch struct {
	Kind           *string
	InterviewRound *int
	ClearRound     bool
	Occurred       *string
	Notes          *string
}

// TimelineEventView is a recorded event plus the application state it produced.
type TimelineEventView struct {
	ID                uuid.UUID           `json:"id"`
	ApplicationID     uuid.UUID           `json:"application_id"`
	Kind              scoringdomain.Stage `json:"kind"`
	InterviewRound    *int                `json:"interview_round,omitempty"`
	OccurredAt        time.Time           `json:"occurred_at"`
	Notes             string              `json:"notes"`
	Points            int                 `json:"points"`
	CreatedAt         time.Time           `json:"created_at"`
	ApplicationStatus scoringdomain.Stage `json:"application_status,omitempty"`
	ApplicationPoints int                 `json:"application_points"`
}

// EnrichmentView exposes what the posting parser found.
type EnrichmentView struct {
	Status   applicationdomain.EnrichmentStatus `json:"status"`
	Company  *string                            `json:"company,omitempty"`
	Role     *string                            `json:"role,omitempty"`
	Location *string                            `json:"location,omitempty"`
}

// ApplicationView is an application with, for single reads, its timeline.
type ApplicationView struct {
	ID         uuid.UUID           `json:"id"`
	Company    string              `json:"company"`
	Role       string              `json:"role"`
	PostingURL string              `json:"posting_url,omitempty"`
	Status     scoringdomain.Stage `json:"status"`
	Points     int                 `json:"points"`
	Enrichment EnrichmentView      `json:"enrichment"`
	CreatedAt  time.Time           `json:"created_at"`
	UpdatedAt  time.Time           `json:"updated_at"`
	Events     []TimelineEventView `json:"events,omitempty"`
}

func toApplicationView(app *applicationdb.Application, events []applicationdb.TimelineEvent) *ApplicationView {
	view := &ApplicationView{
		ID:         app.ID,
		Company:    app.Company,
		Role:       app.Role,
		PostingURL: app.PostingURL,
		Status:     app.Status,
		Points:     app.Points,
		Enrichment: EnrichmentView{
			Status:   app.EnrichmentStatus,
			Company:  app.EnrichedCompany,
			Role:     app.EnrichedRole,
			Location: app.EnrichedLocation,
		},
		CreatedAt: app.CreatedAt,
		UpdatedAt: app.UpdatedAt,
	}
	if len(events) > 0 {
		view.Events = make([]TimelineEventView, len(events))
		for i := range events {
			view.Events[i] = toEventView(&events[i], nil)
		}
	}
	return view
}

func toEventView(e *applicationdb.TimelineEvent, app *applicationdb.Application) TimelineEventView {
	view := TimelineEventView{
		ID:             e.ID,
		ApplicationID:  e.ApplicationID,
		Kind:           e.Kind,
		InterviewRound: e.InterviewRound,
		OccurredAt:     e.OccurredAt,
		Notes:          e.Notes,
		Points:         e.Points,
		CreatedAt:      e.CreatedAt,
	}
	if app != nil {
		view.ApplicationStatus = app.Status
		view.ApplicationPoints = app.Points
	}
	return view
}
