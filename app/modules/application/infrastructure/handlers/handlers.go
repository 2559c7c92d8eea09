package applicationhandlers

import (
	"log/slog"
	"net/http"

	applicationservice "github.com/Black-And-White-Club/hunting-party/app/modules/application/application"
	authdomain "github.com/Black-And-White-Club/hunting-party/app/modules/auth/domain"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/Black-And-White-Club/hunting-party/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ApplicationHandlers serves the caller's applications and their timelines.
type ApplicationHandlers struct {
	service applicationservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewApplicationHandlers creates a new ApplicationHandlers.
func NewApplicationHandlers(service applicationservice.Service, logger *slog.Logger, tracer trace.Tracer) *ApplicationHandlers {
	return &ApplicationHandlers{service: service, logger: logger, tracer: tracer}
}

// Routes mounts the /api/applications endpoints.
func (h *ApplicationHandlers) Routes(r chi.Router) {
	r.Route("/api/applications", func(r chi.Router) {
		r.Post("/", h.HandleLogApplication)
		r.Get("/", h.HandleListApplications)
		r.Get("/{applicationID}", h.HandleGetApplication)
		r.Delete("/{applicationID}", h.HandleDeleteApplication)
		r.Post("/{applicationID}/events", h.HandleRecordTimelineEvent)
		r.Put("/{applicationID}/events/{eventID}", h.HandleEditTimelineEvent)
		r.Delete("/{applicationID}/events/{eventID}", h.HandleDeleteTimelineEvent)
	})
}

type logApplicationRequest struct {
	Company    string `json:"company" validate:"required,max=200"`
	Role       string `json:"role" validate:"required,max=200"`
	PostingURL string `json:"posting_url" validate:"omitempty,http_url,max=2048"`
	Occurred   string `json:"occurred" validate:"max=100"`
	Notes      string `json:"notes" validate:"max=4000"`
}

type timelineEventRequest struct {
	Kind           string `json:"kind" validate:"required"`
	InterviewRound *int   `json:"interview_round"`
	Occurred       string `json:"occurred" validate:"max=100"`
	Notes          string `json:"notes" validate:"max=4000"`
}

type editTimelineEventRequest struct {
	Kind           *string `json:"kind"`
	InterviewRound *int    `json:"interview_round"`
	ClearRound     bool    `json:"clear_interview_round"`
	Occurred       *string `json:"occurred" validate:"omitempty,max=100"`
	Notes          *string `json:"notes" validate:"omitempty,max=4000"`
}

func (h *ApplicationHandlers) HandleLogApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplicationHandlers.HandleLogApplication")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	var req logApplicationRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	app, err := h.service.LogApplication(ctx, userID, applicationservice.LogApplicationInput{
		Company:    req.Company,
		Role:       req.Role,
		PostingURL: req.PostingURL,
		Occurred:   req.Occurred,
		Notes:      req.Notes,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, app)
}

func (h *ApplicationHandlers) HandleListApplications(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplicationHandlers.HandleListApplications")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	apps, err := h.service.ListApplications(ctx, userID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if apps == nil {
		apps = []applicationservice.ApplicationView{}
	}
	httpx.WriteJSON(w, http.StatusOK, apps)
}

func (h *ApplicationHandlers) HandleGetApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplicationHandlers.HandleGetApplication")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	appID, ok := h.pathID(w, r, "applicationID", "application")
	if !ok {
		return
	}
	span.SetAttributes(attribute.String("application_id", appID.String()))

	app, err := h.service.GetApplication(ctx, userID, appID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, app)
}

func (h *ApplicationHandlers) HandleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplicationHandlers.HandleDeleteApplication")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	appID, ok := h.pathID(w, r, "applicationID", "application")
	if !ok {
		return
	}

	if err := h.service.DeleteApplication(ctx, userID, appID); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ApplicationHandlers) HandleRecordTimelineEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplicationHandlers.HandleRecordTimelineEvent")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	appID, ok := h.pathID(w, r, "applicationID", "application")
	if !ok {
		return
	}

	var req timelineEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	event, err := h.service.RecordTimelineEvent(ctx, userID, appID, applicationservice.TimelineEventInput{
		Kind:           req.Kind,
		InterviewRound: req.InterviewRound,
		Occurred:       req.Occurred,
		Notes:          req.Notes,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusCreated, event)
}

func (h *ApplicationHandlers) HandleEditTimelineEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplicationHandlers.HandleEditTimelineEvent")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	appID, ok := h.pathID(w, r, "applicationID", "application")
	if !ok {
		return
	}
	eventID, ok := h.pathID(w, r, "eventID", "timeline event")
	if !ok {
		return
	}

	var req editTimelineEventRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	event, err := h.service.EditTimelineEvent(ctx, userID, appID, eventID, applicationservice.TimelineEventPatch{
		Kind:           req.Kind,
		InterviewRound: req.InterviewRound,
		ClearRound:     req.ClearRound,
		Occurred:       req.Occurred,
		Notes:          req.Notes,
	})
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, event)
}

func (h *ApplicationHandlers) HandleDeleteTimelineEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "ApplicationHandlers.HandleDeleteTimelineEvent")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	appID, ok := h.pathID(w, r, "applicationID", "application")
	if !ok {
		return
	}
	eventID, ok := h.pathID(w, r, "eventID", "timeline event")
	if !ok {
		return
	}

	deleted, err := h.service.DeleteTimelineEvent(ctx, userID, appID, eventID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if !deleted {
		httpx.WriteError(w, r, h.logger, apperrors.NotFound("timeline event"))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// pathID parses a UUID path parameter. A malformed id cannot name an
// existing resource, so it is reported as not found.
func (h *ApplicationHandlers) pathID(w http.ResponseWriter, r *http.Request, param, what string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		httpx.WriteError(w, r, h.logger, apperrors.NotFound(what))
		return uuid.Nil, false
	}
	return id, true
}
