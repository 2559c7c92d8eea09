package partyhandlers

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	authdomain "github.com/Black-And-White-Club/hunting-party/app/modules/auth/domain"
	partyservice "github.com/Black-And-White-Club/hunting-party/app/modules/party/application"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/Black-And-White-Club/hunting-party/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Joiner registers a realtime connection for a party member.
type Joiner interface {
	Join(ctx context.Context, connID string, partyID uuid.UUID, userID string) (<-chan partydomain.Envelope, func(), error)
}

// PartyHandlers serves parties, leaderboards, the feed and the live stream.
type PartyHandlers struct {
	service   partyservice.Service
	hub       Joiner
	logger    *slog.Logger
	tracer    trace.Tracer
	keepalive time.Duration
}

// NewPartyHandlers creates a new PartyHandlers.
func NewPartyHandlers(service partyservice.Service, hub Joiner, logger *slog.Logger, tracer trace.Tracer) *PartyHandlers {
	return &PartyHandlers{
		service:   service,
		hub:       hub,
		logger:    logger,
		tracer:    tracer,
		keepalive: 25 * time.Second,
	}
}

// Routes mounts the /api/parties endpoints.
func (h *PartyHandlers) Routes(r chi.Router) {
	r.Route("/api/parties", func(r chi.Router) {
		r.Post("/", h.HandleCreateParty)
		r.Post("/join", h.HandleJoinParty)
		r.Post("/leave", h.HandleLeaveParty)
		r.Get("/me", h.HandleGetMyParty)
		r.Get("/{partyID}/leaderboard", h.HandleGetLeaderboard)
		r.Get("/{partyID}/leaderboard.xlsx", h.HandleExportLeaderboard)
		r.Get("/{partyID}/rivalry", h.HandleGetRivalry)
		r.Get("/{partyID}/activity", h.HandleGetActivityFeed)
		r.Get("/{partyID}/stream", h.HandleStream)
	})
}

type createPartyRequest struct {
	Name string `json:"name" validate:"required,max=200"`
}

type joinPartyRequest struct {
	InviteCode string `json:"invite_code" validate:"required,max=32"`
}

func (h *PartyHandlers) HandleCreateParty(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PartyHandlers.HandleCreateParty")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	var req createPartyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	party, err := h.service.CreateParty(ctx, userID, req.Name)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	span.SetAttributes(attribute.String("party_id", party.ID.String()))
	httpx.WriteJSON(w, http.StatusCreated, party)
}

func (h *PartyHandlers) HandleJoinParty(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PartyHandlers.HandleJoinParty")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	var req joinPartyRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	party, err := h.service.JoinParty(ctx, userID, req.InviteCode)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, party)
}

func (h *PartyHandlers) HandleLeaveParty(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PartyHandlers.HandleLeaveParty")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	if err := h.service.LeaveParty(ctx, userID); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *PartyHandlers) HandleGetMyParty(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PartyHandlers.HandleGetMyParty")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	party, err := h.service.GetMyParty(ctx, userID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, party)
}

func (h *PartyHandlers) HandleGetLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PartyHandlers.HandleGetLeaderboard")
	defer span.End()

	userID, partyID, ok := h.caller(w, r.WithContext(ctx))
	if !ok {
		return
	}

	entries, err := h.service.GetLeaderboard(ctx, userID, partyID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []partydomain.LeaderboardEntry{}
	}
	httpx.WriteJSON(w, http.StatusOK, entries)
}

func (h *PartyHandlers) HandleExportLeaderboard(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PartyHandlers.HandleExportLeaderboard")
	defer span.End()

	userID, partyID, ok := h.caller(w, r.WithContext(ctx))
	if !ok {
		return
	}

	export, err := h.service.ExportLeaderboard(ctx, userID, partyID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename))
	w.Header().Set("Content-Length", strconv.Itoa(len(export.Content)))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(export.Content)
}

func (h *PartyHandlers) HandleGetRivalry(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PartyHandlers.HandleGetRivalry")
	defer span.End()

	userID, partyID, ok := h.caller(w, r.WithContext(ctx))
	if !ok {
		return
	}

	view, err := h.service.GetRivalry(ctx, userID, partyID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	if view == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, view)
}

func (h *PartyHandlers) HandleGetActivityFeed(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "PartyHandlers.HandleGetActivityFeed")
	defer span.End()

	userID, partyID, ok := h.caller(w, r.WithContext(ctx))
	if !ok {
		return
	}

	q := r.URL.Query()
	var limit int
	if raw := q.Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil {
			httpx.WriteError(w, r, h.logger, apperrors.Invalid("limit", "must be a number"))
			return
		}
		limit = n
	}
	var beforeID *int64
	if raw := q.Get("before_id"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || n <= 0 {
			httpx.WriteError(w, r, h.logger, apperrors.Invalid("before_id", "must be a positive number"))
			return
		}
		beforeID = &n
	}

	page, err := h.service.GetActivityFeed(ctx, userID, partyID, limit, beforeID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, page)
}

// caller resolves the authenticated user and the partyID path parameter. A
// malformed id cannot name a visible party, so it is a 404.
func (h *PartyHandlers) caller(w http.ResponseWriter, r *http.Request) (string, uuid.UUID, bool) {
	userID, err := authdomain.CurrentUserID(r.Context())
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return "", uuid.Nil, false
	}
	partyID, err := uuid.Parse(chi.URLParam(r, "partyID"))
	if err != nil {
		httpx.WriteError(w, r, h.logger, apperrors.NotFound("party"))
		return "", uuid.Nil, false
	}
	return userID, partyID, true
}
