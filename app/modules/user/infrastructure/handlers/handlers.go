package userhandlers

import (
	"log/slog"
	"net/http"

	authdomain "github.com/Black-And-White-Club/hunting-party/app/modules/auth/domain"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/Black-And-White-Club/hunting-party/app/shared/httpx"
	"github.com/go-chi/chi/v5"
	"go.opentelemetry.io/otel/trace"
)

// UserHandlers serves the caller's own profile.
type UserHandlers struct {
	service userservice.Service
	logger  *slog.Logger
	tracer  trace.Tracer
}

// NewUserHandlers creates a new UserHandlers.
func NewUserHandlers(service userservice.Service, logger *slog.Logger, tracer trace.Tracer) *UserHandlers {
	return &UserHandlers{service: service, logger: logger, tracer: tracer}
}

// Routes mounts the /api/me endpoints.
func (h *UserHandlers) Routes(r chi.Router) {
	r.Get("/api/me", h.HandleGetProfile)
	r.Put("/api/me", h.HandleUpsertProfile)
	r.Get("/api/me/points-chart.png", h.HandlePointsChart)
}

type upsertProfileRequest struct {
	DisplayName string `json:"display_name" validate:"required"`
}

func (h *UserHandlers) HandleGetProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandleGetProfile")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	profile, err := h.service.GetProfile(ctx, userID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profile)
}

func (h *UserHandlers) HandleUpsertProfile(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandleUpsertProfile")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	var req upsertProfileRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	profile, err := h.service.UpsertProfile(ctx, userID, req.DisplayName)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, profile)
}

func (h *UserHandlers) HandlePointsChart(w http.ResponseWriter, r *http.Request) {
	ctx, span := h.tracer.Start(r.Context(), "UserHandlers.HandlePointsChart")
	defer span.End()

	userID, err := authdomain.CurrentUserID(ctx)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	png, err := h.service.PointsChart(ctx, userID)
	if err != nil {
		httpx.WriteError(w, r, h.logger, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
