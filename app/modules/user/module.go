package user

import (
	"context"

	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	userhandlers "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/handlers"
	userdb "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module owns users, the points ledger and streaks.
type Module struct {
	service  *userservice.UserService
	handlers *userhandlers.UserHandlers
}

// NewModule creates the user module and mounts its routes on router.
func NewModule(ctx context.Context, obs *observability.Observability, db *bun.DB, router chi.Router) *Module {
	logger := obs.Logger
	tracer := obs.Tracer("user")

	logger.InfoContext(ctx, "Initializing user module")

	service := userservice.NewUserService(userdb.NewRepository(db), logger, obs.Metrics, tracer, obs.Faults, db)
	handlers := userhandlers.NewUserHandlers(service, logger, tracer)
	if router != nil {
		handlers.Routes(router)
	}

	return &Module{service: service, handlers: handlers}
}

// GetService returns the user service for use by other modules.
func (m *Module) GetService() userservice.Service {
	return m.service
}
