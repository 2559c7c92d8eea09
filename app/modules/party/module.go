package party

import (
	"context"
	"sync"

	partyservice "github.com/Black-And-White-Club/hunting-party/app/modules/party/application"
	partyhandlers "github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/handlers"
	"github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/realtime"
	partydb "github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/repositories"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/Black-And-White-Club/hunting-party/app/shared/cache"
	"github.com/Black-And-White-Club/hunting-party/app/shared/eventbus"
	"github.com/Black-And-White-Club/hunting-party/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module owns parties, the activity feed, leaderboards and realtime delivery.
type Module struct {
	service     *partyservice.PartyService
	broadcaster *partyservice.Broadcaster
	hub         *realtime.Hub
	handlers    *partyhandlers.PartyHandlers
	cancelFunc  context.CancelFunc
	obs         *observability.Observability
}

// NewModule creates the party module and mounts its routes on router.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	router chi.Router,
	users userservice.Service,
	store cache.Store,
	bus *eventbus.PubSub,
) *Module {
	logger := obs.Logger
	tracer := obs.Tracer("party")

	logger.InfoContext(ctx, "Initializing party module")

	broadcaster := partyservice.NewBroadcaster(bus.Publisher, logger, obs.Metrics, 0)
	hub := realtime.NewHub(bus.Subscriber, logger, obs.Metrics, realtime.DefaultBuffer)
	service := partyservice.NewPartyService(
		partydb.NewRepository(db),
		users,
		store,
		cfg.Redis.LeaderboardTTL,
		broadcaster,
		logger,
		obs.Metrics,
		tracer,
		obs.Faults,
		db,
	)

	service.WithConnectionEvictor(hub)

	handlers := partyhandlers.NewPartyHandlers(service, hub, logger, tracer)
	if router != nil {
		handlers.Routes(router)
	}

	return &Module{
		service:     service,
		broadcaster: broadcaster,
		hub:         hub,
		handlers:    handlers,
		obs:         obs,
	}
}

// GetService returns the party service. It also satisfies the application
// module's PartyHooks.
func (m *Module) GetService() *partyservice.PartyService {
	return m.service
}

// Run blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.obs.Logger
	logger.InfoContext(ctx, "Starting party module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Party module goroutine stopped")
}

// Close disconnects realtime clients and waits for in-flight broadcasts.
func (m *Module) Close(ctx context.Context) error {
	logger := m.obs.Logger
	logger.Info("Stopping party module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	m.hub.Close()

	done := make(chan struct{})
	go func() {
		m.broadcaster.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("Party module stopped before broadcasts drained")
		return ctx.Err()
	}

	logger.Info("Party module stopped")
	return nil
}
