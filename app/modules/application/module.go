package application

import (
	"context"
	"fmt"
	"sync"

	applicationservice "github.com/Black-And-White-Club/hunting-party/app/modules/application/application"
	applicationhandlers "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/handlers"
	postingparser "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/parser"
	applicationqueue "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/queue"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/Black-And-White-Club/hunting-party/config"
	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
)

// Module owns applications, timelines and posting enrichment.
type Module struct {
	service    *applicationservice.ApplicationService
	handlers   *applicationhandlers.ApplicationHandlers
	queue      *applicationqueue.Service
	cancelFunc context.CancelFunc
	obs        *observability.Observability
}

// NewModule creates the application module and mounts its routes on router.
// party may be nil when realtime party features are not wired.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs *observability.Observability,
	db *bun.DB,
	router chi.Router,
	users userservice.Service,
	party applicationservice.PartyHooks,
) (*Module, error) {
	logger := obs.Logger
	tracer := obs.Tracer("application")

	logger.InfoContext(ctx, "Initializing application module")

	repo := applicationdb.NewRepository(db)
	rules := scoringdomain.NewRules(cfg.Scoring.RejectedPoints)
	service := applicationservice.NewApplicationService(repo, users, party, rules, logger, obs.Metrics, tracer, obs.Faults, db)

	m := &Module{service: service, obs: obs}

	if cfg.Enrichment.Enabled && cfg.Enrichment.ParserURL != "" {
		sweeper := applicationqueue.NewSweeper(repo, postingparser.NewHTTPParser(cfg.Enrichment.ParserURL, nil), logger, obs.Metrics, tracer, cfg.Enrichment.BatchSize)
		queue, err := applicationqueue.NewService(ctx, logger, cfg.Postgres.DSN, obs.Metrics, sweeper, cfg.Enrichment.Interval)
		if err != nil {
			return nil, fmt.Errorf("failed to create enrichment queue: %w", err)
		}
		m.queue = queue
		service.WithEnrichmentQueue(queue)
	}

	m.handlers = applicationhandlers.NewApplicationHandlers(service, logger, tracer)
	if router != nil {
		m.handlers.Routes(router)
	}
	return m, nil
}

// GetService returns the application service.
func (m *Module) GetService() applicationservice.Service {
	return m.service
}

// Run starts the enrichment queue and blocks until ctx is done.
func (m *Module) Run(ctx context.Context, wg *sync.WaitGroup) {
	logger := m.obs.Logger
	logger.InfoContext(ctx, "Starting application module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if wg != nil {
		defer wg.Done()
	}

	if m.queue != nil {
		if err := m.queue.Start(ctx); err != nil {
			logger.ErrorContext(ctx, "Enrichment queue failed to start", "error", err)
		}
	}

	<-ctx.Done()
	logger.InfoContext(ctx, "Application module goroutine stopped")
}

// Close stops the enrichment queue.
func (m *Module) Close(ctx context.Context) error {
	logger := m.obs.Logger
	logger.Info("Stopping application module")

	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if m.queue != nil {
		if err := m.queue.Stop(ctx); err != nil {
			return fmt.Errorf("error stopping enrichment queue: %w", err)
		}
	}

	logger.Info("Application module stopped")
	return nil
}
