package applicationqueue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
)

const (
	queueName   = "enrichment"
	serviceName = "river"
)

// QueueService schedules and runs the enrichment sweep.
type QueueService interface {
	// Kick asks for a sweep soon instead of waiting for the next interval.
	Kick(ctx context.Context) error
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

var _ QueueService = (*Service)(nil)

// Service runs the enrichment sweep as a River periodic job.
type Service struct {
	client  *river.Client[pgx.Tx]
	pool    *pgxpool.Pool
	logger  *slog.Logger
	metrics observability.ServiceMetrics
}

// EnrichmentSweepWorker runs a Sweeper for each sweep job.
type EnrichmentSweepWorker struct {
	river.WorkerDefaults[EnrichmentSweepJob]
	sweeper *Sweeper
}

// NewEnrichmentSweepWorker creates the worker.
func NewEnrichmentSweepWorker(sweeper *Sweeper) *EnrichmentSweepWorker {
	return &EnrichmentSweepWorker{sweeper: sweeper}
}

func (w *EnrichmentSweepWorker) Work(ctx context.Context, _ *river.Job[EnrichmentSweepJob]) error {
	_, err := w.sweeper.Sweep(ctx)
	return err
}

// Timeout bounds a single sweep.
func (w *EnrichmentSweepWorker) Timeout(*river.Job[EnrichmentSweepJob]) time.Duration {
	return 5 * time.Minute
}

// NewService creates a River client with the sweep registered as a periodic job.
func NewService(ctx context.Context, logger *slog.Logger, dsn string, metrics observability.ServiceMetrics, sweeper *Sweeper, interval time.Duration) (*Service, error) {
	ctxLogger := logger.With(
		attr.String("operation", "new_enrichment_queue_service"),
		attr.String("component", "river_queue"),
	)
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	if interval <= 0 {
		interval = 30 * time.Second
	}

	start := time.Now()
	metrics.RecordOperationAttempt(ctx, "initialize_service", serviceName)

	// River requires pgx, not database/sql
	config, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to parse DSN: %w", err)
	}

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create pgx pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	workers := river.NewWorkers()
	river.AddWorker(workers, NewEnrichmentSweepWorker(sweeper))

	riverClient, err := river.NewClient(riverpgxv5.New(pool), &river.Config{
		Queues: map[string]river.QueueConfig{
			queueName: {MaxWorkers: 1},
		},
		Workers: workers,
		PeriodicJobs: []*river.PeriodicJob{
			river.NewPeriodicJob(
				river.PeriodicInterval(interval),
				func() (river.JobArgs, *river.InsertOpts) {
					return EnrichmentSweepJob{}, sweepInsertOpts()
				},
				&river.PeriodicJobOpts{RunOnStart: true},
			),
		},
	})
	if err != nil {
		pool.Close()
		metrics.RecordOperationFailure(ctx, "initialize_service", serviceName)
		return nil, fmt.Errorf("failed to create River client: %w", err)
	}

	metrics.RecordOperationSuccess(ctx, "initialize_service", serviceName)
	metrics.RecordOperationDuration(ctx, "initialize_service", serviceName, time.Since(start))
	ctxLogger.Info("Enrichment queue service initialized", attr.Duration("interval", interval))

	return &Service{
		client:  riverClient,
		pool:    pool,
		logger:  ctxLogger,
		metrics: metrics,
	}, nil
}

// sweepInsertOpts coalesces bursts of kicks into one sweep.
func sweepInsertOpts() *river.InsertOpts {
	return &river.InsertOpts{
		Queue:       queueName,
		MaxAttempts: 1,
		UniqueOpts: river.UniqueOpts{
			ByPeriod: 5 * time.Second,
		},
	}
}

// Kick enqueues an immediate sweep.
func (s *Service) Kick(ctx context.Context) error {
	if _, err := s.client.Insert(ctx, EnrichmentSweepJob{}, sweepInsertOpts()); err != nil {
		return fmt.Errorf("failed to enqueue enrichment sweep: %w", err)
	}
	return nil
}

// Start starts the River client.
func (s *Service) Start(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "start_service", serviceName)
	if err := s.client.Start(ctx); err != nil {
		s.logger.Error("Failed to start River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "start_service", serviceName)
		return fmt.Errorf("failed to start River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "start_service", serviceName)
	s.logger.Info("Enrichment queue service started")
	return nil
}

// Stop stops the River client and closes its pool.
func (s *Service) Stop(ctx context.Context) error {
	s.metrics.RecordOperationAttempt(ctx, "stop_service", serviceName)
	defer s.pool.Close()
	if err := s.client.Stop(ctx); err != nil {
		s.logger.Error("Failed to stop River client", attr.Error(err))
		s.metrics.RecordOperationFailure(ctx, "stop_service", serviceName)
		return fmt.Errorf("failed to stop River client: %w", err)
	}
	s.metrics.RecordOperationSuccess(ctx, "stop_service", serviceName)
	s.logger.Info("Enrichment queue service stopped")
	return nil
}
