package applicationqueue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	applicationdomain "github.com/Black-And-White-Club/hunting-party/app/modules/application/domain"
	postingparser "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/parser"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Enrichment outcomes recorded per item.
const (
	OutcomeEnriched  = "enriched"
	OutcomeRetry     = "retry"
	OutcomeFailed    = "failed"
	OutcomeSaveError = "save_error"
)

// Store is the slice of the application repository the sweeper needs.
type Store interface {
	ClaimForEnrichment(ctx context.Context, db bun.IDB, limit int, staleAfter time.Duration) ([]applicationdb.Application, error)
	SaveEnrichment(ctx context.Context, db bun.IDB, id uuid.UUID, result applicationdb.EnrichmentResult) error
}

// SweepReport counts what one sweep did.
type SweepReport struct {
	Claimed  int
	Enriched int
	Retried  int
	Failed   int
}

// Sweeper runs one enrichment pass. Items are isolated from each other: a
// parser or write failure on one application never stops the batch.
type Sweeper struct {
	store      Store
	parser     postingparser.Parser
	logger     *slog.Logger
	metrics    observability.EnrichmentMetrics
	tracer     trace.Tracer
	batchSize  int
	staleAfter time.Duration
	itemTTL    time.Duration
	now        func() time.Time
}

// NewSweeper creates a Sweeper.
func NewSweeper(store Store, parser postingparser.Parser, logger *slog.Logger, metrics observability.EnrichmentMetrics, tracer trace.Tracer, batchSize int) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	if batchSize <= 0 {
		batchSize = 20
	}
	return &Sweeper{
		store:      store,
		parser:     parser,
		logger:     logger,
		metrics:    metrics,
		tracer:     tracer,
		batchSize:  batchSize,
		staleAfter: 10 * time.Minute,
		itemTTL:    20 * time.Second,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Sweep claims a batch and processes it. Only the claim itself can fail the sweep.
func (s *Sweeper) Sweep(ctx context.Context) (SweepReport, error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, "EnrichmentSweeper.Sweep")
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	var report SweepReport
	apps, err := s.store.ClaimForEnrichment(ctx, nil, s.batchSize, s.staleAfter)
	if err != nil {
		span.RecordError(err)
		return report, fmt.Errorf("claim enrichment batch: %w", err)
	}
	report.Claimed = len(apps)
	span.SetAttributes(attribute.Int("claimed", len(apps)))

	for i := range apps {
		switch s.process(ctx, &apps[i]) {
		case OutcomeEnriched:
			report.Enriched++
		case OutcomeRetry:
			report.Retried++
		default:
			report.Failed++
		}
	}

	if report.Claimed > 0 {
		s.logger.InfoContext(ctx, "Enrichment sweep finished",
			attr.Int("claimed", report.Claimed),
			attr.Int("enriched", report.Enriched),
			attr.Int("retried", report.Retried),
			attr.Int("failed", report.Failed),
		)
	}
	return report, nil
}

func (s *Sweeper) process(ctx context.Context, app *applicationdb.Application) (outcome string) {
	defer func() {
		if r := recover(); r != nil {
			s.logger.ErrorContext(ctx, "Panic while enriching application",
				attr.String("application_id", app.ID.String()),
				attr.Any("panic", r),
			)
			outcome = OutcomeFailed
		}
		s.metrics.RecordEnrichment(ctx, outcome)
	}()

	itemCtx, cancel := context.WithTimeout(ctx, s.itemTTL)
	defer cancel()

	result := applicationdb.EnrichmentResult{
		Attempts: app.EnrichmentAttempts + 1,
		At:       s.now(),
	}

	posting, err := s.parser.Parse(itemCtx, app.PostingURL)
	switch {
	case err == nil:
		result.Status = applicationdomain.EnrichmentDone
		result.Company = optional(posting.Company)
		result.Role = optional(posting.Role)
		result.Location = optional(posting.Location)
		outcome = OutcomeEnriched
	case errors.Is(err, postingparser.ErrUnparseable) || result.Attempts >= applicationdomain.MaxEnrichmentAttempts:
		msg := err.Error()
		result.Status = applicationdomain.EnrichmentFailed
		result.Error = &msg
		outcome = OutcomeFailed
	default:
		msg := err.Error()
		result.Status = applicationdomain.EnrichmentPending
		result.Error = &msg
		outcome = OutcomeRetry
	}
	if err != nil {
		s.logger.WarnContext(ctx, "Posting parser failed",
			attr.String("application_id", app.ID.String()),
			attr.Int("attempt", result.Attempts),
			attr.Error(err),
		)
	}

	// The lease is released by the write; a failed write leaves it to expire.
	if err := s.store.SaveEnrichment(ctx, nil, app.ID, result); err != nil {
		s.logger.ErrorContext(ctx, "Failed to save enrichment",
			attr.String("application_id", app.ID.String()),
			attr.Error(err),
		)
		return OutcomeSaveError
	}
	return outcome
}

func optional(v string) *string {
	if v == "" {
		return nil
	}
	return &v
}
