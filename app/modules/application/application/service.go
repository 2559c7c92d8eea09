package applicationservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	applicationdomain "github.com/Black-And-White-Club/hunting-party/app/modules/application/domain"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const serviceName = "ApplicationService"

// ApplicationService owns applications and their timelines and drives the
// scoring cascade for every timeline mutation.
type ApplicationService struct {
	repo     applicationdb.Repository
	users    userservice.Service
	party    PartyHooks
	rules    scoringdomain.Rules
	occurred *applicationdomain.OccurredParser
	logger   *slog.Logger
	metrics  observability.ServiceMetrics
	tracer   trace.Tracer
	faults   observability.FaultReporter
	db       *bun.DB
	now      func() time.Time

	enrichment EnrichmentQueue
}

// NewApplicationService creates a new ApplicationService.
func NewApplicationService(
	repo applicationdb.Repository,
	users userservice.Service,
	party PartyHooks,
	rules scoringdomain.Rules,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
	tracer trace.Tracer,
	faults observability.FaultReporter,
	db *bun.DB,
) *ApplicationService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	if faults == nil {
		faults = observability.NewLogFaultReporter(logger)
	}
	if party == nil {
		party = NoopPartyHooks{}
	}
	return &ApplicationService{
		repo:     repo,
		users:    users,
		party:    party,
		rules:    rules,
		occurred: applicationdomain.NewOccurredParser(),
		logger:   logger,
		metrics:  metrics,
		tracer:   tracer,
		faults:   faults,
		db:       db,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// WithEnrichmentQueue lets LogApplication request an early enrichment sweep.
func (s *ApplicationService) WithEnrichmentQueue(q EnrichmentQueue) *ApplicationService {
	s.enrichment = q
	return s
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *ApplicationService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, serviceName+"."+operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)

	startTime := time.Now()
	defer func() {
		s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
	}()

	s.logger.InfoContext(ctx, "Operation triggered", attr.String("operation", operationName))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				attr.String("identifier", identifier),
				attr.Error(err),
			)
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		if errors.Is(err, apperrors.ErrConsistencyFault) {
			s.faults.ReportFault(ctx, operationName, wrappedErr)
		} else {
			s.logger.ErrorContext(ctx, "Operation failed with error",
				attr.String("operation", operationName),
				attr.String("identifier", identifier),
				attr.Error(wrappedErr),
			)
		}
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			attr.String("operation", operationName),
			attr.String("identifier", identifier),
			attr.Any("failure_payload", *result.Failure),
		)
		s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		return result, nil
	}

	s.logger.InfoContext(ctx, "Operation completed successfully",
		attr.String("operation", operationName),
		attr.String("identifier", identifier),
	)
	s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)

	return result, nil
}

// runInTx ensures the operation runs within a transaction.
func runInTx[S any, F any](
	s *ApplicationService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		if txErr == nil && result.IsFailure() {
			// Roll back partial writes made before a domain failure was detected.
			return errDomainFailure
		}
		return txErr
	})
	if errors.Is(err, errDomainFailure) {
		return result, nil
	}
	return result, err
}

var errDomainFailure = errors.New("domain failure")

// unwrap converts an OperationResult into the (value, error) public boundary.
func unwrap[S any](result results.OperationResult[S, error], err error) (S, error) {
	var zero S
	if err != nil {
		return zero, err
	}
	if result.IsFailure() {
		return zero, *result.Failure
	}
	return *result.Success, nil
}
