package partyservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	partydb "github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/repositories"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/Black-And-White-Club/hunting-party/app/observability"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/Black-And-White-Club/hunting-party/app/shared/cache"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	serviceName = "PartyService"
	// DefaultLeaderboardTTL bounds how long a missed invalidation can serve a stale ranking.
	DefaultLeaderboardTTL = 30 * time.Second
)

// PartyService owns parties, memberships, the activity feed and leaderboards.
// It also implements the hooks the application cascade calls into.
type PartyService struct {
	repo        partydb.Repository
	users       userservice.Service
	cache       cache.Store
	cacheTTL    time.Duration
	broadcaster *Broadcaster
	logger      *slog.Logger
	metrics     observability.ServiceMetrics
	tracer      trace.Tracer
	faults      observability.FaultReporter
	db          *bun.DB
	now         func() time.Time
	// inviteEntropy feeds invite code generation; nil means crypto/rand.
	inviteEntropy io.Reader

	connections ConnectionEvictor
}

// ConnectionEvictor drops a user's live realtime connections to a party.
type ConnectionEvictor interface {
	Evict(partyID uuid.UUID, userID string) int
}

// NewPartyService creates a new PartyService. A nil store disables caching.
func NewPartyService(
	repo partydb.Repository,
	users userservice.Service,
	store cache.Store,
	cacheTTL time.Duration,
	broadcaster *Broadcaster,
	logger *slog.Logger,
	metrics observability.ServiceMetrics,
	tracer trace.Tracer,
	faults observability.FaultReporter,
	db *bun.DB,
) *PartyService {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoOpMetrics{}
	}
	if faults == nil {
		faults = observability.NewLogFaultReporter(logger)
	}
	if store == nil {
		store = cache.NoopStore{}
	}
	if cacheTTL <= 0 {
		cacheTTL = DefaultLeaderboardTTL
	}
	return &PartyService{
		repo:        repo,
		users:       users,
		cache:       store,
		cacheTTL:    cacheTTL,
		broadcaster: broadcaster,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		faults:      faults,
		db:          db,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// WithConnectionEvictor lets LeaveParty disconnect the leaver's open streams.
func (s *PartyService) WithConnectionEvictor(e ConnectionEvictor) *PartyService {
	s.connections = e
	return s
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

// operationFunc is the generic signature for service operation functions.
type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *PartyService,
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
	s *PartyService,
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
