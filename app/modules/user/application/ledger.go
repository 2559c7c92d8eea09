package userservice

import (
	"context"
	"errors"
	"fmt"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	userdb "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// ApplyDelta adds change.Delta to the user's running total inside db.
// A zero delta touches nothing. A missing user is a consistency fault.
func (s *UserService) ApplyDelta(ctx context.Context, db bun.IDB, change PointChange) (*LedgerResult, error) {
	if change.Delta == 0 {
		return &LedgerResult{}, nil
	}

	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "UserService.ApplyDelta", trace.WithAttributes(
			attribute.String("user_id", change.UserID),
			attribute.Int("delta", change.Delta),
		))
		defer span.End()
	}

	total, err := s.repo.AddPoints(ctx, db, change.UserID, change.Delta)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return nil, apperrors.Fault("PointsLedger.ApplyDelta", fmt.Errorf("user %s vanished: %w", change.UserID, err))
		}
		return nil, apperrors.Fault("PointsLedger.ApplyDelta", err)
	}

	if err := s.repo.InsertPointHistory(ctx, db, &userdb.PointHistory{
		UserID:        change.UserID,
		ApplicationID: change.ApplicationID,
		Delta:         change.Delta,
		TotalAfter:    total,
		Reason:        change.Reason,
		CreatedAt:     s.now(),
	}); err != nil {
		return nil, apperrors.Fault("PointsLedger.ApplyDelta", err)
	}

	s.metrics.RecordPointsDelta(ctx, change.Delta)
	s.logger.DebugContext(ctx, "Applied point delta",
		attr.String("user_id", change.UserID),
		attr.Int("delta", change.Delta),
		attr.Any("total_points", total),
		attr.String("reason", change.Reason),
	)

	return &LedgerResult{Delta: change.Delta, TotalPoints: total, Applied: true}, nil
}
