package userservice

import (
	"context"
	"errors"
	"fmt"
	"time"

	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	userdb "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// UpdateStreak advances the user's streak for a qualifying action at `at`.
// The user row is locked for the rest of db's transaction.
func (s *UserService) UpdateStreak(ctx context.Context, db bun.IDB, userID string, at time.Time) (*StreakResult, error) {
	if s.tracer != nil {
		var span trace.Span
		ctx, span = s.tracer.Start(ctx, "UserService.UpdateStreak", trace.WithAttributes(
			attribute.String("user_id", userID),
		))
		defer span.End()
	}

	user, err := s.repo.GetUserForUpdate(ctx, db, userID)
	if err != nil {
		if errors.Is(err, userdb.ErrNotFound) {
			return nil, apperrors.Fault("StreakTracker.UpdateStreak", fmt.Errorf("user %s vanished: %w", userID, err))
		}
		return nil, fmt.Errorf("StreakTracker.UpdateStreak: %w", err)
	}

	next, update := scoringdomain.AdvanceStreak(scoringdomain.StreakState{
		Current:        user.CurrentStreak,
		Longest:        user.LongestStreak,
		LastActivityAt: user.LastActivityAt,
	}, at)

	if err := s.repo.UpdateStreak(ctx, db, userID, next.Current, next.Longest, *next.LastActivityAt); err != nil {
		if errors.Is(err, userdb.ErrNoRowsAffected) {
			return nil, apperrors.Fault("StreakTracker.UpdateStreak", err)
		}
		return nil, fmt.Errorf("StreakTracker.UpdateStreak: %w", err)
	}

	return &StreakResult{
		CurrentStreak:  update.CurrentStreak,
		LongestStreak:  update.LongestStreak,
		PreviousStreak: update.PreviousStreak,
		Incremented:    update.Incremented,
		Broken:         update.Broken,
	}, nil
}
