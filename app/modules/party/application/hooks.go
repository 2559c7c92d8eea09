package partyservice

import (
	"cmp"
	"context"
	"errors"
	"slices"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	authdomain "github.com/Black-And-White-Club/hunting-party/app/modules/auth/domain"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	partydb "github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/repositories"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordActivity appends input to the user's active party feed within db.
// A user outside any party gets nil and no error.
func (s *PartyService) RecordActivity(ctx context.Context, db bun.IDB, input partydomain.ActivityInput) (*partydomain.ActivityEvent, error) {
	membership, err := s.repo.GetActiveMembership(ctx, db, input.UserID)
	if err != nil {
		if errors.Is(err, partydb.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return s.appendActivity(ctx, db, membership.PartyID, input)
}

// DetectMilestone appends a milestone when applicationCount lands exactly on
// a threshold the user has not yet been credited for in their party.
func (s *PartyService) DetectMilestone(ctx context.Context, userID string, applicationCount int) (*partydomain.ActivityEvent, error) {
	label, ok := scoringdomain.MilestoneFor(applicationCount)
	if !ok {
		return nil, nil
	}

	detectTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*partydomain.ActivityEvent, error], error) {
		membership, err := s.repo.GetActiveMembership(ctx, db, userID)
		if err != nil {
			if errors.Is(err, partydb.ErrNotFound) {
				return results.SuccessResult[*partydomain.ActivityEvent, error](nil), nil
			}
			return results.OperationResult[*partydomain.ActivityEvent, error]{}, err
		}

		exists, err := s.repo.MilestoneExists(ctx, db, membership.PartyID, userID, label)
		if err != nil {
			return results.OperationResult[*partydomain.ActivityEvent, error]{}, err
		}
		if exists {
			return results.SuccessResult[*partydomain.ActivityEvent, error](nil), nil
		}

		activity, err := s.appendActivity(ctx, db, membership.PartyID, partydomain.ActivityInput{
			UserID: userID,
			Kind:   partydomain.ActivityMilestone,
			Label:  label,
		})
		if err != nil {
			return results.OperationResult[*partydomain.ActivityEvent, error]{}, err
		}
		return results.SuccessResult[*partydomain.ActivityEvent, error](activity), nil
	}

	result, err := withTelemetry(s, ctx, "DetectMilestone", userID, func(ctx context.Context) (results.OperationResult[*partydomain.ActivityEvent, error], error) {
		return runInTx(s, ctx, detectTx)
	})
	return unwrap(result, err)
}

// Notify schedules realtime pushes for a committed mutation. Pushes for one
// party are published in the order Notify was called.
func (s *PartyService) Notify(userID string, activities []*partydomain.ActivityEvent, pointsChanged bool) {
	if s.broadcaster == nil {
		return
	}
	activities = slices.DeleteFunc(slices.Clone(activities), func(a *partydomain.ActivityEvent) bool { return a == nil })
	if len(activities) == 0 && !pointsChanged {
		return
	}

	var partyID uuid.UUID
	if len(activities) > 0 {
		partyID = activities[0].PartyID
	} else {
		ctx, cancel := s.broadcaster.detached()
		membership, err := s.repo.GetActiveMembership(ctx, nil, userID)
		cancel()
		if err != nil {
			if !errors.Is(err, partydb.ErrNotFound) {
				s.logger.Warn("Failed to resolve party for realtime push", attr.String("user_id", userID), attr.Error(err))
			}
			return
		}
		partyID = membership.PartyID
	}

	s.broadcaster.GoOrdered(partyID.String(), "notify", func(ctx context.Context) error {
		return s.publishPartyUpdate(ctx, partyID, userID, activities, pointsChanged)
	})
}

// refreshParty schedules the pushes for a membership change. The roster
// changed, so the leaderboard is always rebuilt.
func (s *PartyService) refreshParty(partyID uuid.UUID, userID string, activities []*partydomain.ActivityEvent) {
	if s.broadcaster == nil {
		return
	}
	s.broadcaster.GoOrdered(partyID.String(), "membership", func(ctx context.Context) error {
		return s.publishPartyUpdate(ctx, partyID, userID, activities, true)
	})
}

// publishPartyUpdate pushes activities in creation order, then, when the
// ranking may have moved, the rebuilt leaderboard and the actor's rivalry.
// A failed publish does not stop the ones after it.
func (s *PartyService) publishPartyUpdate(ctx context.Context, partyID uuid.UUID, userID string, activities []*partydomain.ActivityEvent, rankingChanged bool) error {
	var (
		entries []partydomain.LeaderboardEntry
		err     error
	)
	if rankingChanged {
		entries, err = s.rebuildLeaderboard(ctx, partyID)
	} else {
		entries, err = s.leaderboard(ctx, partyID)
	}
	if err != nil {
		return err
	}
	names := make(map[string]string, len(entries))
	for _, e := range entries {
		names[e.UserID] = e.DisplayName
	}

	slices.SortFunc(activities, func(a, b *partydomain.ActivityEvent) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})

	topic := partydomain.PartyTopic(partyID)
	var errs []error
	for _, a := range activities {
		if name, ok := names[a.UserID]; ok && name != "" {
			a.DisplayName = name
		}
		errs = append(errs, s.broadcaster.Publish(ctx, topic, partydomain.EventActivityEventCreated, partyID, a.UserID, a))
	}

	if rankingChanged {
		errs = append(errs, s.broadcaster.Publish(ctx, topic, partydomain.EventLeaderboardUpdated, partyID, "", entries))
		if userID != "" {
			if view := partydomain.ComputeRivalry(entries, userID); view != nil {
				errs = append(errs, s.broadcaster.Publish(ctx, partydomain.UserTopic(partyID, userID), partydomain.EventRivalryUpdated, partyID, userID, view))
			}
		}
	}
	return errors.Join(errs...)
}

// appendActivity writes one feed row within db. A milestone that already
// exists yields nil.
func (s *PartyService) appendActivity(ctx context.Context, db bun.IDB, partyID uuid.UUID, input partydomain.ActivityInput) (*partydomain.ActivityEvent, error) {
	row := &partydb.Activity{
		PartyID:     partyID,
		UserID:      input.UserID,
		Kind:        input.Kind,
		PointsDelta: input.PointsDelta,
		Company:     input.Company,
		Role:        input.Role,
		Label:       input.Label,
		CreatedAt:   s.now(),
	}
	inserted, err := s.repo.InsertActivity(ctx, db, row)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return nil, nil
	}
	event := row.ToDomain()
	event.DisplayName = authdomain.CurrentDisplayName(ctx)
	return &event, nil
}
