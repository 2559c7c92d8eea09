package applicationservice

import (
	"context"
	"errors"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/uptrace/bun"
)

// Ledger reasons recorded in the user's point history.
const (
	reasonApplicationLogged  = "application_logged"
	reasonEventRecorded      = "timeline_event_recorded"
	reasonEventEdited        = "timeline_event_edited"
	reasonEventDeleted       = "timeline_event_deleted"
	reasonApplicationDeleted = "application_deleted"
)

// mutationOutcome carries what the post-commit steps need.
type mutationOutcome struct {
	delta      int
	activities []*partydomain.ActivityEvent
	// applicationCount is set for application-logged actions only; -1 otherwise.
	applicationCount int
	enrich           bool
}

// recompute re-resolves the application's status and points from its full
// event set, persists them, and moves the owner's total by the difference.
// db must be the transaction holding the application lock.
func (s *ApplicationService) recompute(ctx context.Context, db bun.IDB, app *applicationdb.Application, reason string) (int, error) {
	events, err := s.repo.ListEvents(ctx, db, app.ID)
	if err != nil {
		return 0, err
	}

	status := scoringdomain.ResolveStatus(events)
	points := s.rules.PointsForStatus(status)
	delta := points - app.Points
	now := s.now()

	if err := s.repo.UpdateDerived(ctx, db, app.ID, status, points, now); err != nil {
		if errors.Is(err, applicationdb.ErrNoRowsAffected) {
			return 0, apperrors.Fault("StatusResolver.recompute", err)
		}
		return 0, err
	}
	app.Status, app.Points, app.UpdatedAt = status, points, now

	if delta != 0 {
		appID := app.ID
		if _, err := s.users.ApplyDelta(ctx, db, userservice.PointChange{
			UserID:        app.UserID,
			ApplicationID: &appID,
			Delta:         delta,
			Reason:        reason,
		}); err != nil {
			return 0, err
		}
	}
	return delta, nil
}

// qualify runs the streak and activity steps for a qualifying action.
func (s *ApplicationService) qualify(ctx context.Context, db bun.IDB, input partydomain.ActivityInput) ([]*partydomain.ActivityEvent, error) {
	// Streak days follow when the user acted, not a backdated occurred time.
	if _, err := s.users.UpdateStreak(ctx, db, input.UserID, s.now()); err != nil {
		return nil, err
	}

	activity, err := s.party.RecordActivity(ctx, db, input)
	if err != nil {
		return nil, err
	}
	if activity == nil {
		return nil, nil
	}
	return []*partydomain.ActivityEvent{activity}, nil
}

// afterCommit runs milestone detection and schedules broadcasts. Nothing here
// can fail the mutation that already committed.
func (s *ApplicationService) afterCommit(ctx context.Context, userID string, out mutationOutcome) {
	activities := out.activities

	if out.enrich && s.enrichment != nil {
		if err := s.enrichment.Kick(ctx); err != nil {
			s.logger.WarnContext(ctx, "Failed to enqueue enrichment sweep", attr.Error(err))
		}
	}

	if out.applicationCount > 0 {
		milestone, err := s.party.DetectMilestone(ctx, userID, out.applicationCount)
		if err != nil {
			s.logger.WarnContext(ctx, "Milestone detection failed",
				attr.String("user_id", userID),
				attr.Int("application_count", out.applicationCount),
				attr.Error(err),
			)
		} else if milestone != nil {
			activities = append(activities, milestone)
		}
	}

	if len(activities) == 0 && out.delta == 0 {
		return
	}
	s.party.Notify(userID, activities, out.delta != 0)
}
