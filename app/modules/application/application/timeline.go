package applicationservice

import (
	"context"
	"errors"
	"strings"

	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// RecordTimelineEvent adds a stage to an application and runs the cascade.
func (s *ApplicationService) RecordTimelineEvent(ctx context.Context, userID string, applicationID uuid.UUID, input TimelineEventInput) (*TimelineEventView, error) {
	var outcome mutationOutcome

	recordTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*TimelineEventView, error], error) {
		kind, err := scoringdomain.ParseStage(input.Kind)
		if err != nil {
			return results.FailureResult[*TimelineEventView](err), nil
		}
		if err := validateRound(kind, input.InterviewRound); err != nil {
			return results.FailureResult[*TimelineEventView](err), nil
		}

		now := s.now()
		occurredAt, err := s.occurred.Parse(input.Occurred, now)
		if err != nil {
			return results.FailureResult[*TimelineEventView](err), nil
		}

		app, err := s.repo.LockApplication(ctx, db, userID, applicationID)
		if err != nil {
			if errors.Is(err, applicationdb.ErrNotFound) {
				return results.FailureResult[*TimelineEventView](apperrors.NotFound("application")), nil
			}
			return results.OperationResult[*TimelineEventView, error]{}, err
		}

		event := &applicationdb.TimelineEvent{
			ID:             uuid.New(),
			ApplicationID:  app.ID,
			Kind:           kind,
			InterviewRound: input.InterviewRound,
			OccurredAt:     occurredAt,
			Notes:          strings.TrimSpace(input.Notes),
			Points:         s.rules.PointsForEvent(kind, input.InterviewRound),
			CreatedAt:      now,
		}
		if err := s.repo.InsertEvent(ctx, db, event); err != nil {
			return results.OperationResult[*TimelineEventView, error]{}, err
		}

		delta, err := s.recompute(ctx, db, app, reasonEventRecorded)
		if err != nil {
			return results.OperationResult[*TimelineEventView, error]{}, err
		}

		activities, err := s.qualify(ctx, db, partydomain.ActivityInput{
			UserID:      userID,
			Kind:        partydomain.ActivityEventRecorded,
			PointsDelta: delta,
			Company:     app.Company,
			Role:        app.Role,
			Label:       kind.String(),
		})
		if err != nil {
			return results.OperationResult[*TimelineEventView, error]{}, err
		}

		outcome = mutationOutcome{delta: delta, activities: activities, applicationCount: -1}
		view := toEventView(event, app)
		return results.SuccessResult[*TimelineEventView, error](&view), nil
	}

	result, err := withTelemetry(s, ctx, "RecordTimelineEvent", applicationID.String(), func(ctx context.Context) (results.OperationResult[*TimelineEventView, error], error) {
		res, err := runInTx(s, ctx, recordTx)
		if err == nil && res.IsSuccess() {
			s.afterCommit(ctx, userID, outcome)
		}
		return res, err
	})
	return unwrap(result, err)
}

// EditTimelineEvent patches an event and re-runs the ledger part of the
// cascade. Edits are not qualifying actions.
func (s *ApplicationService) EditTimelineEvent(ctx context.Context, userID string, applicationID, eventID uuid.UUID, patch TimelineEventPatch) (*TimelineEventView, error) {
	var outcome mutationOutcome

	editTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*TimelineEventView, error], error) {
		app, err := s.repo.LockApplication(ctx, db, userID, applicationID)
		if err != nil {
			if errors.Is(err, applicationdb.ErrNotFound) {
				return results.FailureResult[*TimelineEventView](apperrors.NotFound("application")), nil
			}
			return results.OperationResult[*TimelineEventView, error]{}, err
		}

		event, err := s.repo.GetEvent(ctx, db, app.ID, eventID)
		if err != nil {
			if errors.Is(err, applicationdb.ErrNotFound) {
				return results.FailureResult[*TimelineEventView](apperrors.NotFound("timeline event")), nil
			}
			return results.OperationResult[*TimelineEventView, error]{}, err
		}

		if err := s.applyPatch(event, patch); err != nil {
			return results.FailureResult[*TimelineEventView](err), nil
		}

		if err := s.repo.UpdateEvent(ctx, db, event); err != nil {
			return results.OperationResult[*TimelineEventView, error]{}, err
		}

		delta, err := s.recompute(ctx, db, app, reasonEventEdited)
		if err != nil {
			return results.OperationResult[*TimelineEventView, error]{}, err
		}

		outcome = mutationOutcome{delta: delta, applicationCount: -1}
		view := toEventView(event, app)
		return results.SuccessResult[*TimelineEventView, error](&view), nil
	}

	result, err := withTelemetry(s, ctx, "EditTimelineEvent", eventID.String(), func(ctx context.Context) (results.OperationResult[*TimelineEventView, error], error) {
		res, err := runInTx(s, ctx, editTx)
		if err == nil && res.IsSuccess() {
			s.afterCommit(ctx, userID, outcome)
		}
		return res, err
	})
	return unwrap(result, err)
}

// DeleteTimelineEvent removes an event. It reports false when the event does
// not belong to the application.
func (s *ApplicationService) DeleteTimelineEvent(ctx context.Context, userID string, applicationID, eventID uuid.UUID) (bool, error) {
	var outcome mutationOutcome

	deleteTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		app, err := s.repo.LockApplication(ctx, db, userID, applicationID)
		if err != nil {
			if errors.Is(err, applicationdb.ErrNotFound) {
				return results.FailureResult[bool](apperrors.NotFound("application")), nil
			}
			return results.OperationResult[bool, error]{}, err
		}

		if err := s.repo.DeleteEvent(ctx, db, app.ID, eventID); err != nil {
			if errors.Is(err, applicationdb.ErrNotFound) {
				return results.SuccessResult[bool, error](false), nil
			}
			return results.OperationResult[bool, error]{}, err
		}

		delta, err := s.recompute(ctx, db, app, reasonEventDeleted)
		if err != nil {
			return results.OperationResult[bool, error]{}, err
		}

		outcome = mutationOutcome{delta: delta, applicationCount: -1}
		return results.SuccessResult[bool, error](true), nil
	}

	result, err := withTelemetry(s, ctx, "DeleteTimelineEvent", eventID.String(), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		res, err := runInTx(s, ctx, deleteTx)
		if err == nil && res.IsSuccess() && *res.Success {
			s.afterCommit(ctx, userID, outcome)
		}
		return res, err
	})
	return unwrap(result, err)
}

func (s *ApplicationService) applyPatch(event *applicationdb.TimelineEvent, patch TimelineEventPatch) error {
	if patch.Kind != nil {
		kind, err := scoringdomain.ParseStage(*patch.Kind)
		if err != nil {
			return err
		}
		event.Kind = kind
	}

	switch {
	case patch.ClearRound:
		event.InterviewRound = nil
	case patch.InterviewRound != nil:
		event.InterviewRound = patch.InterviewRound
	case event.Kind != scoringdomain.StageInterview:
		// Changing an interview into another stage drops its round.
		event.InterviewRound = nil
	}
	if err := validateRound(event.Kind, event.InterviewRound); err != nil {
		return err
	}

	if patch.Occurred != nil {
		occurredAt, err := s.occurred.Parse(*patch.Occurred, s.now())
		if err != nil {
			return err
		}
		event.OccurredAt = occurredAt
	}
	if patch.Notes != nil {
		event.Notes = strings.TrimSpace(*patch.Notes)
	}

	event.Points = s.rules.PointsForEvent(event.Kind, event.InterviewRound)
	return nil
}

func validateRound(kind scoringdomain.Stage, round *int) error {
	if round == nil {
		return nil
	}
	if kind != scoringdomain.StageInterview {
		return apperrors.Invalid("interview_round", "only applies to interview events")
	}
	if *round < 1 {
		return apperrors.Invalid("interview_round", "must be at least 1")
	}
	return nil
}
