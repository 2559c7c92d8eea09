package applicationservice

import (
	"context"
	"errors"

	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	userservice "github.com/Black-And-White-Club/hunting-party/app/modules/user/application"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// GetApplication returns one of the caller's applications with its timeline.
func (s *ApplicationService) GetApplication(ctx context.Context, userID string, applicationID uuid.UUID) (*ApplicationView, error) {
	result, err := withTelemetry(s, ctx, "GetApplication", applicationID.String(), func(ctx context.Context) (results.OperationResult[*ApplicationView, error], error) {
		app, err := s.repo.GetApplication(ctx, nil, userID, applicationID)
		if err != nil {
			if errors.Is(err, applicationdb.ErrNotFound) {
				return results.FailureResult[*ApplicationView](apperrors.NotFound("application")), nil
			}
			return results.OperationResult[*ApplicationView, error]{}, err
		}

		events, err := s.repo.ListEvents(ctx, nil, app.ID)
		if err != nil {
			return results.OperationResult[*ApplicationView, error]{}, err
		}
		return results.SuccessResult[*ApplicationView, error](toApplicationView(app, events)), nil
	})
	return unwrap(result, err)
}

// ListApplications returns the caller's applications, most recently touched first.
func (s *ApplicationService) ListApplications(ctx context.Context, userID string) ([]ApplicationView, error) {
	result, err := withTelemetry(s, ctx, "ListApplications", userID, func(ctx context.Context) (results.OperationResult[[]ApplicationView, error], error) {
		apps, err := s.repo.ListApplications(ctx, nil, userID)
		if err != nil {
			return results.OperationResult[[]ApplicationView, error]{}, err
		}
		views := make([]ApplicationView, len(apps))
		for i := range apps {
			views[i] = *toApplicationView(&apps[i], nil)
		}
		return results.SuccessResult[[]ApplicationView, error](views), nil
	})
	return unwrap(result, err)
}

// DeleteApplication removes an application and subtracts its current points.
// The subtraction uses the locked row, so concurrent edits that already
// zeroed it make this a ledger no-op.
func (s *ApplicationService) DeleteApplication(ctx context.Context, userID string, applicationID uuid.UUID) error {
	var outcome mutationOutcome

	deleteTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		app, err := s.repo.LockApplication(ctx, db, userID, applicationID)
		if err != nil {
			if errors.Is(err, applicationdb.ErrNotFound) {
				return results.FailureResult[bool](apperrors.NotFound("application")), nil
			}
			return results.OperationResult[bool, error]{}, err
		}

		delta := -app.Points
		if err := s.repo.DeleteApplication(ctx, db, app.ID); err != nil {
			return results.OperationResult[bool, error]{}, err
		}

		if delta != 0 {
			appID := app.ID
			if _, err := s.users.ApplyDelta(ctx, db, userservice.PointChange{
				UserID:        userID,
				ApplicationID: &appID,
				Delta:         delta,
				Reason:        reasonApplicationDeleted,
			}); err != nil {
				return results.OperationResult[bool, error]{}, err
			}
		}

		outcome = mutationOutcome{delta: delta, applicationCount: -1}
		return results.SuccessResult[bool, error](true), nil
	}

	result, err := withTelemetry(s, ctx, "DeleteApplication", applicationID.String(), func(ctx context.Context) (results.OperationResult[bool, error], error) {
		res, err := runInTx(s, ctx, deleteTx)
		if err == nil && res.IsSuccess() {
			s.afterCommit(ctx, userID, outcome)
		}
		return res, err
	})
	_, err = unwrap(result, err)
	return err
}
