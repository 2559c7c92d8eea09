package applicationservice

import (
	"context"
	"strings"

	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	applicationdomain "github.com/Black-And-White-Club/hunting-party/app/modules/application/domain"
	applicationdb "github.com/Black-And-White-Club/hunting-party/app/modules/application/infrastructure/repositories"
	authdomain "github.com/Black-And-White-Club/hunting-party/app/modules/auth/domain"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// LogApplication creates an application with its initial applied event and
// runs the full cascade: ledger, streak, party activity, then milestones.
func (s *ApplicationService) LogApplication(ctx context.Context, userID string, input LogApplicationInput) (*ApplicationView, error) {
	var outcome mutationOutcome

	logTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*ApplicationView, error], error) {
		company := strings.TrimSpace(input.Company)
		role := strings.TrimSpace(input.Role)
		if company == "" {
			return results.FailureResult[*ApplicationView](apperrors.Invalid("company", "is required")), nil
		}
		if role == "" {
			return results.FailureResult[*ApplicationView](apperrors.Invalid("role", "is required")), nil
		}

		now := s.now()
		occurredAt, err := s.occurred.Parse(input.Occurred, now)
		if err != nil {
			return results.FailureResult[*ApplicationView](err), nil
		}

		if err := s.users.EnsureUser(ctx, db, userID, authdomain.CurrentDisplayName(ctx)); err != nil {
			return results.OperationResult[*ApplicationView, error]{}, err
		}

		postingURL := strings.TrimSpace(input.PostingURL)
		app := &applicationdb.Application{
			ID:               uuid.New(),
			UserID:           userID,
			Company:          company,
			Role:             role,
			PostingURL:       postingURL,
			Status:           scoringdomain.StageApplied,
			Points:           0,
			EnrichmentStatus: applicationdomain.InitialEnrichmentStatus(postingURL),
			CreatedAt:        now,
			UpdatedAt:        now,
		}
		if err := s.repo.CreateApplication(ctx, db, app); err != nil {
			return results.OperationResult[*ApplicationView, error]{}, err
		}

		event := applicationdb.TimelineEvent{
			ID:            uuid.New(),
			ApplicationID: app.ID,
			Kind:          scoringdomain.StageApplied,
			OccurredAt:    occurredAt,
			Notes:         strings.TrimSpace(input.Notes),
			Points:        s.rules.PointsForEvent(scoringdomain.StageApplied, nil),
			CreatedAt:     now,
		}
		if err := s.repo.InsertEvent(ctx, db, &event); err != nil {
			return results.OperationResult[*ApplicationView, error]{}, err
		}

		delta, err := s.recompute(ctx, db, app, reasonApplicationLogged)
		if err != nil {
			return results.OperationResult[*ApplicationView, error]{}, err
		}

		activities, err := s.qualify(ctx, db, partydomain.ActivityInput{
			UserID:      userID,
			Kind:        partydomain.ActivityApplicationLogged,
			PointsDelta: delta,
			Company:     company,
			Role:        role,
		})
		if err != nil {
			return results.OperationResult[*ApplicationView, error]{}, err
		}

		count, err := s.repo.CountApplications(ctx, db, userID)
		if err != nil {
			return results.OperationResult[*ApplicationView, error]{}, err
		}

		outcome = mutationOutcome{
			delta:            delta,
			activities:       activities,
			applicationCount: count,
			enrich:           app.EnrichmentStatus == applicationdomain.EnrichmentPending,
		}
		return results.SuccessResult[*ApplicationView, error](toApplicationView(app, []applicationdb.TimelineEvent{event})), nil
	}

	result, err := withTelemetry(s, ctx, "LogApplication", userID, func(ctx context.Context) (results.OperationResult[*ApplicationView, error], error) {
		res, err := runInTx(s, ctx, logTx)
		if err == nil && res.IsSuccess() {
			s.afterCommit(ctx, userID, outcome)
		}
		return res, err
	})
	return unwrap(result, err)
}
