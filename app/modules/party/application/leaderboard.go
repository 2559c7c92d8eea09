package partyservice

import (
	"context"
	"errors"

	"github.com/Black-And-White-Club/frolf-bot-shared/observability/attr"
	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	partydb "github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/Black-And-White-Club/hunting-party/app/shared/cache"
	"github.com/google/uuid"
)

func leaderboardKey(partyID uuid.UUID) string {
	return "leaderboard:" + partyID.String()
}

// leaderboard reads the ranked standings through the cache. A miss only
// fills an empty key, so it never replaces a newer rebuild.
func (s *PartyService) leaderboard(ctx context.Context, partyID uuid.UUID) ([]partydomain.LeaderboardEntry, error) {
	return cache.ReadThrough(ctx, s.cache, leaderboardKey(partyID), s.cacheTTL, func(ctx context.Context) ([]partydomain.LeaderboardEntry, error) {
		return s.loadLeaderboard(ctx, partyID)
	})
}

// rebuildLeaderboard ranks fresh standings and overwrites the cached board.
// Callers run it on the party's broadcast lane, so the last write wins.
func (s *PartyService) rebuildLeaderboard(ctx context.Context, partyID uuid.UUID) ([]partydomain.LeaderboardEntry, error) {
	entries, err := s.loadLeaderboard(ctx, partyID)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, leaderboardKey(partyID), entries, s.cacheTTL); err != nil {
		s.logger.WarnContext(ctx, "Failed to refresh leaderboard cache",
			attr.String("party_id", partyID.String()),
			attr.Error(err),
		)
		// A stale entry must not outlive this rebuild.
		_ = s.cache.Delete(ctx, leaderboardKey(partyID))
	}
	return entries, nil
}

func (s *PartyService) loadLeaderboard(ctx context.Context, partyID uuid.UUID) ([]partydomain.LeaderboardEntry, error) {
	standings, err := s.repo.ListStandings(ctx, nil, partyID)
	if err != nil {
		return nil, err
	}
	return partydomain.RankLeaderboard(standings), nil
}

// requireMember hides parties the caller does not belong to behind NotFound.
func (s *PartyService) requireMember(ctx context.Context, userID string, partyID uuid.UUID) error {
	membership, err := s.repo.GetActiveMembership(ctx, nil, userID)
	if errors.Is(err, partydb.ErrNotFound) || (err == nil && membership.PartyID != partyID) {
		return apperrors.NotFound("party")
	}
	return err
}

// GetLeaderboard returns the party's ranked members.
func (s *PartyService) GetLeaderboard(ctx context.Context, userID string, partyID uuid.UUID) ([]partydomain.LeaderboardEntry, error) {
	result, err := withTelemetry(s, ctx, "GetLeaderboard", partyID.String(), func(ctx context.Context) (results.OperationResult[[]partydomain.LeaderboardEntry, error], error) {
		if err := s.requireMember(ctx, userID, partyID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return results.FailureResult[[]partydomain.LeaderboardEntry](err), nil
			}
			return results.OperationResult[[]partydomain.LeaderboardEntry, error]{}, err
		}
		entries, err := s.leaderboard(ctx, partyID)
		if err != nil {
			return results.OperationResult[[]partydomain.LeaderboardEntry, error]{}, err
		}
		return results.SuccessResult[[]partydomain.LeaderboardEntry, error](entries), nil
	})
	return unwrap(result, err)
}

// GetRivalry returns the caller's neighbors on the leaderboard.
func (s *PartyService) GetRivalry(ctx context.Context, userID string, partyID uuid.UUID) (*partydomain.RivalryView, error) {
	entries, err := s.GetLeaderboard(ctx, userID, partyID)
	if err != nil {
		return nil, err
	}
	view := partydomain.ComputeRivalry(entries, userID)
	if view == nil {
		s.logger.WarnContext(ctx, "Member missing from leaderboard",
			attr.String("user_id", userID),
			attr.String("party_id", partyID.String()),
		)
	}
	return view, nil
}

// GetActivityFeed pages through the party feed, newest first.
func (s *PartyService) GetActivityFeed(ctx context.Context, userID string, partyID uuid.UUID, limit int, beforeID *int64) (*partydomain.FeedPage, error) {
	limit = partydomain.ClampFeedLimit(limit)

	result, err := withTelemetry(s, ctx, "GetActivityFeed", partyID.String(), func(ctx context.Context) (results.OperationResult[*partydomain.FeedPage, error], error) {
		if err := s.requireMember(ctx, userID, partyID); err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return results.FailureResult[*partydomain.FeedPage](err), nil
			}
			return results.OperationResult[*partydomain.FeedPage, error]{}, err
		}

		// One extra row tells us whether another page exists.
		rows, err := s.repo.ListActivity(ctx, nil, partyID, limit+1, beforeID)
		if err != nil {
			return results.OperationResult[*partydomain.FeedPage, error]{}, err
		}
		events := make([]partydomain.ActivityEvent, 0, len(rows))
		for i := range rows {
			events = append(events, rows[i].ToDomain())
		}
		page := partydomain.NewFeedPage(events, limit)
		return results.SuccessResult[*partydomain.FeedPage, error](&page), nil
	})
	return unwrap(result, err)
}
