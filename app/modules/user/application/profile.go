package userservice

import (
	"context"
	"errors"
	"strings"
	"unicode/utf8"

	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	userdb "github.com/Black-And-White-Club/hunting-party/app/modules/user/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/uptrace/bun"
)

const maxDisplayNameLength = 40

// UpsertProfile registers the caller on first use and renames them afterwards.
func (s *UserService) UpsertProfile(ctx context.Context, userID, displayName string) (*Profile, error) {
	upsertTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*Profile, error], error) {
		name := strings.TrimSpace(displayName)
		if name == "" {
			return results.FailureResult[*Profile](apperrors.Invalid("display_name", "is required")), nil
		}
		if utf8.RuneCountInString(name) > maxDisplayNameLength {
			return results.FailureResult[*Profile](apperrors.Invalid("display_name", "must be at most %d characters", maxDisplayNameLength)), nil
		}

		user, err := s.repo.UpsertProfile(ctx, db, userID, name)
		if err != nil {
			return results.OperationResult[*Profile, error]{}, err
		}
		return results.SuccessResult[*Profile, error](toProfile(user)), nil
	}

	result, err := withTelemetry(s, ctx, "UpsertProfile", userID, func(ctx context.Context) (results.OperationResult[*Profile, error], error) {
		return runInTx(s, ctx, upsertTx)
	})
	return unwrap(result, err)
}

// EnsureUser makes sure a user row exists before the first ledger write.
func (s *UserService) EnsureUser(ctx context.Context, db bun.IDB, userID, displayName string) error {
	name := strings.TrimSpace(displayName)
	if utf8.RuneCountInString(name) > maxDisplayNameLength {
		name = string([]rune(name)[:maxDisplayNameLength])
	}
	return s.repo.EnsureUser(ctx, db, userID, name)
}

// GetProfile returns the caller's totals and streaks.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	result, err := withTelemetry(s, ctx, "GetProfile", userID, func(ctx context.Context) (results.OperationResult[*Profile, error], error) {
		user, err := s.repo.GetUser(ctx, nil, userID)
		if err != nil {
			if errors.Is(err, userdb.ErrNotFound) {
				return results.FailureResult[*Profile](apperrors.NotFound("user")), nil
			}
			return results.OperationResult[*Profile, error]{}, err
		}
		return results.SuccessResult[*Profile, error](toProfile(user)), nil
	})
	return unwrap(result, err)
}
