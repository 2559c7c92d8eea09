package partyservice

import (
	"context"
	"errors"

	"github.com/Black-And-White-Club/frolf-bot-shared/utils/results"
	authdomain "github.com/Black-And-White-Club/hunting-party/app/modules/auth/domain"
	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	partydb "github.com/Black-And-White-Club/hunting-party/app/modules/party/infrastructure/repositories"
	"github.com/Black-And-White-Club/hunting-party/app/shared/apperrors"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

const maxInviteAttempts = 5

var errAlreadyInParty = apperrors.Invalid("party", "already a member of a party; leave it first")

// CreateParty creates a party with a fresh invite code and makes the caller
// its first member.
func (s *PartyService) CreateParty(ctx context.Context, userID, name string) (*partydomain.Party, error) {
	createTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*partydomain.Party, error], error) {
		cleanName, err := partydomain.ValidateName(name)
		if err != nil {
			return results.FailureResult[*partydomain.Party](err), nil
		}

		if err := s.users.EnsureUser(ctx, db, userID, authdomain.CurrentDisplayName(ctx)); err != nil {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		if _, err := s.repo.GetActiveMembership(ctx, db, userID); err == nil {
			return results.FailureResult[*partydomain.Party](errAlreadyInParty), nil
		} else if !errors.Is(err, partydb.ErrNotFound) {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		code, err := s.freeInviteCode(ctx, db)
		if err != nil {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		now := s.now()
		party := &partydb.HuntingParty{
			ID:         uuid.New(),
			Name:       cleanName,
			InviteCode: code,
			CreatorID:  userID,
			CreatedAt:  now,
		}
		if err := s.repo.CreateParty(ctx, db, party); err != nil {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		membership := &partydb.Membership{PartyID: party.ID, UserID: userID, IsActive: true, JoinedAt: now}
		if err := s.repo.InsertMembership(ctx, db, membership); err != nil {
			if errors.Is(err, partydb.ErrAlreadyMember) {
				return results.FailureResult[*partydomain.Party](errAlreadyInParty), nil
			}
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		return results.SuccessResult[*partydomain.Party, error](toParty(party, membership, 1)), nil
	}

	result, err := withTelemetry(s, ctx, "CreateParty", userID, func(ctx context.Context) (results.OperationResult[*partydomain.Party, error], error) {
		return runInTx(s, ctx, createTx)
	})
	return unwrap(result, err)
}

// freeInviteCode draws codes until one is unused. Collisions are rare
// enough that a handful of attempts is plenty.
func (s *PartyService) freeInviteCode(ctx context.Context, db bun.IDB) (string, error) {
	for range maxInviteAttempts {
		code, err := partydomain.GenerateInviteCode(s.inviteEntropy)
		if err != nil {
			return "", err
		}
		_, err = s.repo.GetPartyByInviteCode(ctx, db, code)
		if errors.Is(err, partydb.ErrNotFound) {
			return code, nil
		}
		if err != nil {
			return "", err
		}
	}
	return "", partydb.ErrInviteCodeTaken
}

// JoinParty adds the caller to the party behind inviteCode. Joining the party
// the caller is already in is a no-op.
func (s *PartyService) JoinParty(ctx context.Context, userID, inviteCode string) (*partydomain.Party, error) {
	var joined *partydomain.ActivityEvent

	joinTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[*partydomain.Party, error], error) {
		code, err := partydomain.NormalizeInviteCode(inviteCode)
		if err != nil {
			return results.FailureResult[*partydomain.Party](err), nil
		}

		party, err := s.repo.GetPartyByInviteCode(ctx, db, code)
		if err != nil {
			if errors.Is(err, partydb.ErrNotFound) {
				return results.FailureResult[*partydomain.Party](apperrors.NotFound("party")), nil
			}
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		if err := s.users.EnsureUser(ctx, db, userID, authdomain.CurrentDisplayName(ctx)); err != nil {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		existing, err := s.repo.GetActiveMembership(ctx, db, userID)
		switch {
		case err == nil && existing.PartyID == party.ID:
			count, err := s.repo.CountActiveMembers(ctx, db, party.ID)
			if err != nil {
				return results.OperationResult[*partydomain.Party, error]{}, err
			}
			return results.SuccessResult[*partydomain.Party, error](toParty(party, existing, count)), nil
		case err == nil:
			return results.FailureResult[*partydomain.Party](errAlreadyInParty), nil
		case !errors.Is(err, partydb.ErrNotFound):
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		membership := &partydb.Membership{PartyID: party.ID, UserID: userID, IsActive: true, JoinedAt: s.now()}
		if err := s.repo.InsertMembership(ctx, db, membership); err != nil {
			if errors.Is(err, partydb.ErrAlreadyMember) {
				return results.FailureResult[*partydomain.Party](errAlreadyInParty), nil
			}
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		joined, err = s.appendActivity(ctx, db, party.ID, partydomain.ActivityInput{UserID: userID, Kind: partydomain.ActivityMemberJoined})
		if err != nil {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		count, err := s.repo.CountActiveMembers(ctx, db, party.ID)
		if err != nil {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}
		return results.SuccessResult[*partydomain.Party, error](toParty(party, membership, count)), nil
	}

	result, err := withTelemetry(s, ctx, "JoinParty", userID, func(ctx context.Context) (results.OperationResult[*partydomain.Party, error], error) {
		res, err := runInTx(s, ctx, joinTx)
		if err == nil && res.IsSuccess() && joined != nil {
			s.refreshParty(joined.PartyID, userID, []*partydomain.ActivityEvent{joined})
		}
		return res, err
	})
	return unwrap(result, err)
}

// LeaveParty deactivates the caller's membership. History stays in place.
func (s *PartyService) LeaveParty(ctx context.Context, userID string) error {
	var left *partydomain.ActivityEvent

	leaveTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[bool, error], error) {
		membership, err := s.repo.GetActiveMembership(ctx, db, userID)
		if err != nil {
			if errors.Is(err, partydb.ErrNotFound) {
				return results.FailureResult[bool](apperrors.NotFound("party membership")), nil
			}
			return results.OperationResult[bool, error]{}, err
		}

		if err := s.repo.DeactivateMembership(ctx, db, membership.ID, s.now()); err != nil {
			if errors.Is(err, partydb.ErrNotFound) {
				return results.FailureResult[bool](apperrors.NotFound("party membership")), nil
			}
			return results.OperationResult[bool, error]{}, err
		}

		left, err = s.appendActivity(ctx, db, membership.PartyID, partydomain.ActivityInput{UserID: userID, Kind: partydomain.ActivityMemberLeft})
		if err != nil {
			return results.OperationResult[bool, error]{}, err
		}
		return results.SuccessResult[bool, error](true), nil
	}

	result, err := withTelemetry(s, ctx, "LeaveParty", userID, func(ctx context.Context) (results.OperationResult[bool, error], error) {
		res, err := runInTx(s, ctx, leaveTx)
		if err == nil && res.IsSuccess() && left != nil {
			if s.connections != nil {
				s.connections.Evict(left.PartyID, userID)
			}
			// The leaver is no longer ranked, so no rivalry push for them.
			s.refreshParty(left.PartyID, "", []*partydomain.ActivityEvent{left})
		}
		return res, err
	})
	_, err = unwrap(result, err)
	return err
}

// GetMyParty returns the caller's active party.
func (s *PartyService) GetMyParty(ctx context.Context, userID string) (*partydomain.Party, error) {
	result, err := withTelemetry(s, ctx, "GetMyParty", userID, func(ctx context.Context) (results.OperationResult[*partydomain.Party, error], error) {
		membership, err := s.repo.GetActiveMembership(ctx, nil, userID)
		if err != nil {
			if errors.Is(err, partydb.ErrNotFound) {
				return results.FailureResult[*partydomain.Party](apperrors.NotFound("party")), nil
			}
			return results.OperationResult[*partydomain.Party, error]{}, err
		}

		party, err := s.repo.GetParty(ctx, nil, membership.PartyID)
		if err != nil {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}
		count, err := s.repo.CountActiveMembers(ctx, nil, party.ID)
		if err != nil {
			return results.OperationResult[*partydomain.Party, error]{}, err
		}
		return results.SuccessResult[*partydomain.Party, error](toParty(party, membership, count)), nil
	})
	return unwrap(result, err)
}

func toParty(p *partydb.HuntingParty, m *partydb.Membership, memberCount int) *partydomain.Party {
	return &partydomain.Party{
		ID:          p.ID,
		Name:        p.Name,
		InviteCode:  p.InviteCode,
		CreatorID:   p.CreatorID,
		MemberCount: memberCount,
		CreatedAt:   p.CreatedAt,
		JoinedAt:    m.JoinedAt,
	}
}
