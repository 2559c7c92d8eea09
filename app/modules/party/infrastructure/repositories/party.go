package partydb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements Repository.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new party repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateParty(ctx context.Context, db bun.IDB, party *HuntingParty) error {
	_, err := r.resolveDB(db).NewInsert().Model(party).Exec(ctx)
	if err != nil {
		if isUniqueViolation(err, "") {
			return ErrInviteCodeTaken
		}
		return fmt.Errorf("partydb.CreateParty: %w", err)
	}
	return nil
}

func (r *Impl) GetParty(ctx context.Context, db bun.IDB, id uuid.UUID) (*HuntingParty, error) {
	party := new(HuntingParty)
	err := r.resolveDB(db).NewSelect().Model(party).Where("id = ?", id).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("partydb.GetParty: %w", err)
	}
	return party, nil
}

func (r *Impl) GetPartyByInviteCode(ctx context.Context, db bun.IDB, code string) (*HuntingParty, error) {
	party := new(HuntingParty)
	err := r.resolveDB(db).NewSelect().Model(party).Where("invite_code = ?", code).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("partydb.GetPartyByInviteCode: %w", err)
	}
	return party, nil
}

func (r *Impl) GetActiveMembership(ctx context.Context, db bun.IDB, userID string) (*Membership, error) {
	membership := new(Membership)
	err := r.resolveDB(db).NewSelect().
		Model(membership).
		Where("user_id = ?", userID).
		Where("is_active").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("partydb.GetActiveMembership: %w", err)
	}
	return membership, nil
}

func (r *Impl) InsertMembership(ctx context.Context, db bun.IDB, membership *Membership) error {
	_, err := r.resolveDB(db).NewInsert().Model(membership).Returning("id").Exec(ctx)
	if err != nil {
		if isUniqueViolation(err, "uq_party_memberships_active_user") {
			return ErrAlreadyMember
		}
		return fmt.Errorf("partydb.InsertMembership: %w", err)
	}
	return nil
}

func (r *Impl) DeactivateMembership(ctx context.Context, db bun.IDB, id int64, at time.Time) error {
	res, err := r.resolveDB(db).NewUpdate().
		Model((*Membership)(nil)).
		Set("is_active = FALSE").
		Set("left_at = ?", at.UTC()).
		Where("id = ?", id).
		Where("is_active").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("partydb.DeactivateMembership: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("partydb.DeactivateMembership: %w", err)
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Impl) CountActiveMembers(ctx context.Context, db bun.IDB, partyID uuid.UUID) (int, error) {
	n, err := r.resolveDB(db).NewSelect().
		Model((*Membership)(nil)).
		Where("party_id = ?", partyID).
		Where("is_active").
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("partydb.CountActiveMembers: %w", err)
	}
	return n, nil
}

type standingRow struct {
	UserID        string    `bun:"user_id"`
	DisplayName   string    `bun:"display_name"`
	TotalPoints   int64     `bun:"total_points"`
	CurrentStreak int       `bun:"current_streak"`
	JoinedAt      time.Time `bun:"joined_at"`
}

func (r *Impl) ListStandings(ctx context.Context, db bun.IDB, partyID uuid.UUID) ([]partydomain.Standing, error) {
	var rows []standingRow
	err := r.resolveDB(db).NewSelect().
		TableExpr("party_memberships AS pm").
		Join("JOIN users AS u ON u.user_id = pm.user_id").
		ColumnExpr("pm.user_id, u.display_name, u.total_points, u.current_streak, pm.joined_at").
		Where("pm.party_id = ?", partyID).
		Where("pm.is_active").
		Scan(ctx, &rows)
	if err != nil {
		return nil, fmt.Errorf("partydb.ListStandings: %w", err)
	}

	standings := make([]partydomain.Standing, len(rows))
	for i, row := range rows {
		standings[i] = partydomain.Standing{
			UserID:        row.UserID,
			DisplayName:   row.DisplayName,
			TotalPoints:   row.TotalPoints,
			CurrentStreak: row.CurrentStreak,
			JoinedAt:      row.JoinedAt,
		}
	}
	return standings, nil
}
