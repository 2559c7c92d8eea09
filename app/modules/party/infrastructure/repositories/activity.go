package partydb

import (
	"context"
	"fmt"

	partydomain "github.com/Black-And-White-Club/hunting-party/app/modules/party/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) InsertActivity(ctx context.Context, db bun.IDB, activity *Activity) (bool, error) {
	q := r.resolveDB(db).NewInsert().Model(activity).Returning("id, created_at")
	if activity.Kind == partydomain.ActivityMilestone {
		q = q.On("CONFLICT (party_id, user_id, kind, label) WHERE kind = 'milestone' DO NOTHING")
	}

	res, err := q.Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("partydb.InsertActivity: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("partydb.InsertActivity: %w", err)
	}
	return rows > 0, nil
}

func (r *Impl) MilestoneExists(ctx context.Context, db bun.IDB, partyID uuid.UUID, userID, label string) (bool, error) {
	exists, err := r.resolveDB(db).NewSelect().
		Model((*Activity)(nil)).
		Where("party_id = ?", partyID).
		Where("user_id = ?", userID).
		Where("kind = ?", partydomain.ActivityMilestone).
		Where("label = ?", label).
		Exists(ctx)
	if err != nil {
		return false, fmt.Errorf("partydb.MilestoneExists: %w", err)
	}
	return exists, nil
}

func (r *Impl) ListActivity(ctx context.Context, db bun.IDB, partyID uuid.UUID, limit int, beforeID *int64) ([]Activity, error) {
	var rows []Activity
	q := r.resolveDB(db).NewSelect().
		Model(&rows).
		ColumnExpr("ae.*").
		ColumnExpr("COALESCE(u.display_name, '') AS display_name").
		Join("LEFT JOIN users AS u ON u.user_id = ae.user_id").
		Where("ae.party_id = ?", partyID).
		OrderExpr("ae.created_at DESC, ae.id DESC").
		Limit(limit)
	if beforeID != nil {
		q = q.Where("(ae.created_at, ae.id) < (SELECT c.created_at, c.id FROM activity_events AS c WHERE c.id = ?)", *beforeID)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("partydb.ListActivity: %w", err)
	}
	return rows, nil
}
