package applicationdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	applicationdomain "github.com/Black-And-White-Club/hunting-party/app/modules/application/domain"
	scoringdomain "github.com/Black-And-White-Club/hunting-party/app/modules/scoring/domain"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements Repository.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new application repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) CreateApplication(ctx context.Context, db bun.IDB, app *Application) error {
	if _, err := r.resolveDB(db).NewInsert().Model(app).Exec(ctx); err != nil {
		return fmt.Errorf("applicationdb.CreateApplication: %w", err)
	}
	return nil
}

func (r *Impl) GetApplication(ctx context.Context, db bun.IDB, userID string, id uuid.UUID) (*Application, error) {
	app := new(Application)
	err := r.resolveDB(db).NewSelect().
		Model(app).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("applicationdb.GetApplication: %w", err)
	}
	return app, nil
}

func (r *Impl) LockApplication(ctx context.Context, db bun.IDB, userID string, id uuid.UUID) (*Application, error) {
	app := new(Application)
	err := r.resolveDB(db).NewSelect().
		Model(app).
		Where("id = ?", id).
		Where("user_id = ?", userID).
		For("UPDATE").
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("applicationdb.LockApplication: %w", err)
	}
	return app, nil
}

func (r *Impl) ListApplications(ctx context.Context, db bun.IDB, userID string) ([]Application, error) {
	var apps []Application
	err := r.resolveDB(db).NewSelect().
		Model(&apps).
		Where("user_id = ?", userID).
		OrderExpr("updated_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("applicationdb.ListApplications: %w", err)
	}
	return apps, nil
}

func (r *Impl) CountApplications(ctx context.Context, db bun.IDB, userID string) (int, error) {
	count, err := r.resolveDB(db).NewSelect().
		Model((*Application)(nil)).
		Where("user_id = ?", userID).
		Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("applicationdb.CountApplications: %w", err)
	}
	return count, nil
}

func (r *Impl) UpdateDerived(ctx context.Context, db bun.IDB, id uuid.UUID, status scoringdomain.Stage, points int, at time.Time) error {
	res, err := r.resolveDB(db).NewUpdate().
		Model((*Application)(nil)).
		Set("status = ?", status).
		Set("points = ?", points).
		Set("updated_at = ?", at.UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("applicationdb.UpdateDerived: %w", err)
	}
	return requireRows(res, "applicationdb.UpdateDerived")
}

func (r *Impl) DeleteApplication(ctx context.Context, db bun.IDB, id uuid.UUID) error {
	res, err := r.resolveDB(db).NewDelete().
		Model((*Application)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("applicationdb.DeleteApplication: %w", err)
	}
	return requireRows(res, "applicationdb.DeleteApplication")
}

func (r *Impl) ClaimForEnrichment(ctx context.Context, db bun.IDB, limit int, staleAfter time.Duration) ([]Application, error) {
	now := time.Now().UTC()
	idb := r.resolveDB(db)

	candidates := idb.NewSelect().
		Model((*Application)(nil)).
		Column("id").
		WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				Where("enrichment_status = ?", applicationdomain.EnrichmentPending).
				WhereOr("enrichment_status = ? AND enrichment_claimed_at < ?", applicationdomain.EnrichmentProcessing, now.Add(-staleAfter))
		}).
		OrderExpr("created_at ASC").
		Limit(limit).
		For("UPDATE SKIP LOCKED")

	var apps []Application
	_, err := idb.NewUpdate().
		Model((*Application)(nil)).
		Set("enrichment_status = ?", applicationdomain.EnrichmentProcessing).
		Set("enrichment_claimed_at = ?", now).
		Where("id IN (?)", candidates).
		Returning("*").
		Exec(ctx, &apps)
	if err != nil {
		return nil, fmt.Errorf("applicationdb.ClaimForEnrichment: %w", err)
	}
	return apps, nil
}

func (r *Impl) SaveEnrichment(ctx context.Context, db bun.IDB, id uuid.UUID, result EnrichmentResult) error {
	q := r.resolveDB(db).NewUpdate().
		Model((*Application)(nil)).
		Set("enrichment_status = ?", result.Status).
		Set("enrichment_error = ?", result.Error).
		Set("enrichment_attempts = ?", result.Attempts).
		Set("enrichment_claimed_at = NULL").
		Where("id = ?", id)
	if result.Status == applicationdomain.EnrichmentDone {
		q = q.
			Set("enriched_company = ?", result.Company).
			Set("enriched_role = ?", result.Role).
			Set("enriched_location = ?", result.Location).
			Set("enriched_at = ?", result.At.UTC())
	}
	res, err := q.Exec(ctx)
	if err != nil {
		return fmt.Errorf("applicationdb.SaveEnrichment: %w", err)
	}
	return requireRows(res, "applicationdb.SaveEnrichment")
}

func requireRows(res sql.Result, op string) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}
