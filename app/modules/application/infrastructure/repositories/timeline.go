package applicationdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

func (r *Impl) InsertEvent(ctx context.Context, db bun.IDB, event *TimelineEvent) error {
	if _, err := r.resolveDB(db).NewInsert().Model(event).Exec(ctx); err != nil {
		return fmt.Errorf("applicationdb.InsertEvent: %w", err)
	}
	return nil
}

func (r *Impl) GetEvent(ctx context.Context, db bun.IDB, applicationID, eventID uuid.UUID) (*TimelineEvent, error) {
	event := new(TimelineEvent)
	err := r.resolveDB(db).NewSelect().
		Model(event).
		Where("id = ?", eventID).
		Where("application_id = ?", applicationID).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("applicationdb.GetEvent: %w", err)
	}
	return event, nil
}

func (r *Impl) UpdateEvent(ctx context.Context, db bun.IDB, event *TimelineEvent) error {
	res, err := r.resolveDB(db).NewUpdate().
		Model(event).
		Column("kind", "interview_round", "occurred_at", "notes", "points").
		Where("id = ?", event.ID).
		Where("application_id = ?", event.ApplicationID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("applicationdb.UpdateEvent: %w", err)
	}
	return requireRows(res, "applicationdb.UpdateEvent")
}

func (r *Impl) DeleteEvent(ctx context.Context, db bun.IDB, applicationID, eventID uuid.UUID) error {
	res, err := r.resolveDB(db).NewDelete().
		Model((*TimelineEvent)(nil)).
		Where("id = ?", eventID).
		Where("application_id = ?", applicationID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("applicationdb.DeleteEvent: %w", err)
	}
	if err := requireRows(res, "applicationdb.DeleteEvent"); err != nil {
		if errors.Is(err, ErrNoRowsAffected) {
			return ErrNotFound
		}
		return err
	}
	return nil
}

func (r *Impl) ListEvents(ctx context.Context, db bun.IDB, applicationID uuid.UUID) ([]TimelineEvent, error) {
	var events []TimelineEvent
	err := r.resolveDB(db).NewSelect().
		Model(&events).
		Where("application_id = ?", applicationID).
		OrderExpr("occurred_at DESC, created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("applicationdb.ListEvents: %w", err)
	}
	return events, nil
}
