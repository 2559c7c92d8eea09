package userdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements Repository.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new user repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) GetUser(ctx context.Context, db bun.IDB, userID string) (*User, error) {
	user := new(User)
	err := r.resolveDB(db).NewSelect().Model(user).Where("user_id = ?", userID).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userdb.GetUser: %w", err)
	}
	return user, nil
}

func (r *Impl) GetUserForUpdate(ctx context.Context, db bun.IDB, userID string) (*User, error) {
	user := new(User)
	err := r.resolveDB(db).NewSelect().Model(user).Where("user_id = ?", userID).For("UPDATE").Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("userdb.GetUserForUpdate: %w", err)
	}
	return user, nil
}

func (r *Impl) EnsureUser(ctx context.Context, db bun.IDB, userID, displayName string) error {
	now := time.Now().UTC()
	_, err := r.resolveDB(db).NewInsert().
		Model(&User{UserID: userID, DisplayName: displayName, CreatedAt: now, UpdatedAt: now}).
		On("CONFLICT (user_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("userdb.EnsureUser: %w", err)
	}
	return nil
}

func (r *Impl) UpsertProfile(ctx context.Context, db bun.IDB, userID, displayName string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		UserID:      userID,
		DisplayName: displayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	_, err := r.resolveDB(db).NewInsert().
		Model(user).
		On("CONFLICT (user_id) DO UPDATE").
		Set("display_name = EXCLUDED.display_name").
		Set("updated_at = EXCLUDED.updated_at").
		Returning("*").
		Exec(ctx)
	if err != nil {
		return nil, fmt.Errorf("userdb.UpsertProfile: %w", err)
	}
	return user, nil
}

func (r *Impl) AddPoints(ctx context.Context, db bun.IDB, userID string, delta int) (int64, error) {
	var total int64
	err := r.resolveDB(db).NewUpdate().
		Model((*User)(nil)).
		Set("total_points = total_points + ?", delta).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Returning("total_points").
		Scan(ctx, &total)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("userdb.AddPoints: %w", err)
	}
	return total, nil
}

func (r *Impl) UpdateStreak(ctx context.Context, db bun.IDB, userID string, current, longest int, lastActivityAt time.Time) error {
	res, err := r.resolveDB(db).NewUpdate().
		Model((*User)(nil)).
		Set("current_streak = ?", current).
		Set("longest_streak = ?", longest).
		Set("last_activity_at = ?", lastActivityAt.UTC()).
		Set("updated_at = ?", time.Now().UTC()).
		Where("user_id = ?", userID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("userdb.UpdateStreak: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("userdb.UpdateStreak: %w", err)
	}
	if rows == 0 {
		return ErrNoRowsAffected
	}
	return nil
}

func (r *Impl) InsertPointHistory(ctx context.Context, db bun.IDB, entry *PointHistory) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	if _, err := r.resolveDB(db).NewInsert().Model(entry).Exec(ctx); err != nil {
		return fmt.Errorf("userdb.InsertPointHistory: %w", err)
	}
	return nil
}

func (r *Impl) ListPointHistory(ctx context.Context, db bun.IDB, userID string, limit int) ([]PointHistory, error) {
	var history []PointHistory
	err := r.resolveDB(db).NewSelect().
		Model(&history).
		Where("user_id = ?", userID).
		OrderExpr("created_at DESC, id DESC").
		Limit(limit).
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("userdb.ListPointHistory: %w", err)
	}
	slices.Reverse(history)
	return history, nil
}
