package usermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating users and user_point_history tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS users (
				user_id TEXT PRIMARY KEY,
				display_name TEXT NOT NULL DEFAULT '',
				total_points BIGINT NOT NULL DEFAULT 0,
				current_streak INTEGER NOT NULL DEFAULT 0,
				longest_streak INTEGER NOT NULL DEFAULT 0,
				last_activity_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS user_point_history (
				id BIGSERIAL PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
				application_id UUID,
				delta INTEGER NOT NULL,
				total_after BIGINT NOT NULL,
				reason TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_user_point_history_user_created
				ON user_point_history (user_id, created_at DESC, id DESC);
		`)
		if err != nil {
			return fmt.Errorf("failed to create users tables: %w", err)
		}

		fmt.Println("Users tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping users tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS user_point_history;
			DROP TABLE IF EXISTS users;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop users tables: %w", err)
		}
		return nil
	})
}
