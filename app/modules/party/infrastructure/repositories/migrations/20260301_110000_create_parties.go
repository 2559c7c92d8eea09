package partymigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating party tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS hunting_parties (
				id UUID PRIMARY KEY,
				name TEXT NOT NULL,
				invite_code TEXT NOT NULL UNIQUE,
				creator_id TEXT NOT NULL REFERENCES users(user_id),
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE TABLE IF NOT EXISTS party_memberships (
				id BIGSERIAL PRIMARY KEY,
				party_id UUID NOT NULL REFERENCES hunting_parties(id) ON DELETE CASCADE,
				user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
				is_active BOOLEAN NOT NULL DEFAULT TRUE,
				joined_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				left_at TIMESTAMPTZ
			);

			CREATE UNIQUE INDEX IF NOT EXISTS uq_party_memberships_active_user
				ON party_memberships (user_id) WHERE is_active;
			CREATE INDEX IF NOT EXISTS idx_party_memberships_party_active
				ON party_memberships (party_id) WHERE is_active;

			CREATE TABLE IF NOT EXISTS activity_events (
				id BIGSERIAL PRIMARY KEY,
				party_id UUID NOT NULL REFERENCES hunting_parties(id) ON DELETE CASCADE,
				user_id TEXT NOT NULL,
				kind TEXT NOT NULL,
				points_delta INTEGER NOT NULL DEFAULT 0,
				company TEXT NOT NULL DEFAULT '',
				role TEXT NOT NULL DEFAULT '',
				label TEXT NOT NULL DEFAULT '',
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_activity_events_party_created
				ON activity_events (party_id, created_at DESC, id DESC);
			CREATE UNIQUE INDEX IF NOT EXISTS uq_activity_events_milestone
				ON activity_events (party_id, user_id, kind, label) WHERE kind = 'milestone';
		`)
		if err != nil {
			return fmt.Errorf("failed to create party tables: %w", err)
		}

		fmt.Println("Party tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping party tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS activity_events;
			DROP TABLE IF EXISTS party_memberships;
			DROP TABLE IF EXISTS hunting_parties;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop party tables: %w", err)
		}
		return nil
	})
}
