package applicationmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating applications and timeline_events tables...")

		_, err := db.ExecContext(ctx, `
			CREATE TABLE IF NOT EXISTS applications (
				id UUID PRIMARY KEY,
				user_id TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
				company TEXT NOT NULL,
				role TEXT NOT NULL,
				posting_url TEXT NOT NULL DEFAULT '',
				status TEXT NOT NULL,
				points INTEGER NOT NULL DEFAULT 0,
				enrichment_status TEXT NOT NULL DEFAULT 'pending',
				enriched_company TEXT,
				enriched_role TEXT,
				enriched_location TEXT,
				enrichment_error TEXT,
				enrichment_attempts INTEGER NOT NULL DEFAULT 0,
				enrichment_claimed_at TIMESTAMPTZ,
				enriched_at TIMESTAMPTZ,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_applications_user_updated
				ON applications (user_id, updated_at DESC, id DESC);

			CREATE INDEX IF NOT EXISTS idx_applications_enrichment_queue
				ON applications (created_at)
				WHERE enrichment_status IN ('pending', 'processing');

			CREATE TABLE IF NOT EXISTS timeline_events (
				id UUID PRIMARY KEY,
				application_id UUID NOT NULL REFERENCES applications(id) ON DELETE CASCADE,
				kind TEXT NOT NULL,
				interview_round INTEGER,
				occurred_at TIMESTAMPTZ NOT NULL,
				notes TEXT NOT NULL DEFAULT '',
				points INTEGER NOT NULL DEFAULT 0,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			);

			CREATE INDEX IF NOT EXISTS idx_timeline_events_display
				ON timeline_events (application_id, occurred_at DESC, created_at DESC, id DESC);
		`)
		if err != nil {
			return fmt.Errorf("failed to create applications tables: %w", err)
		}

		fmt.Println("Applications tables created successfully!")
		return nil
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping applications tables...")

		_, err := db.ExecContext(ctx, `
			DROP TABLE IF EXISTS timeline_events;
			DROP TABLE IF EXISTS applications;
		`)
		if err != nil {
			return fmt.Errorf("failed to drop applications tables: %w", err)
		}
		return nil
	})
}
