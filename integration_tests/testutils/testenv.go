// Package testutils boots the shared Postgres container and schema used by
// the integration suites.
package testutils

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/Black-And-White-Club/hunting-party/integration_tests/containers"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
)

// TestEnvironment holds a migrated Postgres database.
type TestEnvironment struct {
	Ctx         context.Context
	cancel      context.CancelFunc
	PgContainer *postgres.PostgresContainer
	ConnStr     string
	DB          *bun.DB
}

// NewTestEnvironment starts Postgres and applies every migration.
func NewTestEnvironment(ctx context.Context) (*TestEnvironment, error) {
	ctx, cancel := context.WithCancel(ctx)
	env := &TestEnvironment{Ctx: ctx, cancel: cancel}

	pgContainer, connStr, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("failed to setup postgres container: %w", err)
	}
	env.PgContainer = pgContainer
	env.ConnStr = connStr

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(connStr)))
	env.DB = bun.NewDB(sqldb, pgdialect.New())
	if err := env.DB.PingContext(ctx); err != nil {
		env.Cleanup()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := RunMigrations(ctx, env.DB, connStr); err != nil {
		env.Cleanup()
		return nil, err
	}
	return env, nil
}

// Reset truncates every table so each test starts empty.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	if err := CleanupDatabase(env.Ctx, env.DB); err != nil {
		t.Fatalf("failed to reset database: %v", err)
	}
}

// Cleanup closes the database and terminates the container.
func (env *TestEnvironment) Cleanup() {
	if env.DB != nil {
		_ = env.DB.Close()
	}
	if env.PgContainer != nil {
		_ = env.PgContainer.Terminate(context.Background())
	}
	env.cancel()
}
