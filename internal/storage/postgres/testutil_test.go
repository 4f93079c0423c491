package postgres

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL container for testing and applies the
// schema. Returns a cleanup function that must be called after tests complete.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("test"),
		postgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start postgres container")

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err, "failed to create pool")

	applySchema(t, ctx, pool)

	cleanup := func() {
		pool.Close()
		if err := container.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %v", err)
		}
	}

	return pool, cleanup
}

// applySchema creates the tables under test. Mirrors the embedded
// migrations; kept inline so the package tests have no import cycle with
// the migrations package.
func applySchema(t *testing.T, ctx context.Context, pool *Pool) {
	t.Helper()

	schemas := []string{
		`CREATE TABLE IF NOT EXISTS windows (
			window_id            TEXT PRIMARY KEY,
			symbol               TEXT NOT NULL,
			epoch                TEXT NOT NULL DEFAULT '',
			open_time_ms         BIGINT NOT NULL,
			close_time_ms        BIGINT NOT NULL,
			strike_price         DOUBLE PRECISION NOT NULL,
			open_price           DOUBLE PRECISION NOT NULL DEFAULT 0,
			close_price          DOUBLE PRECISION NOT NULL DEFAULT 0,
			audited_resolution   TEXT,
			onchain_direction    TEXT,
			onchain_attester_key TEXT,
			resolved_direction   TEXT,
			created_at           TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_runs (
			run_id           UUID PRIMARY KEY,
			strategy_id      TEXT NOT NULL,
			created_at_ms    BIGINT NOT NULL,
			starting_capital DOUBLE PRECISION NOT NULL,
			final_capital    DOUBLE PRECISION NOT NULL,
			total_pnl        DOUBLE PRECISION NOT NULL,
			win_rate         DOUBLE PRECISION NOT NULL,
			max_drawdown     DOUBLE PRECISION NOT NULL,
			total_trades     INTEGER NOT NULL,
			window_count     INTEGER NOT NULL,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS backtest_trades (
			run_id        UUID NOT NULL REFERENCES backtest_runs (run_id),
			trade_id      TEXT NOT NULL,
			window_id     TEXT NOT NULL,
			token         TEXT NOT NULL,
			entry_time_ms BIGINT NOT NULL,
			exit_time_ms  BIGINT NOT NULL,
			entry_price   DOUBLE PRECISION NOT NULL,
			exit_price    DOUBLE PRECISION NOT NULL,
			size          DOUBLE PRECISION NOT NULL,
			pnl           DOUBLE PRECISION NOT NULL,
			reason        TEXT NOT NULL,
			PRIMARY KEY (run_id, trade_id)
		)`,
	}

	for _, schema := range schemas {
		_, err := pool.Exec(ctx, schema)
		require.NoError(t, err, "failed to apply schema")
	}
}

// ptr is a helper to create pointers to values.
func ptr[T any](v T) *T {
	return &v
}
