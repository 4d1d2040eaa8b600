package postgres

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schemaGlob matches the trade schema relative to this package directory.
// The migrations package imports this one, so the SQL is read from disk.
var schemaGlob = filepath.Join("..", "migrations", "postgres", "*.sql")

// setupTestDB starts a throwaway PostgreSQL with the trades schema applied.
func setupTestDB(t *testing.T) (*Pool, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	container, err := postgres.Run(ctx, "postgres:15-alpine",
		postgres.WithDatabase("ticks"),
		postgres.WithUsername("ticks"),
		postgres.WithPassword("ticks"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	pool, err := NewPool(ctx, dsn)
	require.NoError(t, err)

	applyTradeSchema(ctx, t, pool)

	return pool, func() {
		pool.Close()
		if err := container.Terminate(context.Background()); err != nil {
			t.Logf("terminate postgres container: %v", err)
		}
	}
}

// applyTradeSchema executes the schema files in lexical order and checks
// that the trades table exists afterwards.
func applyTradeSchema(ctx context.Context, t *testing.T, pool *Pool) {
	t.Helper()

	files, err := filepath.Glob(schemaGlob)
	require.NoError(t, err)
	require.NotEmpty(t, files, "no schema files under %s", schemaGlob)

	for _, f := range files {
		stmt, err := os.ReadFile(f)
		require.NoError(t, err)
		_, err = pool.Exec(ctx, string(stmt))
		require.NoError(t, err, "apply %s", filepath.Base(f))
	}

	var present bool
	err = pool.QueryRow(ctx, `SELECT to_regclass('public.trades') IS NOT NULL`).Scan(&present)
	require.NoError(t, err)
	require.True(t, present, "trades table missing after schema setup")
}
