package migrations

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingExecer struct {
	stmts []string
}

func (r *recordingExecer) Exec(_ context.Context, query string, _ ...any) error {
	r.stmts = append(r.stmts, query)
	return nil
}

func TestSplitStatements(t *testing.T) {
	sql := `
-- header comment
CREATE TABLE a (x Int64);

-- second
CREATE TABLE b (
    y String
);
`
	stmts := splitStatements(sql)
	require.Len(t, stmts, 2)
	assert.Equal(t, "CREATE TABLE a (x Int64)", stmts[0])
	assert.True(t, strings.HasPrefix(stmts[1], "CREATE TABLE b ("))
}

func TestValidateNoSemicolonInStrings(t *testing.T) {
	assert.NoError(t, validateNoSemicolonInStrings(`SELECT 'a''b';`))
	assert.ErrorIs(t, validateNoSemicolonInStrings(`SELECT 'a;b';`), errSemicolonInString)
}

func TestDatabaseFromDSN(t *testing.T) {
	db, err := databaseFromDSN("clickhouse://default:@localhost:9000/features")
	require.NoError(t, err)
	assert.Equal(t, "features", db)

	_, err = databaseFromDSN("clickhouse://localhost:9000")
	assert.Error(t, err)
}

func TestEmbeddedMigrations(t *testing.T) {
	pg, err := readMigrations(PostgresFS, "postgres")
	require.NoError(t, err)
	require.NotEmpty(t, pg)
	assert.Contains(t, pg[0].sql, "CREATE TABLE IF NOT EXISTS trades")

	rec := &recordingExecer{}
	require.NoError(t, applyClickhouse(context.Background(), rec))
	require.Len(t, rec.stmts, 3)
	assert.Contains(t, rec.stmts[0], "bars")
	assert.Contains(t, rec.stmts[1], "labels")
	assert.Contains(t, rec.stmts[2], "label_summaries")
}
