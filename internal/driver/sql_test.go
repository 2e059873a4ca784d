package driver

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaydb/relay/internal/dialect"
)

func TestDSNBuilders(t *testing.T) {
	cfg := Config{
		Host:     "db.example.net",
		Port:     3306,
		User:     "app",
		Pass:     "s3cret",
		Database: "shop",
	}

	assert.Equal(t, "app:s3cret@tcp(db.example.net:3306)/shop?parseTime=true", mysqlDSN(cfg))

	cfg.Port = 5432
	assert.Equal(t,
		"host=db.example.net port=5432 user=app password=s3cret dbname=shop sslmode=disable",
		postgresDSN(cfg))

	sqliteCfg := Config{Database: "/tmp/relay.db"}
	assert.Equal(t, "file:/tmp/relay.db?_busy_timeout=5000&_foreign_keys=on", sqliteDSN(sqliteCfg))
}

func TestIsRowQuery(t *testing.T) {
	assert.True(t, isRowQuery("SELECT * FROM `t`"))
	assert.True(t, isRowQuery("  select 1"))
	assert.False(t, isRowQuery("INSERT INTO `t` (`a`) VALUES (1)"))
	assert.False(t, isRowQuery("DELETE FROM `t`"))
}

// SQLite gives the sql provider an end-to-end run without a server: open a
// file database, create a table outside the chain surface, then exercise
// Begin/ExecuteRaw/Commit through the Connection interface.
func TestSQLiteConnection_Transaction(t *testing.T) {
	dir := t.TempDir()

	provider, err := New(Config{Software: "sqlite", Database: dir + "/relay.db"})
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	conn, err := provider.Acquire(ctx)
	require.NoError(t, err)
	defer provider.Release(conn)

	assert.Equal(t, dialect.SQLite, conn.Dialect())

	_, err = conn.ExecuteRaw(ctx, `CREATE TABLE tab_use (num INTEGER, label TEXT)`)
	require.NoError(t, err)

	require.NoError(t, conn.Begin(ctx))
	res, err := conn.ExecuteRaw(ctx, `INSERT INTO tab_use (num, label) VALUES (301, 'free')`)
	require.NoError(t, err)
	assert.Equal(t, int64(1), res.LastID)
	require.NoError(t, conn.Commit(ctx))

	res, err = conn.ExecuteRaw(ctx, `SELECT num, label FROM tab_use`)
	require.NoError(t, err)
	require.Len(t, res.Rows, 1)
	assert.Equal(t, int64(301), res.Rows[0]["num"])
	assert.Equal(t, "free", res.Rows[0]["label"])
}

func TestSQLiteConnection_RollbackDiscards(t *testing.T) {
	dir := t.TempDir()

	provider, err := New(Config{Software: "sqlite", Database: dir + "/relay.db"})
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	conn, err := provider.Acquire(ctx)
	require.NoError(t, err)
	defer provider.Release(conn)

	_, err = conn.ExecuteRaw(ctx, `CREATE TABLE t (n INTEGER)`)
	require.NoError(t, err)

	require.NoError(t, conn.Begin(ctx))
	_, err = conn.ExecuteRaw(ctx, `INSERT INTO t (n) VALUES (1)`)
	require.NoError(t, err)
	require.NoError(t, conn.Rollback(ctx))

	res, err := conn.ExecuteRaw(ctx, `SELECT n FROM t`)
	require.NoError(t, err)
	assert.Empty(t, res.Rows)
}

func TestSQLiteConnection_ExecuteErrorSurfaces(t *testing.T) {
	dir := t.TempDir()

	provider, err := New(Config{Software: "sqlite", Database: dir + "/relay.db"})
	require.NoError(t, err)
	defer provider.Close()

	ctx := context.Background()
	conn, err := provider.Acquire(ctx)
	require.NoError(t, err)
	defer provider.Release(conn)

	_, err = conn.ExecuteRaw(ctx, `INSERT INTO missing (n) VALUES (1)`)
	assert.Error(t, err)
}
