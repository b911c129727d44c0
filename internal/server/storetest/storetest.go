// Package storetest opens a migrated SQLite database for tests.
package storetest

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/dmitrijs2005/ministry/internal/server/migrations"
	"github.com/dmitrijs2005/ministry/internal/server/shared/db"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// DSNFor returns the DSN the server uses in production, pointed at path.
func DSNFor(path string) string {
	return "file:" + path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}

// Open creates a fresh file-backed SQLite database under t.TempDir, applies
// the migrations and closes it when the test ends.
func Open(t testing.TB) *sqlx.DB {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, "sqlite", DSNFor(filepath.Join(t.TempDir(), "ministry.db")))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, migrations.Up(ctx, conn))
	return conn
}
