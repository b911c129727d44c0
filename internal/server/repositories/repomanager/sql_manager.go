// Package repomanager provides the SQL RepositoryManager, wiring together
// repository constructors and the embedded goose migrations.
package repomanager

import (
	"context"

	"github.com/dmitrijs2005/ministry/internal/dbx"
	"github.com/dmitrijs2005/ministry/internal/server/migrations"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
)

// SQLRepositoryManager vends the SQLite/PostgreSQL repository implementations.
type SQLRepositoryManager struct{}

// Users returns a users.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewSQLRepository(db)
}

// RefreshTokens returns a refreshtokens.Repository bound to the provided DBTX.
func (m *SQLRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewSQLRepository(db)
}

// migrateUp is a seam for testing migrations.Up.
var migrateUp = migrations.Up

// RunMigrations applies the embedded schema using the dialect of db's driver.
func (m *SQLRepositoryManager) RunMigrations(ctx context.Context, db *sqlx.DB) error {
	return migrateUp(ctx, db)
}

// NewSQLRepositoryManager constructs the SQL-backed RepositoryManager.
func NewSQLRepositoryManager() RepositoryManager {
	return &SQLRepositoryManager{}
}
