package repomanager

import (
	"context"

	"github.com/dmitrijs2005/ministry/internal/dbx"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/refreshtokens"
	"github.com/dmitrijs2005/ministry/internal/server/repositories/users"
	"github.com/jmoiron/sqlx"
)

// RepositoryManager vends repositories bound to a DBTX, so a service can
// use the same repository types on the pool or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sqlx.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
}
