// Package repomanager vends repository implementations bound to a database
// handle, so services can run the same repositories inside and outside
// transactions.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/Akshaj-Bisht/droply/internal/dbx"
	"github.com/Akshaj-Bisht/droply/internal/server/repositories/files"
	"github.com/Akshaj-Bisht/droply/internal/server/repositories/sessions"
)

// RepositoryManager hands out repositories bound to the given DBTX and owns
// schema migrations.
type RepositoryManager interface {
	Sessions(db dbx.DBTX) sessions.Repository
	Files(db dbx.DBTX) files.Repository
	RunMigrations(ctx context.Context, db *sql.DB) error
}
