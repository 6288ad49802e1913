package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/securedoc/internal/dbx"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/audit"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/ownership"
)

// RepositoryManager vends repository implementations bound to a DBTX and
// exposes a schema migration hook.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Audit(db dbx.DBTX) audit.Repository
	Ownership(db dbx.DBTX) ownership.Repository
}
