// Package repomanager provides a concrete RepositoryManager for PostgreSQL,
// wiring together repository constructors and database migrations (via goose).
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/securedoc/internal/dbx"
	"github.com/dmitrijs2005/securedoc/internal/server/migrations"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/audit"
	"github.com/dmitrijs2005/securedoc/internal/server/repositories/ownership"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// PostgresRepositoryManager vends PostgreSQL-backed repository
// implementations.
type PostgresRepositoryManager struct{}

// Audit returns an audit.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Audit(db dbx.DBTX) audit.Repository {
	return audit.NewPostgresRepository(db)
}

// Ownership returns an ownership.Repository bound to the provided DBTX.
func (m *PostgresRepositoryManager) Ownership(db dbx.DBTX) ownership.Repository {
	return ownership.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

// RunMigrations sets up goose with the embedded migrations and runs them
// against the provided database connection.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	if err := gooseUpContext(ctx, db, "."); err != nil {
		return err
	}
	return nil
}

// NewPostgresRepositoryManager constructs a PostgreSQL-backed RepositoryManager.
func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
