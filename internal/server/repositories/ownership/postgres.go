package ownership

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/securedoc/internal/common"
	"github.com/dmitrijs2005/securedoc/internal/dbx"
)

// PostgresRepository implements the index over a dbx.DBTX (*sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

// NewPostgresRepository constructs a repository bound to the given DBTX.
func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Register inserts the owner row. Exactly one row must be affected.
func (r *PostgresRepository) Register(ctx context.Context, fileID, ownerID string) error {
	query := `INSERT INTO file_owners (file_id, user_id) VALUES ($1, $2);`
	res, err := r.db.ExecContext(ctx, query, fileID, ownerID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n != 1 {
		return fmt.Errorf("unexpected rows affected: %d", n)
	}
	return nil
}

// OwnerOf looks up the registered owner of fileID.
func (r *PostgresRepository) OwnerOf(ctx context.Context, fileID string) (string, error) {
	query := `SELECT user_id FROM file_owners WHERE file_id = $1;`
	var ownerID string
	if err := r.db.QueryRowContext(ctx, query, fileID).Scan(&ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("%w: file %s", common.ErrNotFound, fileID)
		}
		return "", fmt.Errorf("db error: %w", err)
	}
	return ownerID, nil
}
